// Package inbox watches a directory for new photos and feeds them to the
// analysis flow: meal photos dropped into food/ become diet records, scans
// dropped into inbody/ update the daily calorie target.
package inbox

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lifeos/internal/checksum"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/session"
)

// Subdirectories of the inbox root.
const (
	FoodDir   = "food"
	InBodyDir = "inbody"
)

const settleDelay = 300 * time.Millisecond

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}, ".heic": {},
}

// Analyzer is the part of the session the inbox drives.
type Analyzer interface {
	AnalyzeFood(ctx context.Context, image string) (models.Diet, error)
	AnalyzeInBody(ctx context.Context, image string) (session.InBody, error)
	AddDiet(d models.Diet) (models.Diet, error)
	ApplyInBody(target float64) (models.Settings, error)
}

// Result reports the outcome of one processed photo.
type Result struct {
	File string       `json:"file"`
	Kind gateway.Kind `json:"kind"`
	Err  error        `json:"-"`
}

// Callback is called after every processed photo.
type Callback func(Result)

// Watch processes photos written under root until ctx is cancelled.
// Files present at start are remembered but not analyzed.
func Watch(ctx context.Context, root string, a Analyzer, logger *slog.Logger, cb Callback) error {
	for _, d := range []string{FoodDir, InBodyDir} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("inbox: create %s: %w", d, err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, d := range []string{FoodDir, InBodyDir} {
		if err := w.Add(filepath.Join(root, d)); err != nil {
			return fmt.Errorf("inbox: watch %s: %w", d, err)
		}
	}

	seen := existingChecksums(root)
	logger.Info("inbox: started", slog.String("root", root), slog.Int("known", len(seen)))

	// Writes land in chunks; each path is processed once it has been quiet
	// for settleDelay.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox: stopped")
			return nil

		case now := <-ticker.C:
			for path, at := range pending {
				if now.Sub(at) < settleDelay {
					continue
				}
				delete(pending, path)
				res, skip := process(ctx, root, path, a, seen, logger)
				if !skip && cb != nil {
					cb(res)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isImage(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// process analyzes one file. skip is true for unreadable files and
// content that was already handled.
func process(ctx context.Context, root, path string, a Analyzer, seen map[string]struct{}, logger *slog.Logger) (res Result, skip bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Result{}, true
	}
	res = Result{File: filepath.ToSlash(rel), Kind: kindOf(rel)}

	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return res, true
	}
	sum := checksum.Sum(data)
	if _, dup := seen[sum]; dup {
		logger.Debug("inbox: duplicate skipped", slog.String("file", res.File), slog.String("checksum", checksum.Short(data)))
		return res, true
	}
	seen[sum] = struct{}{}

	image := gateway.DataURL(data)
	switch res.Kind {
	case gateway.KindFood:
		var d models.Diet
		if d, err = a.AnalyzeFood(ctx, image); err == nil {
			_, err = a.AddDiet(d)
		}
	case gateway.KindInBody:
		var ib session.InBody
		if ib, err = a.AnalyzeInBody(ctx, image); err == nil {
			_, err = a.ApplyInBody(ib.Target)
		}
	}

	if err != nil {
		// allow a retry by dropping the same file in again
		delete(seen, sum)
		res.Err = err
		logger.Warn("inbox: analysis failed",
			slog.String("file", res.File),
			slog.String("error", err.Error()))
		return res, false
	}
	logger.Info("inbox: processed", slog.String("file", res.File), slog.String("kind", string(res.Kind)))
	return res, false
}

func kindOf(rel string) gateway.Kind {
	if strings.HasPrefix(filepath.ToSlash(rel), InBodyDir+"/") {
		return gateway.KindInBody
	}
	return gateway.KindFood
}

func isImage(path string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

func existingChecksums(root string) map[string]struct{} {
	seen := make(map[string]struct{})
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isImage(path) {
			return nil
		}
		if data, readErr := os.ReadFile(path); readErr == nil {
			seen[checksum.Sum(data)] = struct{}{}
		}
		return nil
	})
	return seen
}
