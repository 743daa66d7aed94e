// Package testutil provides shared test helpers: a SQLite-backed sheet stub
// behind a real gateway client, and sessions pinned to a fixed clock.
package testutil

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/session"
	"github.com/starford/lifeos/internal/sheetstub"
	"github.com/starford/lifeos/internal/storage"
)

// Now is the wall clock every test session sees: Thursday 2024/03/07 09:05 UTC.
var Now = time.Date(2024, 3, 7, 9, 5, 0, 0, time.UTC)

// Today is the canonical key of Now.
const Today = "2024/03/07"

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Normalizer returns a UTC normalizer pinned to Now.
func Normalizer() *dates.Normalizer {
	return dates.New(time.UTC).WithClock(func() time.Time { return Now })
}

// DefaultSettings mirrors the shipped config defaults.
func DefaultSettings() models.Settings {
	return models.Settings{Name: "User", DailyCalories: 2000, DailyWater: 2000}
}

// Stub starts a sheet stub on a temporary SQLite database and returns a
// gateway client pointed at it. Everything is torn down with t.
func Stub(t *testing.T) (*gateway.Client, *sheetstub.DB) {
	t.Helper()
	db, err := sheetstub.Open(filepath.Join(t.TempDir(), "sheet.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(sheetstub.NewHandler(db, Logger()).Router())
	t.Cleanup(srv.Close)

	client := gateway.New(srv.URL, 2*time.Second,
		gateway.WithNormalizer(Normalizer()),
		gateway.WithLogger(Logger()))
	return client, db
}

// Session builds a controller over remote with an in-memory store.
func Session(t *testing.T, remote session.Remote, opts ...session.Option) *session.Controller {
	t.Helper()
	norm := Normalizer()
	store := storage.NewMemory(norm, DefaultSettings())
	base := []session.Option{
		session.WithNormalizer(norm),
		session.WithLogger(Logger()),
	}
	return session.New(remote, store, append(base, opts...)...)
}
