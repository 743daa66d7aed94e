// Package session owns the login state of one user and applies every
// mutation optimistically: the local store changes first, the remote write
// follows in the background and is never awaited by the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/lifeos/internal/apperr"
	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/storage"
)

// State is the login state.
type State int

const (
	Anonymous State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "anonymous"
}

// Remote is the subset of the gateway the controller needs.
type Remote interface {
	FetchAll(ctx context.Context, userID string) (*models.Bulk, error)
	Post(ctx context.Context, action gateway.Action, category models.Category, payload any, userID string) error
	Analyze(ctx context.Context, image string, kind gateway.Kind) (map[string]any, error)
}

// Write describes one completed remote mutation.
type Write struct {
	Action   gateway.Action
	Category models.Category
	Payload  any
	Err      error
}

// ChangeKind names a local state change.
type ChangeKind string

const (
	ChangeRecordAdded ChangeKind = "record.added"
	ChangeMemoUpdated ChangeKind = "memo.updated"
	ChangeMemoDeleted ChangeKind = "memo.deleted"
	ChangeSettings    ChangeKind = "settings.saved"
	ChangeSession     ChangeKind = "session.changed"
)

// Change is emitted after every local mutation.
type Change struct {
	Kind     ChangeKind      `json:"kind"`
	Category models.Category `json:"category,omitempty"`
	Date     string          `json:"date,omitempty"`
	ID       string          `json:"id,omitempty"`
	Payload  any             `json:"payload,omitempty"`
}

// Controller is the session state machine.
type Controller struct {
	remote Remote
	store  storage.Provider
	norm   *dates.Normalizer
	logger *slog.Logger
	newID  func() string

	onDispatched []func(Write)
	onChange     []func(Change)

	mu     sync.RWMutex // guards state and userID; held across store mutations
	state  State
	userID string

	writes tracker
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithNormalizer sets the date normalizer used for defaults.
func WithNormalizer(n *dates.Normalizer) Option {
	return func(c *Controller) { c.norm = n }
}

// WithIDFunc replaces the memo id generator.
func WithIDFunc(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// WithOnDispatched registers a callback run after every remote write
// completes, successfully or not.
func WithOnDispatched(f func(Write)) Option {
	return func(c *Controller) { c.onDispatched = append(c.onDispatched, f) }
}

// WithOnChange registers a callback run after every local mutation.
func WithOnChange(f func(Change)) Option {
	return func(c *Controller) { c.onChange = append(c.onChange, f) }
}

// New creates an anonymous Controller.
func New(remote Remote, store storage.Provider, opts ...Option) *Controller {
	c := &Controller{
		remote: remote,
		store:  store,
		norm:   dates.Default(),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.writes.init()
	return c
}

// OnChange registers a change listener after construction.
// Must be called before the controller is shared between goroutines.
func (c *Controller) OnChange(f func(Change)) {
	c.onChange = append(c.onChange, f)
}

// State returns the current login state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// UserID returns the logged-in user, or "" when anonymous.
func (c *Controller) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Snapshot returns a detached copy of the store.
func (c *Controller) Snapshot() storage.Snapshot {
	return c.store.Snapshot()
}

// Normalizer returns the date normalizer in use.
func (c *Controller) Normalizer() *dates.Normalizer {
	return c.norm
}

// Login fetches the user's data and activates the session. A failed fetch
// still logs in, with an empty store.
func (c *Controller) Login(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("session: login: %w: empty user id", apperr.ErrInvalidInput)
	}

	bulk, err := c.remote.FetchAll(ctx, userID)
	if err != nil {
		c.logger.Warn("session: fetch failed, starting empty",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		bulk = nil
	}

	c.mu.Lock()
	c.store.Hydrate(bulk)
	c.state = Active
	c.userID = userID
	c.mu.Unlock()

	c.logger.Info("session: logged in", slog.String("user_id", userID))
	c.notify(Change{Kind: ChangeSession, Payload: map[string]string{"state": Active.String(), "userId": userID}})
	return nil
}

// Logout discards all local data. Writes already in flight still complete.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.store.Reset()
	c.state = Anonymous
	c.userID = ""
	c.mu.Unlock()

	c.logger.Info("session: logged out")
	c.notify(Change{Kind: ChangeSession, Payload: map[string]string{"state": Anonymous.String()}})
}

// AddDiet records a meal.
func (c *Controller) AddDiet(d models.Diet) (models.Diet, error) {
	d.Date, d.Time = c.stamp(d.Date, d.Time)
	rec, err := c.add(d)
	if err != nil {
		return models.Diet{}, err
	}
	return rec.(models.Diet), nil
}

// AddWorkout records an exercise session. Zero duration and calories take
// the usual defaults of 60 minutes and 300 kcal.
func (c *Controller) AddWorkout(w models.Workout) (models.Workout, error) {
	w.Date, w.Time = c.stamp(w.Date, w.Time)
	if w.Duration == 0 {
		w.Duration = defaultWorkoutMinutes
	}
	if w.Calories == 0 {
		w.Calories = defaultWorkoutCalories
	}
	rec, err := c.add(w)
	if err != nil {
		return models.Workout{}, err
	}
	return rec.(models.Workout), nil
}

// AddFinance records an expense.
func (c *Controller) AddFinance(f models.Finance) (models.Finance, error) {
	f.Date, f.Time = c.stamp(f.Date, f.Time)
	if strings.TrimSpace(f.Note) == "" {
		f.Note = defaultExpenseNote
	}
	if f.CategoryID == "" {
		f.CategoryID = defaultExpenseCategory
	}
	rec, err := c.add(f)
	if err != nil {
		return models.Finance{}, err
	}
	return rec.(models.Finance), nil
}

// AddCoffee records a brew.
func (c *Controller) AddCoffee(cf models.Coffee) (models.Coffee, error) {
	cf.Date, cf.Time = c.stamp(cf.Date, cf.Time)
	rec, err := c.add(cf)
	if err != nil {
		return models.Coffee{}, err
	}
	return rec.(models.Coffee), nil
}

// AddMemo records a memo under a fresh id.
func (c *Controller) AddMemo(m models.Memo) (models.Memo, error) {
	m.Date, m.Time = c.stamp(m.Date, m.Time)
	m.ID = c.newID()
	rec, err := c.add(m)
	if err != nil {
		return models.Memo{}, err
	}
	return rec.(models.Memo), nil
}

// Add records any record, dispatching on its category.
func (c *Controller) Add(rec models.Record) (models.Record, error) {
	switch r := rec.(type) {
	case models.Diet:
		return c.AddDiet(r)
	case models.Workout:
		return c.AddWorkout(r)
	case models.Finance:
		return c.AddFinance(r)
	case models.Coffee:
		return c.AddCoffee(r)
	case models.Memo:
		return c.AddMemo(r)
	default:
		return nil, fmt.Errorf("session: add: %w: unsupported record %T", apperr.ErrInvalidInput, rec)
	}
}

func (c *Controller) add(rec models.Record) (models.Record, error) {
	c.mu.RLock()
	if c.state != Active {
		c.mu.RUnlock()
		return nil, apperr.ErrNoSession
	}
	rec = c.store.Append(rec)
	c.dispatch(gateway.ActionAdd, rec.Category(), rec, c.userID)
	c.mu.RUnlock()

	c.notify(Change{Kind: ChangeRecordAdded, Category: rec.Category(), Date: rec.Day(), Payload: rec})
	return rec, nil
}

// UpdateMemo applies patch to the memo with id and sends the full memo.
func (c *Controller) UpdateMemo(id string, patch models.MemoPatch) (models.Memo, error) {
	c.mu.RLock()
	if c.state != Active {
		c.mu.RUnlock()
		return models.Memo{}, apperr.ErrNoSession
	}
	m, ok := c.store.UpdateMemo(id, patch)
	if !ok {
		c.mu.RUnlock()
		return models.Memo{}, fmt.Errorf("session: memo %q: %w", id, apperr.ErrNotFound)
	}
	c.dispatch(gateway.ActionUpdate, models.CategoryMemo, m, c.userID)
	c.mu.RUnlock()

	c.notify(Change{Kind: ChangeMemoUpdated, Category: models.CategoryMemo, Date: m.Date, ID: m.ID, Payload: m})
	return m, nil
}

// ToggleMemo flips the done flag of the memo with id.
func (c *Controller) ToggleMemo(id string) (models.Memo, error) {
	m, ok := c.store.Memo(id)
	if !ok {
		if c.State() != Active {
			return models.Memo{}, apperr.ErrNoSession
		}
		return models.Memo{}, fmt.Errorf("session: memo %q: %w", id, apperr.ErrNotFound)
	}
	done := !m.IsDone
	return c.UpdateMemo(id, models.MemoPatch{IsDone: &done})
}

// DeleteMemo removes the memo with id and sends {id}.
func (c *Controller) DeleteMemo(id string) error {
	c.mu.RLock()
	if c.state != Active {
		c.mu.RUnlock()
		return apperr.ErrNoSession
	}
	if !c.store.RemoveMemo(id) {
		c.mu.RUnlock()
		return fmt.Errorf("session: memo %q: %w", id, apperr.ErrNotFound)
	}
	c.dispatch(gateway.ActionDelete, models.CategoryMemo, map[string]string{"id": id}, c.userID)
	c.mu.RUnlock()

	c.notify(Change{Kind: ChangeMemoDeleted, Category: models.CategoryMemo, ID: id})
	return nil
}

// SaveSettings merges patch into the settings and sends the patch.
func (c *Controller) SaveSettings(patch models.SettingsPatch) (models.Settings, error) {
	c.mu.RLock()
	if c.state != Active {
		c.mu.RUnlock()
		return models.Settings{}, apperr.ErrNoSession
	}
	s := c.store.SetSettings(patch)
	c.dispatch(gateway.ActionSaveSettings, "", patch, c.userID)
	c.mu.RUnlock()

	c.notify(Change{Kind: ChangeSettings, Payload: s})
	return s, nil
}

// Settings returns the current settings.
func (c *Controller) Settings() models.Settings {
	return c.store.Settings()
}

// stamp fills an empty date with today and an empty time with now.
func (c *Controller) stamp(date, clock string) (string, string) {
	day := c.norm.Normalize(date)
	if day == "" {
		day = c.norm.Today()
	}
	clock = dates.Clock(strings.TrimSpace(clock))
	if clock == "" {
		clock = c.norm.Now()
	}
	return day, clock
}

func (c *Controller) notify(ch Change) {
	for _, f := range c.onChange {
		f(ch)
	}
}

// dispatch sends one write in the background. Callers hold c.mu so that
// the user id cannot change between the store mutation and the send.
func (c *Controller) dispatch(action gateway.Action, category models.Category, payload any, userID string) {
	c.writes.add()
	go func() {
		defer c.writes.done()
		err := c.remote.Post(context.Background(), action, category, payload, userID)
		if err != nil && !errors.Is(err, apperr.ErrDisabled) {
			c.logger.Warn("session: write dropped",
				slog.String("action", string(action)),
				slog.String("category", string(category)),
				slog.String("error", err.Error()))
		}
		w := Write{Action: action, Category: category, Payload: payload, Err: err}
		for _, f := range c.onDispatched {
			f(w)
		}
	}()
}

// Pending returns the number of remote writes still in flight.
func (c *Controller) Pending() int {
	return c.writes.count()
}

// Drain waits until no write is in flight or ctx is done.
func (c *Controller) Drain(ctx context.Context) error {
	return c.writes.wait(ctx)
}
