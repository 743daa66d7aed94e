package storage

import (
	"slices"
	"sync"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/models"
)

// Memory implements Provider with plain slices guarded by a RWMutex.
// Every mutation is visible to the next read as soon as it returns.
type Memory struct {
	norm     *dates.Normalizer
	defaults models.Settings

	mu       sync.RWMutex
	diet     []models.Diet
	workout  []models.Workout
	finance  []models.Finance
	coffee   []models.Coffee
	memo     []models.Memo
	settings models.Settings
}

var _ Provider = (*Memory)(nil)

// NewMemory creates an empty store. defaults seed the settings at creation
// and after every Reset or Hydrate.
func NewMemory(norm *dates.Normalizer, defaults models.Settings) *Memory {
	if norm == nil {
		norm = dates.Default()
	}
	return &Memory{norm: norm, defaults: defaults, settings: defaults}
}

// Hydrate replaces the whole state with bulk. A nil bulk empties the store.
func (m *Memory) Hydrate(bulk *models.Bulk) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	if bulk == nil {
		return
	}
	m.diet = restampAll(m.norm, bulk.Diet)
	m.workout = restampAll(m.norm, bulk.Workout)
	m.finance = restampAll(m.norm, bulk.Finance)
	m.coffee = restampAll(m.norm, bulk.Coffee)
	m.memo = restampAll(m.norm, bulk.Memo)
	m.settings = m.defaults.Apply(bulk.Settings)
}

// Reset empties every list and restores default settings.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Memory) clearLocked() {
	m.diet, m.workout, m.finance, m.coffee, m.memo = nil, nil, nil, nil, nil
	m.settings = m.defaults
}

// Append adds rec to the end of its category list and returns the stored
// form (canonical date, zero-padded clock).
func (m *Memory) Append(rec models.Record) models.Record {
	rec = restamp(m.norm, rec)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r := rec.(type) {
	case models.Diet:
		m.diet = append(m.diet, r)
	case models.Workout:
		m.workout = append(m.workout, r)
	case models.Finance:
		m.finance = append(m.finance, r)
	case models.Coffee:
		m.coffee = append(m.coffee, r)
	case models.Memo:
		m.memo = append(m.memo, r)
	}
	return rec
}

// UpdateMemo applies patch to the memo with id.
func (m *Memory) UpdateMemo(id string, patch models.MemoPatch) (models.Memo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.memo, func(x models.Memo) bool { return x.ID == id })
	if i < 0 {
		return models.Memo{}, false
	}
	m.memo[i] = patch.Apply(m.memo[i])
	return m.memo[i], true
}

// RemoveMemo drops every memo whose id equals id.
func (m *Memory) RemoveMemo(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]models.Memo, 0, len(m.memo))
	for _, x := range m.memo {
		if x.ID != id {
			kept = append(kept, x)
		}
	}
	removed := len(kept) != len(m.memo)
	m.memo = kept
	return removed
}

// SetSettings shallow-merges patch and returns the result.
func (m *Memory) SetSettings(patch models.SettingsPatch) models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = m.settings.Apply(patch)
	return m.settings
}

// Settings returns the current settings.
func (m *Memory) Settings() models.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Memo returns the memo with id.
func (m *Memory) Memo(id string) (models.Memo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, x := range m.memo {
		if x.ID == id {
			return x, true
		}
	}
	return models.Memo{}, false
}

// Snapshot copies every list so readers never iterate a live slice.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Diet:     slices.Clone(m.diet),
		Workout:  slices.Clone(m.workout),
		Finance:  slices.Clone(m.finance),
		Coffee:   slices.Clone(m.coffee),
		Memo:     slices.Clone(m.memo),
		Settings: m.settings,
	}
}

func restamp(norm *dates.Normalizer, rec models.Record) models.Record {
	return rec.WithWhen(norm.Normalize(rec.Day()), dates.Clock(rec.Clock()))
}

func restampAll[T models.Record](norm *dates.Normalizer, in []T) []T {
	out := make([]T, 0, len(in))
	for _, r := range in {
		out = append(out, restamp(norm, r).(T))
	}
	return out
}
