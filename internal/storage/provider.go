// Package storage holds the in-memory record state of one session.
package storage

import "github.com/starford/lifeos/internal/models"

// Provider is the interface for record state operations.
type Provider interface {
	// Hydrate replaces the whole state with bulk, renormalizing dates and clocks.
	Hydrate(bulk *models.Bulk)
	// Reset empties every list and restores default settings.
	Reset()
	// Append adds rec to the end of its category list.
	Append(rec models.Record) models.Record
	// UpdateMemo applies patch to the memo with id. It reports false when absent.
	UpdateMemo(id string, patch models.MemoPatch) (models.Memo, bool)
	// RemoveMemo drops the memo with id. It reports false when absent.
	RemoveMemo(id string) bool
	// SetSettings shallow-merges patch into the settings.
	SetSettings(patch models.SettingsPatch) models.Settings
	// Settings returns the current settings.
	Settings() models.Settings
	// Memo returns the memo with id.
	Memo(id string) (models.Memo, bool)
	// Snapshot returns a copy of the whole state safe to read without locks.
	Snapshot() Snapshot
}

// Snapshot is a point-in-time copy of the record state.
type Snapshot struct {
	Diet     []models.Diet    `json:"diet"`
	Workout  []models.Workout `json:"workout"`
	Finance  []models.Finance `json:"finance"`
	Coffee   []models.Coffee  `json:"coffee"`
	Memo     []models.Memo    `json:"memo"`
	Settings models.Settings  `json:"settings"`
}

// Len returns the number of records across categories.
func (s Snapshot) Len() int {
	return len(s.Diet) + len(s.Workout) + len(s.Finance) + len(s.Coffee) + len(s.Memo)
}
