package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/models"
)

var defaults = models.Settings{Name: "User", DailyCalories: 2000, DailyWater: 2000}

func tempStore(t *testing.T) *Memory {
	t.Helper()
	return NewMemory(dates.New(time.UTC), defaults)
}

func ptr[T any](v T) *T { return &v }

func TestHydrateRenormalizesDates(t *testing.T) {
	s := tempStore(t)
	s.Hydrate(&models.Bulk{
		Diet:    []models.Diet{{Name: "A", Calories: 200, Date: "2024/1/5", Time: "9:05"}},
		Finance: []models.Finance{{Amount: decimal.NewFromInt(10), Date: "2024-01-06T10:00:00Z"}},
	})
	snap := s.Snapshot()
	if got := snap.Diet[0].Date; got != "2024/01/05" {
		t.Errorf("diet date = %q, want 2024/01/05", got)
	}
	if got := snap.Diet[0].Time; got != "09:05" {
		t.Errorf("diet time = %q, want 09:05", got)
	}
	if got := snap.Finance[0].Date; got != "2024/01/06" {
		t.Errorf("finance date = %q", got)
	}
}

func TestHydrateReplacesWholesale(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Diet{Name: "old", Date: "2024/01/01"})
	s.SetSettings(models.SettingsPatch{Name: ptr("Old")})

	s.Hydrate(&models.Bulk{
		Workout:  []models.Workout{{Title: "run", Date: "2024/01/02"}},
		Settings: models.SettingsPatch{DailyCalories: ptr(1800.0)},
	})
	snap := s.Snapshot()
	if len(snap.Diet) != 0 {
		t.Errorf("diet = %d, want 0 after hydrate", len(snap.Diet))
	}
	if len(snap.Workout) != 1 {
		t.Errorf("workout = %d, want 1", len(snap.Workout))
	}
	if snap.Settings.Name != "User" || snap.Settings.DailyCalories != 1800 {
		t.Errorf("settings = %+v", snap.Settings)
	}
}

func TestHydrateNilEmpties(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Coffee{Bean: "x", Date: "2024/01/01"})
	s.Hydrate(nil)
	if n := s.Snapshot().Len(); n != 0 {
		t.Errorf("len = %d, want 0", n)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := tempStore(t)
	for _, name := range []string{"b", "a", "c"} {
		s.Append(models.Diet{Name: name, Date: "2024/01/01", Time: "12:00"})
	}
	snap := s.Snapshot()
	got := []string{snap.Diet[0].Name, snap.Diet[1].Name, snap.Diet[2].Name}
	if got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Errorf("order = %v, want [b a c]", got)
	}
}

func TestAppendIsImmediatelyVisible(t *testing.T) {
	s := tempStore(t)
	stored := s.Append(models.Memo{ID: "1", Content: "x", Date: "2024/3/1", Time: "7:00"})
	if stored.Day() != "2024/03/01" || stored.Clock() != "07:00" {
		t.Errorf("stored = %+v", stored)
	}
	if _, ok := s.Memo("1"); !ok {
		t.Error("memo not visible after append")
	}
}

func TestUpdateMemo(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Memo{ID: "1", Content: "x", Date: "2024/03/01"})

	got, ok := s.UpdateMemo("1", models.MemoPatch{IsDone: ptr(true)})
	if !ok {
		t.Fatal("UpdateMemo returned false")
	}
	if !got.IsDone || got.Content != "x" {
		t.Errorf("updated = %+v", got)
	}
	if m, _ := s.Memo("1"); !m.IsDone {
		t.Error("update not visible")
	}
}

func TestUpdateMemo_MissingIsNoop(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Memo{ID: "1", Content: "x", Date: "2024/03/01"})
	if _, ok := s.UpdateMemo("2", models.MemoPatch{Content: ptr("y")}); ok {
		t.Error("expected false for missing memo")
	}
	if m, _ := s.Memo("1"); m.Content != "x" {
		t.Error("unrelated memo changed")
	}
}

func TestRemoveMemo(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Memo{ID: "1", Date: "2024/03/01"})
	s.Append(models.Memo{ID: "2", Date: "2024/03/01"})

	if !s.RemoveMemo("1") {
		t.Fatal("RemoveMemo returned false")
	}
	if s.RemoveMemo("1") {
		t.Error("second remove should report false")
	}
	snap := s.Snapshot()
	if len(snap.Memo) != 1 || snap.Memo[0].ID != "2" {
		t.Errorf("memo = %+v", snap.Memo)
	}
}

func TestSetSettingsMerges(t *testing.T) {
	s := tempStore(t)
	got := s.SetSettings(models.SettingsPatch{WeeklyBudget: ptr(decimal.NewFromInt(5000))})
	if got.Name != "User" || !got.WeeklyBudget.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("settings = %+v", got)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Diet{Name: "a", Date: "2024/01/01"})
	snap := s.Snapshot()
	snap.Diet[0].Name = "mutated"
	s.Append(models.Diet{Name: "b", Date: "2024/01/01"})

	again := s.Snapshot()
	if again.Diet[0].Name != "a" {
		t.Error("snapshot shares backing array with store")
	}
	if len(snap.Diet) != 1 {
		t.Error("old snapshot grew after append")
	}
}

func TestReset(t *testing.T) {
	s := tempStore(t)
	s.Append(models.Diet{Name: "a", Date: "2024/01/01"})
	s.SetSettings(models.SettingsPatch{Name: ptr("Z")})
	s.Reset()
	snap := s.Snapshot()
	if snap.Len() != 0 || snap.Settings.Name != "User" {
		t.Errorf("after reset: %+v", snap)
	}
}
