package dayview

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/storage"
)

func testAggregator() *Aggregator {
	return New(dates.New(time.UTC))
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestForDate_CrossFormatMatch(t *testing.T) {
	a := testAggregator()
	store := storage.NewMemory(dates.New(time.UTC), models.Settings{})
	store.Hydrate(&models.Bulk{Diet: []models.Diet{{Name: "A", Calories: 200, Date: "2024/1/5"}}})

	day := a.ForDate(store.Snapshot(), "2024/01/05")
	if len(day.Diet) != 1 || day.Diet[0].Name != "A" {
		t.Fatalf("diet = %+v, want the one record", day.Diet)
	}
}

func TestForDate_NoFalsePositives(t *testing.T) {
	a := testAggregator()
	snap := storage.Snapshot{
		Diet: []models.Diet{
			{Name: "slash", Date: "2024/1/5"},
			{Name: "iso", Date: "2024-01-05"},
			{Name: "instant", Date: "2024-01-05T08:00:00Z"},
			{Name: "us", Date: "1/5/2024"},
			{Name: "other", Date: "2024/01/15"},
			{Name: "junk", Date: "someday"},
		},
		Finance: []models.Finance{{Note: "x", Date: "2024/01/06"}},
	}
	day := a.ForDate(snap, "2024-01-05")

	var names []string
	for _, d := range day.Diet {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"slash", "iso", "instant", "us"}, names); diff != "" {
		t.Errorf("ForDate diet mismatch (-want +got):\n%s", diff)
	}
	if len(day.Finance) != 0 {
		t.Errorf("finance = %d, want 0", len(day.Finance))
	}
}

func TestForDate_EmptyDate(t *testing.T) {
	a := testAggregator()
	day := a.ForDate(storage.Snapshot{Memo: []models.Memo{{ID: "1", Date: ""}}}, "")
	if len(day.Memo) != 0 {
		t.Error("empty date must not match undated records")
	}
}

func TestTimeline_SortedAndStable(t *testing.T) {
	day := Day{
		Diet:    []models.Diet{{Name: "lunch", Time: "12:00"}, {Name: "snack", Time: "15:30"}},
		Workout: []models.Workout{{Title: "run", Time: "07:00"}, {Title: "stretch", Time: "12:00"}},
		Finance: []models.Finance{{Note: "coffee", Time: "12:00", Amount: money("4")}},
		Coffee:  []models.Coffee{{Bean: "kenya", Time: "08:15", Ratio: "1:15"}},
		Memo:    []models.Memo{{ID: "1", Time: "06:00"}},
	}
	entries := Timeline(day)

	var got []string
	for _, e := range entries {
		got = append(got, e.Title)
	}
	// Equal "12:00" labels keep diet, workout, finance source order.
	want := []string{"run", "kenya", "lunch", "stretch", "coffee", "snack"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("timeline order (-want +got):\n%s", diff)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Time > entries[i].Time {
			t.Fatalf("not sorted at %d: %q > %q", i, entries[i-1].Time, entries[i].Time)
		}
	}
}

func TestTimeline_DisplayAffordances(t *testing.T) {
	entries := Timeline(Day{
		Diet:    []models.Diet{{Name: "rice", Calories: 350, Time: "12:00"}},
		Finance: []models.Finance{{Note: "taxi", Amount: money("120"), Time: "13:00"}},
	})
	if entries[0].Icon != "Utensils" || entries[0].Value != "350 kcal" || entries[0].Subtitle != "Intake" {
		t.Errorf("diet entry = %+v", entries[0])
	}
	if entries[1].Category != models.CategoryFinance || entries[1].Value != "-$120" {
		t.Errorf("finance entry = %+v", entries[1])
	}
}

func TestDailyTotals_EmptyDay(t *testing.T) {
	if got := DailyCalories(Day{}); got != 0 {
		t.Errorf("DailyCalories = %v", got)
	}
	if got := DailySpend(Day{}); !got.IsZero() {
		t.Errorf("DailySpend = %s", got)
	}
}

func TestDailyTotals_IgnoreNonNumeric(t *testing.T) {
	raw := []map[string]any{
		{"calories": "200"},
		{"calories": "abc"},
		{"calories": nil},
		{"calories": float64(150)},
	}
	var day Day
	for _, r := range raw {
		rec, _ := models.Decode(models.CategoryDiet, r, dates.Normalize)
		day.Diet = append(day.Diet, rec.(models.Diet))
	}
	for _, r := range []map[string]any{{"amount": "30"}, {"amount": ""}, {"amount": "12.5"}} {
		rec, _ := models.Decode(models.CategoryFinance, r, dates.Normalize)
		day.Finance = append(day.Finance, rec.(models.Finance))
	}
	if got := DailyCalories(day); got != 350 {
		t.Errorf("DailyCalories = %v, want 350", got)
	}
	if got := DailySpend(day); !got.Equal(money("42.5")) {
		t.Errorf("DailySpend = %s, want 42.5", got)
	}
}

func TestWeeklySpend_MondayAnchored(t *testing.T) {
	a := testAggregator()
	finance := []models.Finance{
		{Date: "2024/03/03", Amount: money("1000")}, // Sunday before the week
		{Date: "2024/03/04", Amount: money("100")},  // Monday
		{Date: "2024/3/6", Amount: money("200")},
		{Date: "2024-03-07", Amount: money("300")},  // reference day
		{Date: "2024/03/08", Amount: money("5000")}, // after reference
		{Date: "garbage", Amount: money("7")},
	}
	got := a.WeeklySpend(finance, "2024/03/07")
	if !got.Equal(money("600")) {
		t.Errorf("WeeklySpend = %s, want 600", got)
	}
	// On a Monday only that day counts.
	if got := a.WeeklySpend(finance, "2024/03/04"); !got.Equal(money("100")) {
		t.Errorf("WeeklySpend(Monday) = %s, want 100", got)
	}
}

func TestWeeklyBudgetRemaining_Negative(t *testing.T) {
	got := WeeklyBudgetRemaining(models.Settings{WeeklyBudget: money("5000")}, money("6000"))
	if !got.Equal(money("-1000")) {
		t.Errorf("remaining = %s, want -1000", got)
	}
}

func TestWeeklyTrend(t *testing.T) {
	a := testAggregator()
	diet := []models.Diet{
		{Date: "2024/03/01", Calories: 500},
		{Date: "2024/3/1", Calories: 250},
		{Date: "2024/03/07", Calories: 900},
		{Date: "2024/02/29", Calories: 111}, // outside the window
	}
	got := a.WeeklyTrend(diet, "2024/03/07")
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if got[0].Offset != -6 || got[0].Date != "2024/03/01" || got[0].Calories != 750 {
		t.Errorf("first point = %+v", got[0])
	}
	if got[6].Offset != 0 || got[6].Calories != 900 {
		t.Errorf("last point = %+v", got[6])
	}
	for _, p := range got[1:6] {
		if p.Calories != 0 {
			t.Errorf("point %+v should be 0", p)
		}
	}
}

func TestSummarize(t *testing.T) {
	a := testAggregator()
	snap := storage.Snapshot{
		Diet:     []models.Diet{{Name: "a", Calories: 500, Date: "2024/03/07", Time: "08:00"}},
		Workout:  []models.Workout{{Title: "b", Calories: 300, Date: "2024/03/07", Time: "07:00"}},
		Finance:  []models.Finance{{Note: "c", Amount: money("80"), Date: "2024/03/05"}, {Note: "d", Amount: money("20"), Date: "2024/03/07"}},
		Memo:     []models.Memo{{ID: "1", Content: "buy beans", Date: "2024/03/07"}},
		Settings: models.Settings{DailyCalories: 2000, WeeklyBudget: money("50")},
	}
	s := a.Summarize(snap, "2024-03-07")
	if s.Date != "2024/03/07" || len(s.Timeline) != 3 || len(s.Memo) != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Calories != 500 || s.CalorieProgress != 0.25 || s.Burned != 300 {
		t.Errorf("calories = %v progress = %v burned = %v", s.Calories, s.CalorieProgress, s.Burned)
	}
	if !s.Spend.Equal(money("20")) || !s.WeeklySpend.Equal(money("100")) || !s.WeeklyRemaining.Equal(money("-50")) {
		t.Errorf("spend = %s weekly = %s remaining = %s", s.Spend, s.WeeklySpend, s.WeeklyRemaining)
	}
}
