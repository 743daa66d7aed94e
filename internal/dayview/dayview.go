// Package dayview derives day-scoped projections from a store snapshot:
// per-category filters, the merged timeline and the daily and weekly rollups.
//
// Everything here is a pure function of its inputs.
package dayview

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/storage"
)

// Day is every record of one canonical date.
type Day struct {
	Date    string           `json:"date"`
	Diet    []models.Diet    `json:"diet"`
	Workout []models.Workout `json:"workout"`
	Finance []models.Finance `json:"finance"`
	Coffee  []models.Coffee  `json:"coffee"`
	Memo    []models.Memo    `json:"memo"`
}

// TrendPoint is the calorie intake of one day relative to a reference day.
type TrendPoint struct {
	Offset   int     `json:"offset"`
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
}

// Aggregator computes projections with one date normalizer.
type Aggregator struct {
	norm *dates.Normalizer
}

// New returns an Aggregator. A nil norm uses the local time zone.
func New(norm *dates.Normalizer) *Aggregator {
	if norm == nil {
		norm = dates.Default()
	}
	return &Aggregator{norm: norm}
}

// ForDate filters every category to records whose normalized date equals
// the normalized date.
func (a *Aggregator) ForDate(snap storage.Snapshot, date any) Day {
	key := a.norm.Normalize(date)
	return Day{
		Date:    key,
		Diet:    onDay(a.norm, snap.Diet, key),
		Workout: onDay(a.norm, snap.Workout, key),
		Finance: onDay(a.norm, snap.Finance, key),
		Coffee:  onDay(a.norm, snap.Coffee, key),
		Memo:    onDay(a.norm, snap.Memo, key),
	}
}

func onDay[T models.Record](norm *dates.Normalizer, in []T, key string) []T {
	out := []T{}
	if key == "" {
		return out
	}
	for _, r := range in {
		if norm.Normalize(r.Day()) == key {
			out = append(out, r)
		}
	}
	return out
}

// DailyCalories sums diet calories of the day.
func DailyCalories(day Day) float64 {
	var sum float64
	for _, d := range day.Diet {
		sum += finite(d.Calories)
	}
	return sum
}

// DailyBurn sums workout calories of the day.
func DailyBurn(day Day) float64 {
	var sum float64
	for _, w := range day.Workout {
		sum += finite(w.Calories)
	}
	return sum
}

// DailySpend sums finance amounts of the day.
func DailySpend(day Day) decimal.Decimal {
	sum := decimal.Zero
	for _, f := range day.Finance {
		sum = sum.Add(f.Amount)
	}
	return sum
}

// WeeklySpend sums finance amounts dated from the Monday at or before ref
// through ref, inclusive.
func (a *Aggregator) WeeklySpend(finance []models.Finance, ref any) decimal.Decimal {
	end := a.norm.Normalize(ref)
	if _, ok := a.norm.Parse(end); !ok {
		return decimal.Zero
	}
	start := a.norm.WeekStart(end)

	sum := decimal.Zero
	for _, f := range finance {
		key := a.norm.Normalize(f.Date)
		if _, ok := a.norm.Parse(key); !ok {
			continue
		}
		// Canonical keys are zero-padded, so string order is date order.
		if key >= start && key <= end {
			sum = sum.Add(f.Amount)
		}
	}
	return sum
}

// WeeklyBudgetRemaining is the weekly budget minus spend. A negative
// result means the budget is overspent.
func WeeklyBudgetRemaining(settings models.Settings, weeklySpend decimal.Decimal) decimal.Decimal {
	return settings.WeeklyBudget.Sub(weeklySpend)
}

// WeeklyTrend returns seven points, six days before ref through ref.
func (a *Aggregator) WeeklyTrend(diet []models.Diet, ref any) []TrendPoint {
	end := a.norm.Normalize(ref)
	byDay := make(map[string]float64, 7)
	for _, d := range diet {
		byDay[a.norm.Normalize(d.Date)] += finite(d.Calories)
	}
	points := make([]TrendPoint, 0, 7)
	for offset := -6; offset <= 0; offset++ {
		key := a.norm.AddDays(end, offset)
		points = append(points, TrendPoint{Offset: offset, Date: key, Calories: byDay[key]})
	}
	return points
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
