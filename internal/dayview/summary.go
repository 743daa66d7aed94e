package dayview

import (
	"github.com/shopspring/decimal"

	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/storage"
)

// Summary is everything the dashboard home screen shows for one day.
type Summary struct {
	Date            string          `json:"date"`
	Timeline        []Entry         `json:"timeline"`
	Memo            []models.Memo   `json:"memo"`
	Calories        float64         `json:"calories"`
	CalorieTarget   float64         `json:"calorieTarget"`
	CalorieProgress float64         `json:"calorieProgress"`
	Burned          float64         `json:"burned"`
	Spend           decimal.Decimal `json:"spend"`
	WeeklySpend     decimal.Decimal `json:"weeklySpend"`
	WeeklyBudget    decimal.Decimal `json:"weeklyBudget"`
	WeeklyRemaining decimal.Decimal `json:"weeklyRemaining"`
	Trend           []TrendPoint    `json:"trend"`
}

// Summarize builds the Summary of date from snap.
func (a *Aggregator) Summarize(snap storage.Snapshot, date any) Summary {
	day := a.ForDate(snap, date)
	calories := DailyCalories(day)
	weekly := a.WeeklySpend(snap.Finance, day.Date)

	var progress float64
	if target := snap.Settings.DailyCalories; target > 0 {
		progress = calories / target
	}

	return Summary{
		Date:            day.Date,
		Timeline:        Timeline(day),
		Memo:            day.Memo,
		Calories:        calories,
		CalorieTarget:   snap.Settings.DailyCalories,
		CalorieProgress: progress,
		Burned:          DailyBurn(day),
		Spend:           DailySpend(day),
		WeeklySpend:     weekly,
		WeeklyBudget:    snap.Settings.WeeklyBudget,
		WeeklyRemaining: WeeklyBudgetRemaining(snap.Settings, weekly),
		Trend:           a.WeeklyTrend(snap.Diet, day.Date),
	}
}
