package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Settings is the per-user profile singleton.
type Settings struct {
	Name          string          `json:"name"`
	DailyCalories float64         `json:"dailyCalories"`
	DailyWater    float64         `json:"dailyWater"`
	WeeklyBudget  decimal.Decimal `json:"weeklyBudget"`
}

// MarshalJSON writes the budget as a bare JSON number.
func (s Settings) MarshalJSON() ([]byte, error) {
	type alias Settings
	return json.Marshal(struct {
		alias
		WeeklyBudget json.Number `json:"weeklyBudget"`
	}{alias: alias(s), WeeklyBudget: json.Number(s.WeeklyBudget.String())})
}

// SettingsPatch is a shallow update of Settings. Nil fields are kept.
type SettingsPatch struct {
	Name          *string          `json:"name,omitempty"`
	DailyCalories *float64         `json:"dailyCalories,omitempty"`
	DailyWater    *float64         `json:"dailyWater,omitempty"`
	WeeklyBudget  *decimal.Decimal `json:"weeklyBudget,omitempty"`
}

// Apply returns s with the non-nil fields of p merged in.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.DailyCalories != nil {
		s.DailyCalories = *p.DailyCalories
	}
	if p.DailyWater != nil {
		s.DailyWater = *p.DailyWater
	}
	if p.WeeklyBudget != nil {
		s.WeeklyBudget = *p.WeeklyBudget
	}
	return s
}

// Empty reports whether p changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.Name == nil && p.DailyCalories == nil && p.DailyWater == nil && p.WeeklyBudget == nil
}

// Full returns a patch that sets every field of s.
func (s Settings) Full() SettingsPatch {
	return SettingsPatch{
		Name:          &s.Name,
		DailyCalories: &s.DailyCalories,
		DailyWater:    &s.DailyWater,
		WeeklyBudget:  &s.WeeklyBudget,
	}
}

// MarshalJSON writes only the fields present in p.
func (p SettingsPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.DailyCalories != nil {
		out["dailyCalories"] = *p.DailyCalories
	}
	if p.DailyWater != nil {
		out["dailyWater"] = *p.DailyWater
	}
	if p.WeeklyBudget != nil {
		out["weeklyBudget"] = json.Number(p.WeeklyBudget.String())
	}
	return json.Marshal(out)
}
