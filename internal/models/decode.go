package models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DayFunc canonicalizes a raw date value into a day key.
type DayFunc func(v any) string

// Decode builds a typed record of category c from a loosely typed object,
// as produced by the remote sheet or a JSON request body.
//
// Numeric fields that are missing, empty or not numbers decode to zero;
// decoding never fails because of field content.
func Decode(c Category, raw map[string]any, day DayFunc) (Record, bool) {
	date := day(raw["date"])
	clock := Text(raw["time"])
	switch c {
	case CategoryDiet:
		return Diet{
			Date:     date,
			Time:     clock,
			Name:     Text(raw["name"]),
			Calories: Number(raw["calories"]),
			Protein:  Number(raw["protein"]),
		}, true
	case CategoryWorkout:
		return Workout{
			Date:     date,
			Time:     clock,
			Title:    Text(raw["title"]),
			Duration: Number(raw["duration"]),
			Calories: Number(raw["calories"]),
		}, true
	case CategoryFinance:
		return Finance{
			Date:       date,
			Time:       clock,
			Amount:     Money(raw["amount"]),
			Note:       Text(raw["note"]),
			CategoryID: Text(raw["categoryId"]),
		}, true
	case CategoryCoffee:
		return Coffee{
			Date:   date,
			Time:   clock,
			Bean:   Text(raw["bean"]),
			Method: Text(raw["method"]),
			Ratio:  Text(raw["ratio"]),
			Temp:   Number(raw["temp"]),
			Water:  Number(raw["water"]),
			Taste:  Text(raw["taste"]),
		}, true
	case CategoryMemo:
		return Memo{
			Date:    date,
			Time:    clock,
			ID:      Text(raw["id"]),
			Content: Text(raw["content"]),
			IsDone:  cast.ToBool(raw["isDone"]),
		}, true
	}
	return nil, false
}

// DecodeBulk builds a Bulk from the "data" object of a getAllData response.
// A category whose value is not an array decodes as empty.
func DecodeBulk(data map[string]any, day DayFunc) *Bulk {
	b := &Bulk{}
	for _, c := range Categories {
		items, _ := data[string(c)].([]any)
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rec, _ := Decode(c, obj, day)
			switch r := rec.(type) {
			case Diet:
				b.Diet = append(b.Diet, r)
			case Workout:
				b.Workout = append(b.Workout, r)
			case Finance:
				b.Finance = append(b.Finance, r)
			case Coffee:
				b.Coffee = append(b.Coffee, r)
			case Memo:
				b.Memo = append(b.Memo, r)
			}
		}
	}
	if s, ok := data["settings"].(map[string]any); ok {
		b.Settings = DecodeSettingsPatch(s)
	}
	return b
}

// DecodeSettingsPatch keeps only the keys present in raw.
func DecodeSettingsPatch(raw map[string]any) SettingsPatch {
	var p SettingsPatch
	if v, ok := raw["name"]; ok {
		s := Text(v)
		p.Name = &s
	}
	if v, ok := raw["dailyCalories"]; ok {
		f := Number(v)
		p.DailyCalories = &f
	}
	if v, ok := raw["dailyWater"]; ok {
		f := Number(v)
		p.DailyWater = &f
	}
	if v, ok := raw["weeklyBudget"]; ok {
		d := Money(v)
		p.WeeklyBudget = &d
	}
	return p
}

// DecodeMemoPatch keeps only the keys present in raw.
func DecodeMemoPatch(raw map[string]any) MemoPatch {
	var p MemoPatch
	if v, ok := raw["content"]; ok {
		s := Text(v)
		p.Content = &s
	}
	if v, ok := raw["isDone"]; ok {
		b := cast.ToBool(v)
		p.IsDone = &b
	}
	return p
}

// Number coerces v to a finite float64; anything else is 0.
func Number(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Money coerces v to a decimal amount; anything non-numeric is zero.
func Money(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	f := Number(v)
	if f == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Text renders v as a string; nil is "".
func Text(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
