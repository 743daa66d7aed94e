package dayview

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/starford/lifeos/internal/models"
)

// Entry is one record of the merged day timeline with its display affordances.
type Entry struct {
	Category models.Category `json:"category"`
	Icon     string          `json:"icon"`
	Color    string          `json:"color"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Value    string          `json:"value"`
	Time     string          `json:"time"`
	Record   models.Record   `json:"record"`
}

type style struct {
	icon, color, subtitle string
}

var styles = map[models.Category]style{
	models.CategoryDiet:    {"Utensils", "accent-orange", "Intake"},
	models.CategoryWorkout: {"Dumbbell", "accent-blue", "Burned"},
	models.CategoryFinance: {"Wallet", "accent-green", "Expense"},
	models.CategoryCoffee:  {"Coffee", "accent-amber", "Brew"},
}

// Timeline merges diet, workout, finance and coffee entries of the day and
// orders them by time label. Equal labels keep insertion order.
func Timeline(day Day) []Entry {
	out := make([]Entry, 0, len(day.Diet)+len(day.Workout)+len(day.Finance)+len(day.Coffee))
	for _, r := range day.Diet {
		out = append(out, entry(r, r.Name, kcal(r.Calories)))
	}
	for _, r := range day.Workout {
		out = append(out, entry(r, r.Title, kcal(r.Calories)))
	}
	for _, r := range day.Finance {
		out = append(out, entry(r, r.Note, "-$"+r.Amount.String()))
	}
	for _, r := range day.Coffee {
		out = append(out, entry(r, r.Bean, r.Ratio))
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Time, b.Time)
	})
	return out
}

func entry(r models.Record, title, value string) Entry {
	st := styles[r.Category()]
	return Entry{
		Category: r.Category(),
		Icon:     st.icon,
		Color:    st.color,
		Title:    title,
		Subtitle: st.subtitle,
		Value:    value,
		Time:     r.Clock(),
		Record:   r,
	}
}

func kcal(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%s kcal", strconv.FormatFloat(v, 'f', -1, 64))
}
