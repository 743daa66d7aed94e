package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Record is one entry of any category. The concrete type is one of
// Diet, Workout, Finance, Coffee or Memo.
type Record interface {
	Category() Category
	// Day returns the canonical YYYY/MM/DD key.
	Day() string
	// Clock returns the HH:MM label.
	Clock() string
	// WithWhen returns a copy carrying the given day key and clock label.
	WithWhen(day, clock string) Record
}

// Diet is a meal entry.
type Diet struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

func (d Diet) Category() Category { return CategoryDiet }
func (d Diet) Day() string        { return d.Date }
func (d Diet) Clock() string      { return d.Time }

func (d Diet) WithWhen(day, clock string) Record {
	d.Date, d.Time = day, clock
	return d
}

// Workout is an exercise session.
type Workout struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Calories float64 `json:"calories"`
}

func (w Workout) Category() Category { return CategoryWorkout }
func (w Workout) Day() string        { return w.Date }
func (w Workout) Clock() string      { return w.Time }

func (w Workout) WithWhen(day, clock string) Record {
	w.Date, w.Time = day, clock
	return w
}

// Finance is an expense.
type Finance struct {
	Date       string          `json:"date"`
	Time       string          `json:"time"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	CategoryID string          `json:"categoryId"`
}

func (f Finance) Category() Category { return CategoryFinance }
func (f Finance) Day() string        { return f.Date }
func (f Finance) Clock() string      { return f.Time }

func (f Finance) WithWhen(day, clock string) Record {
	f.Date, f.Time = day, clock
	return f
}

// MarshalJSON writes the amount as a bare JSON number, which is what the
// sheet stores.
func (f Finance) MarshalJSON() ([]byte, error) {
	type alias Finance
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{alias: alias(f), Amount: json.Number(f.Amount.String())})
}

// Coffee is a brew log.
type Coffee struct {
	Date   string  `json:"date"`
	Time   string  `json:"time"`
	Bean   string  `json:"bean"`
	Method string  `json:"method"`
	Ratio  string  `json:"ratio"`
	Temp   float64 `json:"temp"`
	Water  float64 `json:"water"`
	Taste  string  `json:"taste"`
}

func (c Coffee) Category() Category { return CategoryCoffee }
func (c Coffee) Day() string        { return c.Date }
func (c Coffee) Clock() string      { return c.Time }

func (c Coffee) WithWhen(day, clock string) Record {
	c.Date, c.Time = day, clock
	return c
}

// Memo is a to-do item. It is the only category addressed by ID.
type Memo struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	ID      string `json:"id"`
	Content string `json:"content"`
	IsDone  bool   `json:"isDone"`
}

func (m Memo) Category() Category { return CategoryMemo }
func (m Memo) Day() string        { return m.Date }
func (m Memo) Clock() string      { return m.Time }

func (m Memo) WithWhen(day, clock string) Record {
	m.Date, m.Time = day, clock
	return m
}

// MemoPatch carries the memo fields an update may change. Nil fields are kept.
type MemoPatch struct {
	Content *string `json:"content,omitempty"`
	IsDone  *bool   `json:"isDone,omitempty"`
}

// Apply returns m with the non-nil fields of p applied.
func (p MemoPatch) Apply(m Memo) Memo {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.IsDone != nil {
		m.IsDone = *p.IsDone
	}
	return m
}

// Bulk is the full dataset returned by the remote store for one user.
type Bulk struct {
	Diet     []Diet
	Workout  []Workout
	Finance  []Finance
	Coffee   []Coffee
	Memo     []Memo
	Settings SettingsPatch
}

// Len returns the total number of records across categories.
func (b *Bulk) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Diet) + len(b.Workout) + len(b.Finance) + len(b.Coffee) + len(b.Memo)
}
