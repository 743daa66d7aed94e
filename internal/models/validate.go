package models

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var dayKey = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)

// An empty date is allowed everywhere: it means today.

func (d Diet) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Date, validation.Match(dayKey).Error("must be a valid date")),
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Calories, validation.Min(0.0)),
		validation.Field(&d.Protein, validation.Min(0.0)),
	)
}

func (w Workout) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Date, validation.Match(dayKey).Error("must be a valid date")),
		validation.Field(&w.Title, validation.Required),
		validation.Field(&w.Duration, validation.Min(0.0)),
		validation.Field(&w.Calories, validation.Min(0.0)),
	)
}

func (f Finance) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Date, validation.Match(dayKey).Error("must be a valid date")),
		validation.Field(&f.Amount, validation.By(nonZeroMoney)),
	)
}

func (c Coffee) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Date, validation.Match(dayKey).Error("must be a valid date")),
		validation.Field(&c.Bean, validation.Required),
	)
}

func (m Memo) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Date, validation.Match(dayKey).Error("must be a valid date")),
		validation.Field(&m.Content, validation.Required),
	)
}

func nonZeroMoney(v any) error {
	if d, ok := v.(decimal.Decimal); ok && d.IsZero() {
		return errors.New("cannot be zero")
	}
	return nil
}
