package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lifeos/internal/dayview"
	"github.com/starford/lifeos/internal/models"
)

// LoginRequest is the request body of POST /session.
type LoginRequest struct {
	UserID string `json:"userId" example:"alice"`
}

// Validate implements validation.Validatable.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(1, 128)),
	)
}

// InBodyRequest is the request body of POST /settings/inbody.
type InBodyRequest struct {
	Target float64 `json:"target" example:"1680"`
}

// Validate implements validation.Validatable.
func (r InBodyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Target, validation.Required, validation.Min(1.0), validation.Max(20000.0)),
	)
}

// SessionResponse describes the login state.
type SessionResponse struct {
	State   string `json:"state" example:"active"`
	UserID  string `json:"userId,omitempty" example:"alice"`
	Pending int    `json:"pending" example:"0"`
}

// WritesResponse reports in-flight remote writes.
type WritesResponse struct {
	Pending int `json:"pending" example:"2"`
}

// TimelineResponse wraps a day's timeline.
type TimelineResponse struct {
	Date    string          `json:"date" example:"2024/03/07"`
	Entries []dayview.Entry `json:"entries"`
}

// RecordResponse wraps a freshly added record.
type RecordResponse struct {
	Category models.Category `json:"category" example:"diet"`
	Record   models.Record   `json:"record"`
}

// FoodAnalysisResponse is returned by POST /analyze/food.
type FoodAnalysisResponse struct {
	Draft models.Diet `json:"draft"`
	Saved bool        `json:"saved"`
}
