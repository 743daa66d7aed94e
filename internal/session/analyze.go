package session

import (
	"context"
	"fmt"
	"math"

	"github.com/starford/lifeos/internal/apperr"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/models"
)

const (
	defaultWorkoutMinutes  = 60
	defaultWorkoutCalories = 300
	defaultExpenseNote     = "消費"
	defaultExpenseCategory = "gen"

	// kcal per kg of body weight used for the suggested daily target.
	kcalPerKg = 24
)

// InBody is the outcome of a body-composition scan.
type InBody struct {
	Weight  float64 `json:"weight"`
	BodyFat float64 `json:"bodyFat"`
	Target  float64 `json:"target"`
}

// AnalyzeFood asks the remote classifier for a meal draft. The draft is
// stamped with today and now but not recorded.
func (c *Controller) AnalyzeFood(ctx context.Context, image string) (models.Diet, error) {
	res, err := c.remote.Analyze(ctx, image, gateway.KindFood)
	if err != nil {
		return models.Diet{}, fmt.Errorf("session: analyze food: %w: %v", apperr.ErrAnalysisFailed, err)
	}
	d := models.Diet{
		Name:     models.Text(res["name"]),
		Calories: models.Number(res["calories"]),
		Protein:  models.Number(res["protein"]),
	}
	if d.Name == "" && d.Calories == 0 {
		return models.Diet{}, fmt.Errorf("session: analyze food: %w: empty result", apperr.ErrAnalysisFailed)
	}
	d.Date, d.Time = c.stamp("", "")
	return d, nil
}

// AnalyzeInBody reads weight and body fat from a scan and suggests a daily
// calorie target of round(weight*24).
func (c *Controller) AnalyzeInBody(ctx context.Context, image string) (InBody, error) {
	res, err := c.remote.Analyze(ctx, image, gateway.KindInBody)
	if err != nil {
		return InBody{}, fmt.Errorf("session: analyze inbody: %w: %v", apperr.ErrAnalysisFailed, err)
	}
	ib := InBody{
		Weight:  models.Number(res["weight"]),
		BodyFat: models.Number(res["pbf"]),
	}
	if ib.Weight <= 0 {
		return InBody{}, fmt.Errorf("session: analyze inbody: %w: no weight", apperr.ErrAnalysisFailed)
	}
	ib.Target = math.Round(ib.Weight * kcalPerKg)
	return ib, nil
}

// ApplyInBody saves target as the daily calorie goal.
func (c *Controller) ApplyInBody(target float64) (models.Settings, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return models.Settings{}, fmt.Errorf("session: apply inbody: %w: target must be positive", apperr.ErrInvalidInput)
	}
	return c.SaveSettings(models.SettingsPatch{DailyCalories: &target})
}
