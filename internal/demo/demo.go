// Package demo backs the interactive placeholders shown next to a project.
// The numbers are simulated, not model output.
package demo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ai-portfolio/backend/internal/storage/models"
)

const (
	MaxTenureMonths     = 60
	DefaultTenureMonths = 12
	simulatedMatchScore = 0.85
)

var ErrNoDemo = errors.New("project has no interactive demo")

type Input struct {
	TenureMonths *int   `json:"tenure_months,omitempty"`
	Text         string `json:"text,omitempty"`
}

type Result struct {
	DemoType         models.DemoType `json:"demo_type"`
	TenureMonths     *int            `json:"tenure_months,omitempty"`
	ChurnProbability *float64        `json:"churn_probability,omitempty"`
	MatchScore       *float64        `json:"match_score,omitempty"`
	Simulated        bool            `json:"simulated"`
	Message          string          `json:"message"`
}

func Run(demoType models.DemoType, in Input) (*Result, error) {
	switch demoType {
	case models.DemoSlider:
		tenure := DefaultTenureMonths
		if in.TenureMonths != nil {
			tenure = *in.TenureMonths
		}
		return Slider(tenure), nil
	case models.DemoText:
		return Text(in.Text), nil
	default:
		return nil, ErrNoDemo
	}
}

// Slider clamps tenure to [0, 60] months and maps it linearly to a churn
// probability that falls to zero at five years.
func Slider(tenure int) *Result {
	tenure = max(0, min(MaxTenureMonths, tenure))
	prob := max(0, 1-float64(tenure)/MaxTenureMonths)

	return &Result{
		DemoType:         models.DemoSlider,
		TenureMonths:     &tenure,
		ChurnProbability: &prob,
		Simulated:        true,
		Message:          fmt.Sprintf("Predicted Churn Probability: %.2f%%", prob*100),
	}
}

func Text(input string) *Result {
	res := &Result{DemoType: models.DemoText, Simulated: true}
	if strings.TrimSpace(input) == "" {
		res.Message = "Waiting for input..."
		return res
	}

	score := simulatedMatchScore
	res.MatchScore = &score
	res.Message = "Match Score: 85% (Simulated Output)"
	return res
}
