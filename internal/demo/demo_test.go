package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-portfolio/backend/internal/storage/models"
)

func TestSlider(t *testing.T) {
	tests := []struct {
		tenure     int
		wantTenure int
		wantProb   float64
	}{
		{0, 0, 1},
		{12, 12, 0.8},
		{30, 30, 0.5},
		{60, 60, 0},
		{75, 60, 0},
		{-5, 0, 1},
	}

	for _, tt := range tests {
		res := Slider(tt.tenure)
		require.NotNil(t, res.ChurnProbability)
		assert.Equal(t, tt.wantTenure, *res.TenureMonths)
		assert.InDelta(t, tt.wantProb, *res.ChurnProbability, 1e-9, "tenure %d", tt.tenure)
		assert.True(t, res.Simulated)
	}

	assert.Equal(t, "Predicted Churn Probability: 80.00%", Slider(12).Message)
}

func TestText(t *testing.T) {
	res := Text("Senior data scientist, Python, SQL")
	require.NotNil(t, res.MatchScore)
	assert.InDelta(t, 0.85, *res.MatchScore, 1e-9)

	res = Text("   ")
	assert.Nil(t, res.MatchScore)
	assert.Equal(t, "Waiting for input...", res.Message)
}

func TestRun(t *testing.T) {
	res, err := Run(models.DemoSlider, Input{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTenureMonths, *res.TenureMonths)

	tenure := 45
	res, err = Run(models.DemoSlider, Input{TenureMonths: &tenure})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, *res.ChurnProbability, 1e-9)

	res, err = Run(models.DemoText, Input{Text: "resume"})
	require.NoError(t, err)
	assert.NotNil(t, res.MatchScore)

	_, err = Run(models.DemoNone, Input{})
	assert.ErrorIs(t, err, ErrNoDemo)
}
