package scoring_test

import (
	"testing"

	"github.com/outfity/trend-radar/internal/scoring"
	"github.com/stretchr/testify/assert"
)

func TestInitialScore(t *testing.T) {
	tests := []struct {
		name   string
		growth *float64
		label  *string
		want   int
	}{
		{"no signals yields the baseline", nil, nil, 50},
		{"growth adds half its value", floatPtr(20), nil, 60},
		{"growth bonus capped at 30", floatPtr(100), nil, 80},
		{"label adds a flat bonus", nil, strPtr("rising"), 60},
		{"empty label adds nothing", nil, strPtr(""), 50},
		{"combined signals clamped to 100", floatPtr(100), strPtr("hot"), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoring.InitialScore(tt.growth, tt.label))
		})
	}
}

func TestSaturability(t *testing.T) {
	tests := []struct {
		name     string
		growth   *float64
		markdown *float64
		want     int
	}{
		{"no signals yields the baseline", nil, nil, 50},
		{"growth lowers saturation", floatPtr(40), nil, 30},
		{"growth reduction capped", floatPtr(100), nil, 20},
		{"markdown raises saturation", nil, floatPtr(30), 65},
		{"markdown bonus capped", nil, floatPtr(80), 70},
		{"zero markdown is ignored", nil, floatPtr(0), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoring.Saturability(tt.growth, tt.markdown))
		})
	}
}

func strPtr(s string) *string { return &s }
