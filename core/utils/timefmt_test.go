package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{-3, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
		{3725, "62:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in), "FormatTime(%v)", tt.in)
	}
}

func TestIsValidDuration(t *testing.T) {
	assert.True(t, IsValidDuration(0.1))
	assert.False(t, IsValidDuration(0))
	assert.False(t, IsValidDuration(-1))
	assert.False(t, IsValidDuration(math.NaN()))
	assert.False(t, IsValidDuration(math.Inf(1)))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.25, Clamp01(0.25))
	assert.Equal(t, 1.0, Clamp01(4))
}
