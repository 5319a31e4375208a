package utils

import (
	"fmt"
	"math"
)

// DurationPlaceholder is shown while a track length is unknown.
const DurationPlaceholder = "--:--"

// IsValidDuration reports whether d is a finite, positive number of seconds.
func IsValidDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// FormatTime renders seconds as m:ss. Invalid or negative values render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Clamp01 limits v to [0, 1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
