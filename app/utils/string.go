package utils

import (
	"fmt"
	"math"
)

const (
	PaceGreen   = "green"
	PaceAmber   = "amber"
	PaceRed     = "red"
	PaceUnknown = "unknown"
)

// FormatPace renders seconds per km as "m:ss /km".
func FormatPace(secondsPerKm *float64) string {
	if secondsPerKm == nil || *secondsPerKm <= 0 {
		return "—"
	}
	total := int(math.Round(*secondsPerKm))
	return fmt.Sprintf("%d:%02d /km", total/60, total%60)
}

// FormatDuration renders seconds as "h:mm:ss", or "m:ss" under an hour.
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func FormatDistance(metres float64) string {
	return fmt.Sprintf("%.1f km", metres/1000)
}

// PaceStatus compares a pace with a target pace (both s/km, lower is faster).
// Up to 5s/km slower is still green, up to 15s/km amber.
func PaceStatus(current *float64, target float64) string {
	if current == nil || *current <= 0 {
		return PaceUnknown
	}
	diff := *current - target
	switch {
	case diff <= 5:
		return PaceGreen
	case diff <= 15:
		return PaceAmber
	default:
		return PaceRed
	}
}
