package models

import (
	"time"
)

const ActivityTypeRun = "Run"

type Activity struct {
	ID         int64     `json:"id"`
	AthleteID  int64     `json:"athlete_id"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	DistanceM  float64   `json:"distance_m"`
	DurationS  int64     `json:"duration_s"`
	AvgPaceSKm *float64  `json:"avg_pace_s_km"`
	AvgHR      *float64  `json:"avg_hr"`
	Type       string    `json:"type"`
}

// PaceFromSpeed converts an average speed in m/s into seconds per km.
// Zero or negative speeds have no pace.
func PaceFromSpeed(speedMS float64) *float64 {
	if speedMS <= 0 {
		return nil
	}
	pace := 1000 / speedMS
	return &pace
}

type WeeklyVolume struct {
	Week      string    `json:"week"`
	WeekStart time.Time `json:"-"`
	Km        float64   `json:"km"`
}

type Summary struct {
	Activities   []Activity     `json:"activities"`
	WeeklyVolume []WeeklyVolume `json:"weeklyVolume"`
	CurrentPace  *float64       `json:"currentPace"`
	TotalRuns    int            `json:"totalRuns"`
	ThisWeekKm   float64        `json:"thisWeekKm"`
}

// EmptySummary is what readers get when there is nothing to aggregate.
func EmptySummary() Summary {
	return Summary{
		Activities:   []Activity{},
		WeeklyVolume: []WeeklyVolume{},
	}
}
