package models

type SessionType string

const (
	SessionEasy     SessionType = "easy"
	SessionTempo    SessionType = "tempo"
	SessionInterval SessionType = "interval"
	SessionLong     SessionType = "long"
	SessionRest     SessionType = "rest"
	SessionRace     SessionType = "race"
)

// PlanDay is one prescribed session. Date is a calendar date in YYYY-MM-DD form.
// Completed and ActualActivityID are computed on read and never stored.
type PlanDay struct {
	ID               string      `json:"id"`
	AthleteID        int64       `json:"-"`
	Date             string      `json:"date"`
	SessionType      SessionType `json:"session_type"`
	Description      string      `json:"description"`
	TargetDistanceM  *float64    `json:"target_distance_m"`
	TargetPaceSKm    *float64    `json:"target_pace_s_km"`
	Notes            *string     `json:"notes"`
	Completed        bool        `json:"completed"`
	ActualActivityID *int64      `json:"actual_activity_id"`
}

type PlanWeek struct {
	WeekStart      string    `json:"weekStart"`
	WeekLabel      string    `json:"weekLabel"`
	Days           []PlanDay `json:"days"`
	CompletionRate int       `json:"completionRate"`
}
