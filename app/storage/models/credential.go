package models

import (
	"time"
)

type Credential struct {
	AthleteID    int64  `json:"athlete_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	AthleteName  string `json:"athlete_name"`
	AthletePhoto string `json:"athlete_photo"`
}

// Expired reports whether the access token can no longer be used at now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}
