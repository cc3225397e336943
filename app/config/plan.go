package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// PlanConfig drives the offline plan generator.
//
//	athlete_id = 146666378
//	db_path = "db/stravadash.db"
//
//	[race_a]
//	date = 2026-04-16
//	name = "5.6km Race"
//	distance_m = 5600
//	target_pace_s_km = 270
//	notes = "Target sub-4:30/km"
//
//	[race_b]
//	date = 2026-04-19
//	name = "Half Marathon"
type PlanConfig struct {
	AthleteID int64      `toml:"athlete_id"`
	DBPath    string     `toml:"db_path"`
	RaceA     RaceConfig `toml:"race_a"`
	RaceB     RaceConfig `toml:"race_b"`
}

type RaceConfig struct {
	Date          time.Time `toml:"date"`
	Name          string    `toml:"name"`
	DistanceM     float64   `toml:"distance_m"`
	TargetPaceSKm float64   `toml:"target_pace_s_km"`
	Notes         string    `toml:"notes"`
}

func LoadPlanConfig(path string) (*PlanConfig, error) {
	var cfg PlanConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode plan config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("plan config %s: unknown keys %v", path, undecoded)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *PlanConfig) validate() error {
	if c.AthleteID == 0 {
		return errors.New("plan config: athlete_id is required")
	}
	if c.RaceA.Date.IsZero() || c.RaceB.Date.IsZero() {
		return errors.New("plan config: race_a.date and race_b.date are required")
	}
	if c.DBPath == "" {
		c.DBPath = "db/stravadash.db"
	}
	return nil
}
