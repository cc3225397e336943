package plan

import (
	"errors"
	"fmt"
	"stravadash/app/storage/models"
	"stravadash/app/utils"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRaceDates = errors.New("second race must be after the first race")

const (
	planLeadDays = 56

	baseWeeks    = 2
	buildWeeks   = 3
	sharpenWeeks = 2

	// days of taper work before the first race: interval, rest, easy, rest
	preRaceDays = 4
)

// Race describes what is written on a race day.
type Race struct {
	Name          string
	DistanceM     float64
	TargetPaceSKm float64
	Notes         string
}

var (
	DefaultRaceA = Race{Name: "🏁 5.6km Race", DistanceM: 5600, TargetPaceSKm: 270, Notes: "Target sub-4:30/km"}
	DefaultRaceB = Race{Name: "🏁 Half Marathon", DistanceM: 21097, TargetPaceSKm: 284, Notes: "Target 1:40:00"}
)

type Generator struct {
	AthleteID int64
	RaceA     Race
	RaceB     Race
	NewID     func() string
}

func NewGenerator(athleteID int64) *Generator {
	return &Generator{
		AthleteID: athleteID,
		RaceA:     DefaultRaceA,
		RaceB:     DefaultRaceB,
		NewID:     uuid.NewString,
	}
}

// session is one entry of a weekly template. Zero distance or pace means unset.
type session struct {
	kind  models.SessionType
	desc  string
	distM float64
	paceS float64
	notes string
}

func baseWeek(week int) []session {
	long := 14 + week*2
	return []session{
		{kind: models.SessionEasy, desc: "Easy run", distM: 8000, notes: "Conversational pace"},
		{kind: models.SessionInterval, desc: "6×800m @ 4:15/km", distM: 6000, paceS: 255, notes: "2min jog recovery between reps"},
		{kind: models.SessionRest, desc: "Rest or walk"},
		{kind: models.SessionTempo, desc: "Tempo 6km @ 4:44/km", distM: 6000, paceS: 284, notes: "HM goal pace"},
		{kind: models.SessionEasy, desc: "Easy run", distM: 6000},
		{kind: models.SessionLong, desc: fmt.Sprintf("Long run %dkm", long), distM: float64(long * 1000), notes: "Easy pace, build endurance"},
		{kind: models.SessionRest, desc: "Rest"},
	}
}

func buildWeek(week int) []session {
	long := 17 + week
	return []session{
		{kind: models.SessionEasy, desc: "Easy run", distM: 8000},
		{kind: models.SessionInterval, desc: "5×1km @ 4:20/km", distM: 8000, paceS: 260, notes: "90s jog recovery"},
		{kind: models.SessionRest, desc: "Rest"},
		{kind: models.SessionTempo, desc: "Tempo 8km @ 4:44/km", distM: 8000, paceS: 284, notes: "HM pace"},
		{kind: models.SessionEasy, desc: "Easy run", distM: 6000},
		{kind: models.SessionLong, desc: fmt.Sprintf("Long run %dkm", long), distM: float64(long * 1000), notes: "Peak long run"},
		{kind: models.SessionEasy, desc: "Recovery run", distM: 5000, notes: "Very easy"},
	}
}

func sharpenWeek(week int) []session {
	long := 13 + week
	return []session{
		{kind: models.SessionEasy, desc: "Easy run", distM: 7000},
		{kind: models.SessionInterval, desc: "3×1 mile @ 4:20/km", distM: 6000, paceS: 260, notes: "3min recovery"},
		{kind: models.SessionRest, desc: "Rest"},
		{kind: models.SessionTempo, desc: "10km @ 4:44/km", distM: 10000, paceS: 284, notes: "HM dress rehearsal"},
		{kind: models.SessionEasy, desc: "Easy + strides", distM: 5000, notes: "6×20s strides at end"},
		{kind: models.SessionLong, desc: fmt.Sprintf("Long run %dkm", long), distM: float64(long * 1000)},
		{kind: models.SessionRest, desc: "Rest"},
	}
}

var taperFiller = session{kind: models.SessionEasy, desc: "Easy run", distM: 5000, notes: "Keep legs fresh"}

var preRace = []session{
	{kind: models.SessionInterval, desc: "4×400m @ 4:10/km", distM: 2400, paceS: 250, notes: "Sharp but short"},
	{kind: models.SessionRest, desc: "Rest"},
	{kind: models.SessionEasy, desc: "Easy 3km + strides", distM: 3000, notes: "Last sharpener"},
	{kind: models.SessionRest, desc: "Rest", notes: "Day before race"},
}

var (
	betweenRaces = session{kind: models.SessionEasy, desc: "Easy recovery jog", distM: 3000, notes: "Flush legs between races"}
	beforeRaceB  = session{kind: models.SessionRest, desc: "Rest + prep", notes: "Day before HM"}
)

// PlanStart is the Monday on or before the day 8 weeks ahead of the first race.
func PlanStart(raceDateA time.Time) time.Time {
	return utils.StartOfWeek(calendarDay(raceDateA).AddDate(0, 0, -planLeadDays), time.UTC)
}

// Generate lays out one session per day from PlanStart through raceDateB:
// base, build and sharpen weeks followed by a taper anchored on both races.
func (g *Generator) Generate(raceDateA, raceDateB time.Time) ([]models.PlanDay, error) {
	raceA, raceB := calendarDay(raceDateA), calendarDay(raceDateB)
	if !raceB.After(raceA) {
		return nil, fmt.Errorf("%w: %s, %s", ErrInvalidRaceDates, raceA.Format(utils.DateLayout), raceB.Format(utils.DateLayout))
	}

	var sessions []session
	for w := 0; w < baseWeeks; w++ {
		sessions = append(sessions, baseWeek(w)...)
	}
	for w := 0; w < buildWeeks; w++ {
		sessions = append(sessions, buildWeek(w)...)
	}
	for w := 0; w < sharpenWeeks; w++ {
		sessions = append(sessions, sharpenWeek(w)...)
	}

	start := PlanStart(raceA)
	taperStart := start.AddDate(0, 0, len(sessions))
	for d := taperStart; d.Before(raceA.AddDate(0, 0, -preRaceDays)); d = d.AddDate(0, 0, 1) {
		sessions = append(sessions, taperFiller)
	}
	sessions = append(sessions, preRace...)
	sessions = append(sessions, g.raceSession(g.RaceA, DefaultRaceA))

	gap := daysBetween(raceA, raceB)
	for i := 1; i < gap-1; i++ {
		sessions = append(sessions, betweenRaces)
	}
	if gap > 1 {
		sessions = append(sessions, beforeRaceB)
	}
	sessions = append(sessions, g.raceSession(g.RaceB, DefaultRaceB))

	days := make([]models.PlanDay, 0, len(sessions))
	for i, s := range sessions {
		days = append(days, g.planDay(start.AddDate(0, 0, i), s))
	}
	return days, nil
}

func (g *Generator) raceSession(r, fallback Race) session {
	if r.Name == "" {
		r.Name = fallback.Name
	}
	if r.DistanceM == 0 {
		r.DistanceM = fallback.DistanceM
	}
	return session{
		kind:  models.SessionRace,
		desc:  r.Name,
		distM: r.DistanceM,
		paceS: r.TargetPaceSKm,
		notes: r.Notes,
	}
}

func (g *Generator) planDay(date time.Time, s session) models.PlanDay {
	newID := g.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	day := models.PlanDay{
		ID:          newID(),
		AthleteID:   g.AthleteID,
		Date:        date.Format(utils.DateLayout),
		SessionType: s.kind,
		Description: s.desc,
	}
	if s.distM > 0 {
		dist := s.distM
		day.TargetDistanceM = &dist
	}
	if s.paceS > 0 {
		pace := s.paceS
		day.TargetPaceSKm = &pace
	}
	if s.notes != "" {
		notes := s.notes
		day.Notes = &notes
	}
	return day
}

// calendarDay drops the clock and zone of t, keeping its calendar date.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
