package plan

import (
	"fmt"
	"stravadash/app/storage/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPlanStart(t *testing.T) {
	// 56 days before Thu 2026-04-16 is Thu 2026-02-19.
	assert.Equal(t, date("2026-02-16"), PlanStart(date("2026-04-16")))
	// 56 days before a Monday is a Monday.
	assert.Equal(t, date("2026-02-16"), PlanStart(date("2026-04-13")))
}

func TestGenerate_OneDayPerDateAnchoredOnRaces(t *testing.T) {
	days, err := NewGenerator(42).Generate(date("2026-04-16"), date("2026-04-19"))
	require.NoError(t, err)
	require.Len(t, days, 63)

	start := date("2026-02-16")
	seen := map[string]bool{}
	for i, d := range days {
		assert.Equal(t, start.AddDate(0, 0, i).Format("2006-01-02"), d.Date)
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.Equal(t, int64(42), d.AthleteID)
		assert.False(t, d.Completed)
	}

	assert.Equal(t, "2026-02-16", days[0].Date)
	assert.Equal(t, "2026-04-19", days[len(days)-1].Date)

	raceA := days[59]
	assert.Equal(t, "2026-04-16", raceA.Date)
	assert.Equal(t, models.SessionRace, raceA.SessionType)
	assert.Equal(t, "🏁 5.6km Race", raceA.Description)
	assert.Equal(t, 5600.0, *raceA.TargetDistanceM)
	assert.Equal(t, 270.0, *raceA.TargetPaceSKm)

	raceB := days[62]
	assert.Equal(t, models.SessionRace, raceB.SessionType)
	assert.Equal(t, 21097.0, *raceB.TargetDistanceM)

	assert.Equal(t, "Easy recovery jog", days[60].Description)
	assert.Equal(t, models.SessionRest, days[61].SessionType)
	assert.Equal(t, "Day before HM", *days[61].Notes)
	assert.Equal(t, "Day before race", *days[58].Notes)
	assert.Equal(t, "4×400m @ 4:10/km", days[55].Description)
}

func TestGenerate_PhaseTemplates(t *testing.T) {
	days, err := NewGenerator(42).Generate(date("2026-04-16"), date("2026-04-19"))
	require.NoError(t, err)

	weekdays := []models.SessionType{
		models.SessionEasy, models.SessionInterval, models.SessionRest, models.SessionTempo,
		models.SessionEasy, models.SessionLong,
	}
	for w := 0; w < 7; w++ {
		for i, kind := range weekdays {
			assert.Equal(t, kind, days[w*7+i].SessionType, "week %d day %d", w, i)
		}
		assert.Equal(t, "Monday", date(days[w*7].Date).Weekday().String())
	}

	longRuns := []float64{14, 16, 17, 18, 19, 13, 14}
	for w, km := range longRuns {
		long := days[w*7+5]
		assert.Equal(t, fmt.Sprintf("Long run %.0fkm", km), long.Description)
		assert.Equal(t, km*1000, *long.TargetDistanceM)
	}

	// build weeks end with a recovery run, the others rest
	assert.Equal(t, models.SessionRest, days[6].SessionType)
	assert.Equal(t, "Recovery run", days[20].Description)
	assert.Equal(t, models.SessionRest, days[48].SessionType)

	// taper fillers until four days before the first race
	for i := 49; i < 55; i++ {
		assert.Equal(t, "Keep legs fresh", *days[i].Notes)
	}

	rest := days[2]
	assert.Nil(t, rest.TargetDistanceM)
	assert.Nil(t, rest.TargetPaceSKm)
	assert.Nil(t, rest.Notes)
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(42)
	n := 0
	g.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}

	first, err := g.Generate(date("2026-04-16"), date("2026-04-19"))
	require.NoError(t, err)
	n = 0
	second, err := g.Generate(date("2026-04-16"), date("2026-04-19"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_RacesOnConsecutiveDays(t *testing.T) {
	days, err := NewGenerator(42).Generate(date("2026-04-18"), date("2026-04-19"))
	require.NoError(t, err)

	last := days[len(days)-2:]
	assert.Equal(t, "2026-04-18", last[0].Date)
	assert.Equal(t, models.SessionRace, last[0].SessionType)
	assert.Equal(t, models.SessionRace, last[1].SessionType)
}

func TestGenerate_LongGapBetweenRaces(t *testing.T) {
	days, err := NewGenerator(42).Generate(date("2026-04-16"), date("2026-04-23"))
	require.NoError(t, err)

	n := len(days)
	assert.Equal(t, "2026-04-23", days[n-1].Date)
	assert.Equal(t, "Day before HM", *days[n-2].Notes)
	for _, d := range days[n-7 : n-2] {
		assert.Equal(t, "Easy recovery jog", d.Description)
	}
}

func TestGenerate_CustomRaces(t *testing.T) {
	g := NewGenerator(42)
	g.RaceA = Race{Name: "🏁 10km", DistanceM: 10000, TargetPaceSKm: 265}
	g.RaceB = Race{}

	days, err := g.Generate(date("2026-04-16"), date("2026-04-19"))
	require.NoError(t, err)
	assert.Equal(t, "🏁 10km", days[59].Description)
	assert.Nil(t, days[59].Notes)
	assert.Equal(t, "🏁 Half Marathon", days[62].Description)
	assert.Nil(t, days[62].TargetPaceSKm)
}

func TestGenerate_InvalidRaceDates(t *testing.T) {
	_, err := NewGenerator(42).Generate(date("2026-04-19"), date("2026-04-19"))
	require.ErrorIs(t, err, ErrInvalidRaceDates)

	_, err = NewGenerator(42).Generate(date("2026-04-19"), date("2026-04-16"))
	require.ErrorIs(t, err, ErrInvalidRaceDates)
}
