// Package activities builds the dashboard summary over recently stored runs.
package activities

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"stravadash/app/storage/models"
	"stravadash/app/utils"
	"time"
)

const (
	WindowDays = 60
	RecentRuns = 5
)

type RunReader interface {
	GetRunsSince(ctx context.Context, athleteID int64, since time.Time) ([]models.Activity, error)
}

type Aggregator struct {
	Store RunReader
	Loc   *time.Location
}

func NewAggregator(store RunReader, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{Store: store, Loc: loc}
}

// Summary aggregates the runs started in the 60 days before asOf.
// On a read failure the empty summary is returned together with the error.
func (a *Aggregator) Summary(ctx context.Context, athleteID int64, asOf time.Time) (models.Summary, error) {
	since := asOf.AddDate(0, 0, -WindowDays)
	runs, err := a.Store.GetRunsSince(ctx, athleteID, since)
	if err != nil {
		slog.Error("cannot read runs for summary", "athlete_id", athleteID, "since", since, "err", err)
		return models.EmptySummary(), err
	}
	return Summarize(runs, asOf, a.Loc), nil
}

// Summarize is the pure part of Summary. runs must be ordered by start date.
func Summarize(runs []models.Activity, asOf time.Time, loc *time.Location) models.Summary {
	if len(runs) == 0 {
		return models.EmptySummary()
	}

	weekly := WeeklyVolume(runs, loc)
	thisWeek := utils.StartOfWeek(asOf, loc)
	var thisWeekKm float64
	for _, w := range weekly {
		if w.WeekStart.Equal(thisWeek) {
			thisWeekKm = w.Km
			break
		}
	}

	return models.Summary{
		Activities:   runs,
		WeeklyVolume: weekly,
		CurrentPace:  CurrentPace(runs),
		TotalRuns:    len(runs),
		ThisWeekKm:   thisWeekKm,
	}
}

// WeeklyVolume sums kilometres per Monday-started week in loc, oldest week first.
func WeeklyVolume(runs []models.Activity, loc *time.Location) []models.WeeklyVolume {
	meters := make(map[time.Time]float64)
	for _, r := range runs {
		meters[utils.StartOfWeek(r.StartDate, loc)] += r.DistanceM
	}

	weeks := make([]models.WeeklyVolume, 0, len(meters))
	for start, m := range meters {
		weeks = append(weeks, models.WeeklyVolume{
			Week:      utils.WeekLabel(start),
			WeekStart: start,
			Km:        roundTo1(m / 1000),
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.Before(weeks[j].WeekStart)
	})
	return weeks
}

// CurrentPace is the mean pace of the most recent runs that have a positive pace.
func CurrentPace(runs []models.Activity) *float64 {
	recent := make([]models.Activity, 0, len(runs))
	for _, r := range runs {
		if r.AvgPaceSKm != nil && *r.AvgPaceSKm > 0 {
			recent = append(recent, r)
		}
	}
	if len(recent) == 0 {
		return nil
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].StartDate.After(recent[j].StartDate)
	})
	if len(recent) > RecentRuns {
		recent = recent[:RecentRuns]
	}

	var sum float64
	for _, r := range recent {
		sum += *r.AvgPaceSKm
	}
	pace := sum / float64(len(recent))
	return &pace
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
