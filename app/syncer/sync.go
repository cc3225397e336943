// Package syncer imports the athlete's runs from Strava into local storage.
package syncer

import (
	"context"
	"log/slog"
	"stravadash/app/credentials"
	"stravadash/app/metrics"
	"stravadash/app/storage/models"
	"stravadash/app/strava"
	"time"
)

const DefaultPageSize = 100

type ActivitySource interface {
	ListActivities(ctx context.Context, accessToken string, page, perPage int) ([]strava.SummaryActivity, error)
}

type ActivityWriter interface {
	UpsertActivities(ctx context.Context, activities []models.Activity) (int, error)
}

type Syncer struct {
	Tokens   credentials.TokenSource
	Source   ActivitySource
	Store    ActivityWriter
	Metrics  *metrics.Manager
	PageSize int
}

func NewSyncer(tokens credentials.TokenSource, source ActivitySource, store ActivityWriter, m *metrics.Manager) *Syncer {
	return &Syncer{
		Tokens:   tokens,
		Source:   source,
		Store:    store,
		Metrics:  m,
		PageSize: DefaultPageSize,
	}
}

// Sync walks the athlete's activity pages until an empty one and upserts
// every run. It returns the number of runs written. Pages committed before
// a failure stay committed.
func (s *Syncer) Sync(ctx context.Context, athleteID int64) (synced int, err error) {
	started := time.Now()
	defer func() {
		s.observe(started, err)
	}()

	token, err := s.Tokens.AccessToken(ctx, athleteID)
	if err != nil {
		slog.Error("cannot obtain strava access token", "athlete_id", athleteID, "err", err)
		return 0, err
	}

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	for page := 1; ; page++ {
		raw, err := s.Source.ListActivities(ctx, token, page, pageSize)
		if err != nil {
			slog.Error("activity page fetch failed", "athlete_id", athleteID, "page", page, "synced", synced, "err", err)
			return synced, err
		}
		s.countPage()
		if len(raw) == 0 {
			break
		}

		runs := ToActivities(raw, athleteID)
		slog.Debug("fetched activity page", "page", page, "activities", len(raw), "runs", len(runs))
		if len(runs) == 0 {
			continue
		}

		n, err := s.Store.UpsertActivities(ctx, runs)
		if err != nil {
			slog.Error("activity page upsert failed", "athlete_id", athleteID, "page", page, "synced", synced, "err", err)
			return synced, err
		}
		synced += n
		s.countActivities(n)
	}

	slog.Info("strava sync finished", "athlete_id", athleteID, "synced", synced, "took", time.Since(started))
	return synced, nil
}

// ToActivities keeps only runs and maps them into the stored shape.
func ToActivities(raw []strava.SummaryActivity, athleteID int64) []models.Activity {
	runs := make([]models.Activity, 0, len(raw))
	for _, a := range raw {
		if a.Type != models.ActivityTypeRun {
			continue
		}
		runs = append(runs, ToActivity(a, athleteID))
	}
	return runs
}

func ToActivity(a strava.SummaryActivity, athleteID int64) models.Activity {
	return models.Activity{
		ID:         a.ID,
		AthleteID:  athleteID,
		Name:       a.Name,
		StartDate:  a.StartDate,
		DistanceM:  a.Distance,
		DurationS:  a.MovingTime,
		AvgPaceSKm: models.PaceFromSpeed(a.AverageSpeed),
		AvgHR:      a.AverageHeartrate,
		Type:       a.Type,
	}
}

func (s *Syncer) observe(started time.Time, err error) {
	if s.Metrics == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
	}
	s.Metrics.CounterSyncs.WithLabelValues(status).Inc()
	s.Metrics.HistSyncDuration.Observe(time.Since(started).Seconds())
}

func (s *Syncer) countPage() {
	if s.Metrics != nil {
		s.Metrics.CounterPagesFetched.Inc()
	}
}

func (s *Syncer) countActivities(n int) {
	if s.Metrics != nil {
		s.Metrics.CounterActivitiesSynced.Add(float64(n))
	}
}
