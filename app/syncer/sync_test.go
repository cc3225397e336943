package syncer

import (
	"context"
	"errors"
	"stravadash/app/credentials"
	"stravadash/app/metrics"
	"stravadash/app/mocks"
	"stravadash/app/storage"
	"stravadash/app/storage/models"
	"stravadash/app/strava"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const athleteID = int64(146666378)

func run(id int64, speed float64) strava.SummaryActivity {
	return strava.SummaryActivity{
		ID:           id,
		Name:         "Morning Run",
		Type:         "Run",
		StartDate:    time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC),
		Distance:     10000,
		MovingTime:   2500,
		ElapsedTime:  2600,
		AverageSpeed: speed,
	}
}

func ride(id int64) strava.SummaryActivity {
	a := run(id, 8)
	a.Type = "Ride"
	return a
}

func runs(from, n int64) []strava.SummaryActivity {
	out := make([]strava.SummaryActivity, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, run(from+i, 4))
	}
	return out
}

type fixture struct {
	tokens  *mocks.TokenSource
	source  *mocks.Strava
	store   *mocks.Store
	metrics *metrics.Manager
	syncer  *Syncer
}

func newFixture() *fixture {
	f := &fixture{
		tokens:  new(mocks.TokenSource),
		source:  new(mocks.Strava),
		store:   new(mocks.Store),
		metrics: metrics.NewTestManager(),
	}
	f.syncer = NewSyncer(f.tokens, f.source, f.store, f.metrics)
	f.tokens.On("AccessToken", mock.Anything, athleteID).Return("token", nil)
	return f
}

func TestSync_PaginatesUntilEmptyPage(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).Return(runs(1, 100), nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 2, 100).Return(runs(101, 100), nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 3, 100).Return(runs(201, 17), nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 4, 100).Return([]strava.SummaryActivity{}, nil).Once()
	f.store.On("UpsertActivities", mock.Anything, mock.MatchedBy(func(a []models.Activity) bool { return len(a) == 100 })).Return(100, nil).Twice()
	f.store.On("UpsertActivities", mock.Anything, mock.MatchedBy(func(a []models.Activity) bool { return len(a) == 17 })).Return(17, nil).Once()

	synced, err := f.syncer.Sync(context.Background(), athleteID)
	require.NoError(t, err)
	assert.Equal(t, 217, synced)
	f.source.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.source.AssertNotCalled(t, "ListActivities", mock.Anything, mock.Anything, 5, mock.Anything)

	assert.Equal(t, float64(4), testutil.ToFloat64(f.metrics.CounterPagesFetched))
	assert.Equal(t, float64(217), testutil.ToFloat64(f.metrics.CounterActivitiesSynced))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CounterSyncs.WithLabelValues(metrics.StatusSuccess)))
}

func TestSync_EmptyFirstPage(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).Return([]strava.SummaryActivity{}, nil).Once()

	synced, err := f.syncer.Sync(context.Background(), athleteID)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	f.store.AssertNotCalled(t, "UpsertActivities", mock.Anything, mock.Anything)
}

func TestSync_FiltersNonRunsAndSkipsRunlessPage(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).
		Return([]strava.SummaryActivity{run(1, 4), ride(2), run(3, 0)}, nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 2, 100).
		Return([]strava.SummaryActivity{ride(4)}, nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 3, 100).
		Return([]strava.SummaryActivity{}, nil).Once()
	f.store.On("UpsertActivities", mock.Anything, mock.MatchedBy(func(a []models.Activity) bool {
		return len(a) == 2 && a[0].ID == 1 && a[1].ID == 3
	})).Return(2, nil).Once()

	synced, err := f.syncer.Sync(context.Background(), athleteID)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	f.store.AssertNumberOfCalls(t, "UpsertActivities", 1)
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).Return(runs(1, 3), nil)
	f.source.On("ListActivities", mock.Anything, "token", 2, 100).Return([]strava.SummaryActivity{}, nil)

	var written [][]models.Activity
	f.store.On("UpsertActivities", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = append(written, args.Get(1).([]models.Activity))
	}).Return(3, nil)

	first, err := f.syncer.Sync(context.Background(), athleteID)
	require.NoError(t, err)
	second, err := f.syncer.Sync(context.Background(), athleteID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, written, 2)
	assert.Equal(t, written[0], written[1])
}

func TestSync_TokenFailureAbortsBeforeFetch(t *testing.T) {
	f := &fixture{
		tokens: new(mocks.TokenSource),
		source: new(mocks.Strava),
		store:  new(mocks.Store),
	}
	f.syncer = NewSyncer(f.tokens, f.source, f.store, metrics.NewTestManager())
	f.tokens.On("AccessToken", mock.Anything, athleteID).Return("", credentials.ErrAuthenticationExpired)

	synced, err := f.syncer.Sync(context.Background(), athleteID)
	require.ErrorIs(t, err, credentials.ErrAuthenticationExpired)
	assert.Equal(t, 0, synced)
	f.source.AssertNotCalled(t, "ListActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_FetchFailureKeepsEarlierPages(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).Return(runs(1, 100), nil).Once()
	f.source.On("ListActivities", mock.Anything, "token", 2, 100).
		Return(nil, errors.Join(strava.ErrUpstreamFetch, errors.New("503"))).Once()
	f.store.On("UpsertActivities", mock.Anything, mock.Anything).Return(100, nil).Once()

	synced, err := f.syncer.Sync(context.Background(), athleteID)
	require.ErrorIs(t, err, strava.ErrUpstreamFetch)
	assert.Equal(t, 100, synced)
	f.store.AssertNumberOfCalls(t, "UpsertActivities", 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CounterSyncs.WithLabelValues(metrics.StatusFailure)))
}

func TestSync_WriteFailureAborts(t *testing.T) {
	f := newFixture()
	f.source.On("ListActivities", mock.Anything, "token", 1, 100).Return(runs(1, 5), nil).Once()
	f.store.On("UpsertActivities", mock.Anything, mock.Anything).Return(0, storage.ErrWriteFailed).Once()

	_, err := f.syncer.Sync(context.Background(), athleteID)
	require.ErrorIs(t, err, storage.ErrWriteFailed)
	f.source.AssertNumberOfCalls(t, "ListActivities", 1)
}

func TestToActivity_Mapping(t *testing.T) {
	hr := 151.2
	raw := run(99, 4.0)
	raw.AverageHeartrate = &hr

	a := ToActivity(raw, athleteID)
	assert.Equal(t, int64(99), a.ID)
	assert.Equal(t, athleteID, a.AthleteID)
	assert.Equal(t, int64(2500), a.DurationS)
	assert.Equal(t, 10000.0, a.DistanceM)
	require.NotNil(t, a.AvgPaceSKm)
	assert.Equal(t, 250.0, *a.AvgPaceSKm)
	require.NotNil(t, a.AvgHR)
	assert.Equal(t, 151.2, *a.AvgHR)

	still := ToActivity(run(100, 0), athleteID)
	assert.Nil(t, still.AvgPaceSKm)
	assert.Nil(t, still.AvgHR)
}
