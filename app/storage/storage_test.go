package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"stravadash/app/storage/models"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &SQLiteStore{DB: db}, mock
}

func floatRef(f float64) *float64 {
	return &f
}

func TestSQLiteStore_UpsertActivities(t *testing.T) {
	store, mock := newMockStore(t)

	start := time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)
	activities := []models.Activity{
		{
			ID:         1,
			AthleteID:  123,
			Name:       "Morning Run",
			StartDate:  start,
			DistanceM:  10000,
			DurationS:  2500,
			AvgPaceSKm: floatRef(250),
			AvgHR:      floatRef(150.5),
			Type:       models.ActivityTypeRun,
		},
		{
			ID:        2,
			AthleteID: 123,
			Name:      "Treadmill",
			StartDate: start.Add(24 * time.Hour),
			DistanceM: 0,
			Type:      models.ActivityTypeRun,
		},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO activities"))
	prep.ExpectExec().
		WithArgs(int64(1), int64(123), "Morning Run", start, float64(10000), int64(2500), float64(250), 150.5, "Run").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(2), int64(123), "Treadmill", start.Add(24*time.Hour), float64(0), int64(0), nil, nil, "Run").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.UpsertActivities(context.Background(), activities)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_UpsertActivities_ExecFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO activities"))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := store.UpsertActivities(context.Background(), []models.Activity{{ID: 1, Type: models.ActivityTypeRun}})
	require.ErrorIs(t, err, ErrWriteFailed)
	require.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_UpsertActivities_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	n, err := store.UpsertActivities(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetRunsSince(t *testing.T) {
	store, mock := newMockStore(t)

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "athlete_id", "name", "start_date", "distance_m", "duration_s", "avg_pace_s_km", "avg_hr", "type"}).
		AddRow(int64(10), int64(123), "Easy", start, 8000.0, int64(2400), 300.0, nil, "Run").
		AddRow(int64(11), int64(123), nil, start.Add(time.Hour), 5000.0, int64(1500), nil, 140.0, "Run")

	mock.ExpectQuery(regexp.QuoteMeta("FROM activities WHERE athlete_id = ? AND type = ? AND start_date >= ? ORDER BY start_date ASC")).
		WithArgs(int64(123), "Run", since).
		WillReturnRows(rows)

	activities, err := store.GetRunsSince(context.Background(), 123, since)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	require.Equal(t, "Easy", activities[0].Name)
	require.NotNil(t, activities[0].AvgPaceSKm)
	require.Equal(t, 300.0, *activities[0].AvgPaceSKm)
	require.Nil(t, activities[0].AvgHR)
	require.Nil(t, activities[1].AvgPaceSKm)
	require.Equal(t, 140.0, *activities[1].AvgHR)
	require.Equal(t, "", activities[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetRunsSince_QueryFails(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("locked"))

	activities, err := store.GetRunsSince(context.Background(), 1, time.Now())
	require.ErrorIs(t, err, ErrReadFailed)
	require.Nil(t, activities)
}

func TestSQLiteStore_SaveCredential(t *testing.T) {
	store, mock := newMockStore(t)
	cred := &models.Credential{
		AthleteID:    123,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    1700000000,
		AthleteName:  "Jane Runner",
		AthletePhoto: "https://example.com/p.jpg",
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT(athlete_id) DO UPDATE SET")).
		WithArgs(int64(123), "access", "refresh", int64(1700000000), "Jane Runner", "https://example.com/p.jpg").
		WillReturnResult(sqlmock.NewResult(123, 1))

	require.NoError(t, store.SaveCredential(context.Background(), cred))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetCredential_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM credentials WHERE athlete_id = ?")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	cred, err := store.GetCredential(context.Background(), 9)
	require.ErrorIs(t, err, ErrCredentialNotFound)
	require.Nil(t, cred)
}

func TestSQLiteStore_GetCredential(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"athlete_id", "access_token", "refresh_token", "expires_at", "athlete_name", "athlete_photo"}).
		AddRow(int64(123), "access", "refresh", int64(1700000000), "Jane Runner", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM credentials WHERE athlete_id = ?")).
		WithArgs(int64(123)).
		WillReturnRows(rows)

	cred, err := store.GetCredential(context.Background(), 123)
	require.NoError(t, err)
	require.Equal(t, "access", cred.AccessToken)
	require.Equal(t, "Jane Runner", cred.AthleteName)
	require.Equal(t, "", cred.AthletePhoto)
}

func TestSQLiteStore_InsertPlanDays(t *testing.T) {
	store, mock := newMockStore(t)
	notes := "Conversational pace"
	days := []models.PlanDay{
		{ID: "a", AthleteID: 1, Date: "2026-02-16", SessionType: models.SessionEasy, Description: "Easy run", TargetDistanceM: floatRef(8000), Notes: &notes},
		{ID: "b", AthleteID: 1, Date: "2026-02-17", SessionType: models.SessionRest, Description: "Rest"},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO training_plan"))
	prep.ExpectExec().
		WithArgs("a", int64(1), "2026-02-16", "easy", "Easy run", float64(8000), nil, "Conversational pace").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("b", int64(1), "2026-02-17", "rest", "Rest", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := store.InsertPlanDays(context.Background(), days)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetPlanDays(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "athlete_id", "date", "session_type", "description", "target_distance_m", "target_pace_s_km", "notes"}).
		AddRow("a", int64(1), "2026-02-16", "tempo", "Tempo 6km", 6000.0, 284.0, "HM goal pace").
		AddRow("b", int64(1), "2026-02-17", "rest", "Rest", nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE athlete_id = ? AND date >= ? AND date < ? ORDER BY date ASC")).
		WithArgs(int64(1), "2026-02-16", "2026-04-13").
		WillReturnRows(rows)

	days, err := store.GetPlanDays(context.Background(), 1, "2026-02-16", "2026-04-13")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, models.SessionTempo, days[0].SessionType)
	require.Equal(t, 6000.0, *days[0].TargetDistanceM)
	require.Equal(t, "HM goal pace", *days[0].Notes)
	require.Nil(t, days[1].TargetDistanceM)
	require.Nil(t, days[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ReplacePlanDays(t *testing.T) {
	store, mock := newMockStore(t)
	days := []models.PlanDay{
		{ID: "a", AthleteID: 1, Date: "2026-02-16", SessionType: models.SessionRest, Description: "Rest"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM training_plan")).
		WithArgs(int64(1), "2026-02-16", "2026-04-20").
		WillReturnResult(sqlmock.NewResult(0, 63))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO training_plan"))
	prep.ExpectExec().
		WithArgs("a", int64(1), "2026-02-16", "rest", "Rest", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := store.ReplacePlanDays(context.Background(), 1, "2026-02-16", "2026-04-20", days)
	require.NoError(t, err)
	require.Equal(t, int64(63), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ReplacePlanDays_InsertFailsRollsBackDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM training_plan")).
		WillReturnResult(sqlmock.NewResult(0, 63))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO training_plan"))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.ReplacePlanDays(context.Background(), 1, "2026-02-16", "2026-04-20", []models.PlanDay{{ID: "a", AthleteID: 1, Date: "2026-02-16"}})
	require.ErrorIs(t, err, ErrWriteFailed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newFileStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := &SQLiteStore{}
	require.NoError(t, store.Connect(filepath.Join(t.TempDir(), "stravadash.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_File_UpsertIsIdempotent(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)
	batch := []models.Activity{
		{ID: 1, AthleteID: 7, Name: "Morning Run", StartDate: start, DistanceM: 10000, DurationS: 2500, AvgPaceSKm: floatRef(250), Type: models.ActivityTypeRun},
		{ID: 2, AthleteID: 7, Name: "Recovery", StartDate: start.Add(24 * time.Hour), DistanceM: 5000, DurationS: 1600, Type: models.ActivityTypeRun},
	}

	_, err := store.UpsertActivities(ctx, batch)
	require.NoError(t, err)

	batch[0].Name = "Renamed Run"
	batch[0].DistanceM = 10200
	n, err := store.UpsertActivities(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	runs, err := store.GetRunsSince(ctx, 7, start)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, int64(1), runs[0].ID)
	require.True(t, runs[0].StartDate.Equal(start))
	require.Equal(t, "Renamed Run", runs[0].Name)
	require.Equal(t, 10200.0, runs[0].DistanceM)
	require.Equal(t, 250.0, *runs[0].AvgPaceSKm)
	require.Nil(t, runs[1].AvgPaceSKm)

	runs, err = store.GetRunsSince(ctx, 7, start.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, int64(2), runs[0].ID)
}

func TestSQLiteStore_File_ReplaceKeepsPlanOnFailure(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()
	old := []models.PlanDay{
		{ID: "old-1", AthleteID: 7, Date: "2026-02-16", SessionType: models.SessionEasy, Description: "Easy 8km"},
		{ID: "old-2", AthleteID: 7, Date: "2026-02-17", SessionType: models.SessionRest, Description: "Rest"},
	}
	_, err := store.InsertPlanDays(ctx, old)
	require.NoError(t, err)

	dup := []models.PlanDay{
		{ID: "new-1", AthleteID: 7, Date: "2026-02-16", SessionType: models.SessionTempo, Description: "Tempo"},
		{ID: "new-2", AthleteID: 7, Date: "2026-02-16", SessionType: models.SessionRest, Description: "Rest"},
	}
	_, err = store.ReplacePlanDays(ctx, 7, "2026-02-16", "2026-02-18", dup)
	require.ErrorIs(t, err, ErrWriteFailed)

	days, err := store.GetPlanDays(ctx, 7, "2026-02-16", "2026-02-18")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "old-1", days[0].ID)

	fresh := []models.PlanDay{
		{ID: "new-1", AthleteID: 7, Date: "2026-02-16", SessionType: models.SessionTempo, Description: "Tempo"},
	}
	deleted, err := store.ReplacePlanDays(ctx, 7, "2026-02-16", "2026-02-18", fresh)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	count, err := store.CountPlanDays(ctx, 7, "2026-02-16", "2026-02-18")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
