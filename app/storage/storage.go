package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"stravadash/app/storage/models"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrWriteFailed        = errors.New("storage write failed")
	ErrReadFailed         = errors.New("storage read failed")
	ErrCredentialNotFound = errors.New("credential not found")
)

type Store interface {
	Connect(path string) error
	SaveCredential(ctx context.Context, cred *models.Credential) error
	GetCredential(ctx context.Context, athleteID int64) (*models.Credential, error)
	UpsertActivities(ctx context.Context, activities []models.Activity) (int, error)
	GetRunsSince(ctx context.Context, athleteID int64, since time.Time) ([]models.Activity, error)
	InsertPlanDays(ctx context.Context, days []models.PlanDay) (int, error)
	GetPlanDays(ctx context.Context, athleteID int64, from, to string) ([]models.PlanDay, error)
	CountPlanDays(ctx context.Context, athleteID int64, from, to string) (int, error)
	ReplacePlanDays(ctx context.Context, athleteID int64, from, to string, days []models.PlanDay) (int64, error)
	GetUpcomingRaces(ctx context.Context, athleteID int64, from string) ([]models.PlanDay, error)
}

var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	DB *sql.DB
}

func (s *SQLiteStore) Connect(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("cannot create db directory", "dir", dir, "err", err)
			return err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		slog.Error("cannot open sqlite file", "path", path)
		return err
	}
	s.DB = db
	if err = s.createTables(); err != nil {
		slog.Error("cannot create tables", "err", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *SQLiteStore) createTables() error {
	credentialsTable := `
    CREATE TABLE IF NOT EXISTS credentials (
      athlete_id INTEGER PRIMARY KEY,
      access_token TEXT NOT NULL,
      refresh_token TEXT NOT NULL,
      expires_at INTEGER NOT NULL,
      athlete_name TEXT,
      athlete_photo TEXT
    );
  `
	activitiesTable := `
    CREATE TABLE IF NOT EXISTS activities (
      id INTEGER PRIMARY KEY,
      athlete_id INTEGER NOT NULL,
      name TEXT,
      start_date DATETIME NOT NULL,
      distance_m REAL NOT NULL DEFAULT 0,
      duration_s INTEGER NOT NULL DEFAULT 0,
      avg_pace_s_km REAL,
      avg_hr REAL,
      type TEXT NOT NULL
    );
  `
	activitiesIndex := `CREATE INDEX IF NOT EXISTS idx_activities_athlete_type_start ON activities (athlete_id, type, start_date);`
	planTable := `
    CREATE TABLE IF NOT EXISTS training_plan (
      id TEXT PRIMARY KEY,
      athlete_id INTEGER NOT NULL,
      date TEXT NOT NULL,
      session_type TEXT NOT NULL,
      description TEXT NOT NULL,
      target_distance_m REAL,
      target_pace_s_km REAL,
      notes TEXT,
      UNIQUE(athlete_id, date)
    );
  `

	for _, stmt := range []string{credentialsTable, activitiesTable, activitiesIndex, planTable} {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const upsertCredentialQuery = `
    INSERT INTO credentials (
        athlete_id, access_token, refresh_token, expires_at, athlete_name, athlete_photo
    ) VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT(athlete_id) DO UPDATE SET
        access_token = excluded.access_token,
        refresh_token = excluded.refresh_token,
        expires_at = excluded.expires_at,
        athlete_name = excluded.athlete_name,
        athlete_photo = excluded.athlete_photo
`

func (s *SQLiteStore) SaveCredential(ctx context.Context, cred *models.Credential) error {
	_, err := s.DB.ExecContext(ctx, upsertCredentialQuery, cred.AthleteID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.AthleteName, cred.AthletePhoto)
	if err != nil {
		slog.Error("error while saving credential", "athlete_id", cred.AthleteID, "err", err)
		return fmt.Errorf("%w: save credential: %w", ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLiteStore) GetCredential(ctx context.Context, athleteID int64) (*models.Credential, error) {
	cred := &models.Credential{}
	var name, photo sql.NullString
	query := `SELECT athlete_id, access_token, refresh_token, expires_at, athlete_name, athlete_photo FROM credentials WHERE athlete_id = ?`
	err := s.DB.QueryRowContext(ctx, query, athleteID).Scan(&cred.AthleteID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt, &name, &photo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("athlete %d: %w", athleteID, ErrCredentialNotFound)
	}
	if err != nil {
		slog.Error("error while fetching credential", "athlete_id", athleteID, "err", err)
		return nil, fmt.Errorf("%w: get credential: %w", ErrReadFailed, err)
	}
	cred.AthleteName = name.String
	cred.AthletePhoto = photo.String
	return cred, nil
}

const upsertActivityQuery = `
    INSERT INTO activities (
        id, athlete_id, name, start_date, distance_m, duration_s, avg_pace_s_km, avg_hr, type
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(id) DO UPDATE SET
        athlete_id = excluded.athlete_id,
        name = excluded.name,
        start_date = excluded.start_date,
        distance_m = excluded.distance_m,
        duration_s = excluded.duration_s,
        avg_pace_s_km = excluded.avg_pace_s_km,
        avg_hr = excluded.avg_hr,
        type = excluded.type
`

// UpsertActivities writes the batch in one transaction, replacing rows with the same id.
func (s *SQLiteStore) UpsertActivities(ctx context.Context, activities []models.Activity) (n int, err error) {
	if len(activities) == 0 {
		return 0, nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrWriteFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertActivityQuery)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare upsert: %w", ErrWriteFailed, err)
	}
	defer stmt.Close()

	for _, a := range activities {
		_, err = stmt.ExecContext(ctx, a.ID, a.AthleteID, a.Name, a.StartDate.UTC(), a.DistanceM, a.DurationS, nullFloat(a.AvgPaceSKm), nullFloat(a.AvgHR), a.Type)
		if err != nil {
			slog.Error("error while upserting activity", "id", a.ID, "err", err)
			return 0, fmt.Errorf("%w: upsert activity %d: %w", ErrWriteFailed, a.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrWriteFailed, err)
	}
	slog.Debug("upserted activities", "count", len(activities))
	return len(activities), nil
}

// GetRunsSince returns the athlete's runs started at or after since, oldest first.
func (s *SQLiteStore) GetRunsSince(ctx context.Context, athleteID int64, since time.Time) ([]models.Activity, error) {
	query := `SELECT id, athlete_id, name, start_date, distance_m, duration_s, avg_pace_s_km, avg_hr, type FROM activities WHERE athlete_id = ? AND type = ? AND start_date >= ? ORDER BY start_date ASC`
	rows, err := s.DB.QueryContext(ctx, query, athleteID, models.ActivityTypeRun, since.UTC())
	if err != nil {
		slog.Error("error while fetching activities", "athlete_id", athleteID, "err", err)
		return nil, fmt.Errorf("%w: query activities: %w", ErrReadFailed, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var name sql.NullString
		var pace, hr sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.AthleteID, &name, &a.StartDate, &a.DistanceM, &a.DurationS, &pace, &hr, &a.Type); err != nil {
			return nil, fmt.Errorf("%w: scan activity: %w", ErrReadFailed, err)
		}
		a.Name = name.String
		a.AvgPaceSKm = floatPtr(pace)
		a.AvgHR = floatPtr(hr)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate activities: %w", ErrReadFailed, err)
	}
	return activities, nil
}

const insertPlanDayQuery = `
    INSERT INTO training_plan (
        id, athlete_id, date, session_type, description, target_distance_m, target_pace_s_km, notes
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertPlanDays bulk inserts a plan. A date already planned for the athlete
// violates the unique constraint and rolls the whole batch back.
func (s *SQLiteStore) InsertPlanDays(ctx context.Context, days []models.PlanDay) (n int, err error) {
	if len(days) == 0 {
		return 0, nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrWriteFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertPlanDays(ctx, tx, days); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrWriteFailed, err)
	}
	slog.Info(fmt.Sprintf("inserted %d plan days", len(days)))
	return len(days), nil
}

// ReplacePlanDays clears from <= date < to and inserts days in the same
// transaction, so a failed insert keeps the previous plan.
func (s *SQLiteStore) ReplacePlanDays(ctx context.Context, athleteID int64, from, to string, days []models.PlanDay) (deleted int64, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrWriteFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `DELETE FROM training_plan WHERE athlete_id = ? AND date >= ? AND date < ?`
	result, err := tx.ExecContext(ctx, query, athleteID, from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: delete training plan: %w", ErrWriteFailed, err)
	}
	if deleted, err = result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("%w: delete training plan: %w", ErrWriteFailed, err)
	}

	if err = insertPlanDays(ctx, tx, days); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrWriteFailed, err)
	}
	slog.Info("replaced plan days", "athlete_id", athleteID, "deleted", deleted, "inserted", len(days))
	return deleted, nil
}

func insertPlanDays(ctx context.Context, tx *sql.Tx, days []models.PlanDay) error {
	if len(days) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertPlanDayQuery)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %w", ErrWriteFailed, err)
	}
	defer stmt.Close()

	for _, d := range days {
		_, err = stmt.ExecContext(ctx, d.ID, d.AthleteID, d.Date, string(d.SessionType), d.Description, nullFloat(d.TargetDistanceM), nullFloat(d.TargetPaceSKm), nullString(d.Notes))
		if err != nil {
			slog.Error("error while inserting plan day", "date", d.Date, "err", err)
			return fmt.Errorf("%w: insert plan day %s: %w", ErrWriteFailed, d.Date, err)
		}
	}
	return nil
}

const selectPlanDayColumns = `SELECT id, athlete_id, date, session_type, description, target_distance_m, target_pace_s_km, notes FROM training_plan`

// GetPlanDays returns plan days with from <= date < to, ordered by date.
func (s *SQLiteStore) GetPlanDays(ctx context.Context, athleteID int64, from, to string) ([]models.PlanDay, error) {
	query := selectPlanDayColumns + ` WHERE athlete_id = ? AND date >= ? AND date < ? ORDER BY date ASC`
	return s.queryPlanDays(ctx, query, athleteID, from, to)
}

func (s *SQLiteStore) GetUpcomingRaces(ctx context.Context, athleteID int64, from string) ([]models.PlanDay, error) {
	query := selectPlanDayColumns + ` WHERE athlete_id = ? AND session_type = ? AND date >= ? ORDER BY date ASC`
	return s.queryPlanDays(ctx, query, athleteID, string(models.SessionRace), from)
}

func (s *SQLiteStore) queryPlanDays(ctx context.Context, query string, args ...any) ([]models.PlanDay, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("error while fetching training plan", "err", err)
		return nil, fmt.Errorf("%w: query training plan: %w", ErrReadFailed, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	days := []models.PlanDay{}
	for rows.Next() {
		var d models.PlanDay
		var sessionType string
		var dist, pace sql.NullFloat64
		var notes sql.NullString
		if err := rows.Scan(&d.ID, &d.AthleteID, &d.Date, &sessionType, &d.Description, &dist, &pace, &notes); err != nil {
			return nil, fmt.Errorf("%w: scan plan day: %w", ErrReadFailed, err)
		}
		d.SessionType = models.SessionType(sessionType)
		d.TargetDistanceM = floatPtr(dist)
		d.TargetPaceSKm = floatPtr(pace)
		if notes.Valid {
			n := notes.String
			d.Notes = &n
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate training plan: %w", ErrReadFailed, err)
	}
	return days, nil
}

func (s *SQLiteStore) CountPlanDays(ctx context.Context, athleteID int64, from, to string) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM training_plan WHERE athlete_id = ? AND date >= ? AND date < ?`
	if err := s.DB.QueryRowContext(ctx, query, athleteID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count training plan: %w", ErrReadFailed, err)
	}
	return count, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
