package mocks

import (
	"context"
	"stravadash/app/storage/models"
	"time"

	"github.com/stretchr/testify/mock"
)

// Store is a testify mock of storage.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Connect(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *Store) SaveCredential(ctx context.Context, cred *models.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *Store) GetCredential(ctx context.Context, athleteID int64) (*models.Credential, error) {
	args := m.Called(ctx, athleteID)
	cred, _ := args.Get(0).(*models.Credential)
	return cred, args.Error(1)
}

func (m *Store) UpsertActivities(ctx context.Context, activities []models.Activity) (int, error) {
	args := m.Called(ctx, activities)
	return args.Int(0), args.Error(1)
}

func (m *Store) GetRunsSince(ctx context.Context, athleteID int64, since time.Time) ([]models.Activity, error) {
	args := m.Called(ctx, athleteID, since)
	activities, _ := args.Get(0).([]models.Activity)
	return activities, args.Error(1)
}

func (m *Store) InsertPlanDays(ctx context.Context, days []models.PlanDay) (int, error) {
	args := m.Called(ctx, days)
	return args.Int(0), args.Error(1)
}

func (m *Store) GetPlanDays(ctx context.Context, athleteID int64, from, to string) ([]models.PlanDay, error) {
	args := m.Called(ctx, athleteID, from, to)
	days, _ := args.Get(0).([]models.PlanDay)
	return days, args.Error(1)
}

func (m *Store) CountPlanDays(ctx context.Context, athleteID int64, from, to string) (int, error) {
	args := m.Called(ctx, athleteID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *Store) ReplacePlanDays(ctx context.Context, athleteID int64, from, to string, days []models.PlanDay) (int64, error) {
	args := m.Called(ctx, athleteID, from, to, days)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *Store) GetUpcomingRaces(ctx context.Context, athleteID int64, from string) ([]models.PlanDay, error) {
	args := m.Called(ctx, athleteID, from)
	days, _ := args.Get(0).([]models.PlanDay)
	return days, args.Error(1)
}
