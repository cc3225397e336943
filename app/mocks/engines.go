package mocks

import (
	"context"
	"stravadash/app/storage/models"
	"time"

	"github.com/stretchr/testify/mock"
)

type TokenSource struct {
	mock.Mock
}

func (m *TokenSource) AccessToken(ctx context.Context, athleteID int64) (string, error) {
	args := m.Called(ctx, athleteID)
	return args.String(0), args.Error(1)
}

type CredentialStore struct {
	mock.Mock
}

func (m *CredentialStore) Get(ctx context.Context, athleteID int64) (*models.Credential, error) {
	args := m.Called(ctx, athleteID)
	cred, _ := args.Get(0).(*models.Credential)
	return cred, args.Error(1)
}

func (m *CredentialStore) Save(ctx context.Context, cred *models.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

type Syncer struct {
	mock.Mock
}

func (m *Syncer) Sync(ctx context.Context, athleteID int64) (int, error) {
	args := m.Called(ctx, athleteID)
	return args.Int(0), args.Error(1)
}

type Summarizer struct {
	mock.Mock
}

func (m *Summarizer) Summary(ctx context.Context, athleteID int64, asOf time.Time) (models.Summary, error) {
	args := m.Called(ctx, athleteID, asOf)
	summary, _ := args.Get(0).(models.Summary)
	return summary, args.Error(1)
}

type Planner struct {
	mock.Mock
}

func (m *Planner) Reconcile(ctx context.Context, athleteID int64, activities []models.Activity, now time.Time) ([]models.PlanWeek, error) {
	args := m.Called(ctx, athleteID, activities, now)
	weeks, _ := args.Get(0).([]models.PlanWeek)
	return weeks, args.Error(1)
}

func (m *Planner) Weeks(ctx context.Context, athleteID int64, now time.Time) ([]models.PlanWeek, error) {
	args := m.Called(ctx, athleteID, now)
	weeks, _ := args.Get(0).([]models.PlanWeek)
	return weeks, args.Error(1)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) NotifySync(ctx context.Context, synced int, summary *models.Summary) {
	m.Called(ctx, synced, summary)
}
