package mocks

import (
	"context"
	"stravadash/app/strava"

	"github.com/stretchr/testify/mock"
)

type Strava struct {
	mock.Mock
}

func (m *Strava) Authorize(ctx context.Context, accessCode string) (*strava.AuthResp, error) {
	args := m.Called(ctx, accessCode)
	resp, _ := args.Get(0).(*strava.AuthResp)
	return resp, args.Error(1)
}

func (m *Strava) RefreshAccessToken(ctx context.Context, refreshToken string) (*strava.AuthResp, error) {
	args := m.Called(ctx, refreshToken)
	resp, _ := args.Get(0).(*strava.AuthResp)
	return resp, args.Error(1)
}

func (m *Strava) ListActivities(ctx context.Context, accessToken string, page, perPage int) ([]strava.SummaryActivity, error) {
	args := m.Called(ctx, accessToken, page, perPage)
	activities, _ := args.Get(0).([]strava.SummaryActivity)
	return activities, args.Error(1)
}

func (m *Strava) AuthURL(redirectURI string) string {
	args := m.Called(redirectURI)
	return args.String(0)
}
