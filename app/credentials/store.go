// Package credentials keeps the athlete's Strava OAuth tokens usable.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"stravadash/app/metrics"
	"stravadash/app/storage"
	"stravadash/app/storage/models"
	"stravadash/app/strava"
	"stravadash/app/utils"
	"time"
)

// ErrAuthenticationExpired means the athlete has to authorize again.
var ErrAuthenticationExpired = errors.New("strava authentication expired")

type Repo interface {
	GetCredential(ctx context.Context, athleteID int64) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error
}

type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*strava.AuthResp, error)
}

// TokenSource is what the sync engine needs from the store.
type TokenSource interface {
	AccessToken(ctx context.Context, athleteID int64) (string, error)
}

var _ TokenSource = (*Store)(nil)

type Store struct {
	Repo    Repo
	Strava  Refresher
	Sealer  *utils.Sealer
	Metrics *metrics.Manager
	Now     func() time.Time
}

func NewStore(repo Repo, refresher Refresher, sealer *utils.Sealer, m *metrics.Manager) *Store {
	return &Store{
		Repo:    repo,
		Strava:  refresher,
		Sealer:  sealer,
		Metrics: m,
		Now:     time.Now,
	}
}

// Get loads the credential with plain text tokens.
func (s *Store) Get(ctx context.Context, athleteID int64) (*models.Credential, error) {
	cred, err := s.Repo.GetCredential(ctx, athleteID)
	if errors.Is(err, storage.ErrCredentialNotFound) {
		return nil, fmt.Errorf("%w: athlete %d: %w", ErrAuthenticationExpired, athleteID, err)
	}
	if err != nil {
		return nil, err
	}

	if cred.AccessToken, err = s.Sealer.Open(cred.AccessToken); err != nil {
		return nil, fmt.Errorf("%w: access token: %w", ErrAuthenticationExpired, err)
	}
	if cred.RefreshToken, err = s.Sealer.Open(cred.RefreshToken); err != nil {
		return nil, fmt.Errorf("%w: refresh token: %w", ErrAuthenticationExpired, err)
	}
	return cred, nil
}

// Save stores cred, sealing the tokens. cred itself is left untouched.
func (s *Store) Save(ctx context.Context, cred *models.Credential) error {
	sealed := *cred
	var err error
	if sealed.AccessToken, err = s.Sealer.Seal(cred.AccessToken); err != nil {
		return fmt.Errorf("%w: seal access token: %w", storage.ErrWriteFailed, err)
	}
	if sealed.RefreshToken, err = s.Sealer.Seal(cred.RefreshToken); err != nil {
		return fmt.Errorf("%w: seal refresh token: %w", storage.ErrWriteFailed, err)
	}
	return s.Repo.SaveCredential(ctx, &sealed)
}

// Refresh exchanges the refresh token for a new token pair and persists it.
func (s *Store) Refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	resp, err := s.Strava.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		s.countRefresh(metrics.StatusFailure)
		slog.Error("strava token refresh failed", "athlete_id", cred.AthleteID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationExpired, err)
	}
	s.countRefresh(metrics.StatusSuccess)

	updated := *cred
	updated.AccessToken = resp.AccessToken
	updated.RefreshToken = resp.RefreshToken
	updated.ExpiresAt = resp.ExpiresAt
	if err := s.Save(ctx, &updated); err != nil {
		return nil, err
	}
	slog.Info("strava token refreshed", "athlete_id", cred.AthleteID, "expires_at", resp.ExpiresAt)
	return &updated, nil
}

// AccessToken returns a usable access token, refreshing it first when it
// is not valid anymore.
func (s *Store) AccessToken(ctx context.Context, athleteID int64) (string, error) {
	cred, err := s.Get(ctx, athleteID)
	if err != nil {
		return "", err
	}
	if !cred.Expired(s.now()) {
		return cred.AccessToken, nil
	}

	slog.Debug("access token expired, refreshing", "athlete_id", athleteID, "expires_at", cred.ExpiresAt)
	cred, err = s.Refresh(ctx, cred)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) countRefresh(status string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.CounterTokenRefreshes.WithLabelValues(status).Inc()
}
