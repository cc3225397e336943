package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"stravadash/app/metrics"
	"stravadash/app/storage/models"
	"stravadash/app/strava"
	"stravadash/app/utils"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SessionCookie = "session"
	callbackPath  = "/api/strava/callback"
)

type StravaAuth interface {
	Authorize(ctx context.Context, accessCode string) (*strava.AuthResp, error)
	AuthURL(redirectURI string) string
}

type CredentialStore interface {
	Get(ctx context.Context, athleteID int64) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
}

type Syncer interface {
	Sync(ctx context.Context, athleteID int64) (int, error)
}

type Summarizer interface {
	Summary(ctx context.Context, athleteID int64, asOf time.Time) (models.Summary, error)
}

type Planner interface {
	Reconcile(ctx context.Context, athleteID int64, activities []models.Activity, now time.Time) ([]models.PlanWeek, error)
	Weeks(ctx context.Context, athleteID int64, now time.Time) ([]models.PlanWeek, error)
}

type RaceReader interface {
	GetUpcomingRaces(ctx context.Context, athleteID int64, from string) ([]models.PlanDay, error)
}

// Notifier is told about every sync triggered over HTTP.
type Notifier interface {
	NotifySync(ctx context.Context, synced int, summary *models.Summary)
}

type HttpHandler struct {
	URL           string
	Port          string
	Strava        StravaAuth
	Credentials   CredentialStore
	Syncer        Syncer
	Summary       Summarizer
	Plan          Planner
	Races         RaceReader
	Notifier      Notifier
	JWT           utils.JWT
	Metrics       *metrics.Manager
	Registry      *prometheus.Registry
	Loc           *time.Location
	TargetPaceSKm float64
	SecureCookie  bool
	Now           func() time.Time

	httpServer *http.Server
}

func (h *HttpHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/strava/auth", h.authHandler).Methods(http.MethodGet).Name("strava-auth")
	r.HandleFunc(callbackPath, h.authCallbackHandler).Methods(http.MethodGet).Name("strava-callback")
	r.HandleFunc("/api/strava/sync", h.syncHandler).Methods(http.MethodPost).Name("strava-sync")
	r.HandleFunc("/api/activities", h.activitiesHandler).Methods(http.MethodGet).Name("activities")
	r.HandleFunc("/api/plan", h.planHandler).Methods(http.MethodGet).Name("plan")
	r.HandleFunc("/api/dashboard", h.dashboardHandler).Methods(http.MethodGet).Name("dashboard")
	r.HandleFunc("/healthz", h.healthHandler).Methods(http.MethodGet).Name("healthz")
	if h.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})).Name("metrics")
	}

	r.Use(PanicRecovery(h.Metrics))
	r.Use(LogRequest())
	r.Use(RequestMetrics(h.Metrics))
	return r
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (h *HttpHandler) Start(ctx context.Context) error {
	h.httpServer = &http.Server{
		Addr:         ":" + h.Port,
		Handler:      h.Router(),
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", h.Port)
		if err := h.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := h.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown http server", "err", err)
		return err
	}
	slog.Warn("server shut down")
	return nil
}

func (h *HttpHandler) authHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.Strava.AuthURL(h.URL+callbackPath), http.StatusTemporaryRedirect)
}

func (h *HttpHandler) authCallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("strava callback without code", "error", r.URL.Query().Get("error"))
		http.Redirect(w, r, "/?error=no_code", http.StatusFound)
		return
	}

	authData, err := h.Strava.Authorize(r.Context(), code)
	if err != nil {
		slog.Error("error while authorizing athlete", "err", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	cred := &models.Credential{
		AthleteID:    authData.Athlete.Id,
		AccessToken:  authData.AccessToken,
		RefreshToken: authData.RefreshToken,
		ExpiresAt:    authData.ExpiresAt,
		AthleteName:  authData.Athlete.FullName(),
		AthletePhoto: authData.Athlete.Profile,
	}
	if err := h.Credentials.Save(r.Context(), cred); err != nil {
		slog.Error("error while saving credential", "athlete_id", cred.AthleteID, "err", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	token, err := h.JWT.GenerateForAthlete(cred.AthleteID, h.now())
	if err != nil {
		slog.Error("error while signing session", "err", err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		MaxAge:   int(utils.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("athlete connected", "athlete_id", cred.AthleteID, "name", cred.AthleteName)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *HttpHandler) syncHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := h.athleteID(r)
	if !ok {
		notLoggedIn(w)
		return
	}

	synced, err := h.Syncer.Sync(r.Context(), athleteID)
	if err != nil {
		slog.Error("sync failed", "athlete_id", athleteID, "synced", synced, "err", err)
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Sync failed"})
		return
	}

	if h.Notifier != nil {
		var summary *models.Summary
		if s, err := h.Summary.Summary(r.Context(), athleteID, h.now()); err == nil {
			summary = &s
		}
		h.Notifier.NotifySync(context.WithoutCancel(r.Context()), synced, summary)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "synced": synced})
}

func (h *HttpHandler) activitiesHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := h.athleteID(r)
	if !ok {
		notLoggedIn(w)
		return
	}

	summary, err := h.Summary.Summary(r.Context(), athleteID, h.now())
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch activities"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *HttpHandler) planHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := h.athleteID(r)
	if !ok {
		notLoggedIn(w)
		return
	}

	weeks, err := h.Plan.Weeks(r.Context(), athleteID, h.now())
	if err != nil {
		weeks = []models.PlanWeek{}
	}
	utils.WriteJSON(w, http.StatusOK, weeks)
}

func (h *HttpHandler) healthHandler(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HttpHandler) athleteID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return 0, false
	}
	athleteID, err := h.JWT.AthleteIDFromToken(c.Value, h.now())
	if err != nil {
		return 0, false
	}
	return athleteID, true
}

func (h *HttpHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *HttpHandler) loc() *time.Location {
	if h.Loc == nil {
		return time.UTC
	}
	return h.Loc
}

func notLoggedIn(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in"})
}
