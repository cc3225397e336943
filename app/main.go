package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"stravadash/app/activities"
	"stravadash/app/config"
	"stravadash/app/credentials"
	"stravadash/app/logging"
	"stravadash/app/metrics"
	"stravadash/app/plan"
	"stravadash/app/server"
	"stravadash/app/storage"
	"stravadash/app/strava"
	"stravadash/app/syncer"
	"stravadash/app/tg"
	"stravadash/app/utils"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	err := godotenv.Load()
	cfg := config.Load()
	if err != nil && !cfg.IsProd() {
		slog.Warn("no .env file loaded", "err", err)
	}

	logging.Setup(logging.SetupParams{
		LogFileName: cfg.LogFile,
		LogLevel:    cfg.LogLevel,
		LogJSON:     cfg.LogJSON,
	})

	if err := run(cfg); err != nil {
		slog.Error("stravadash stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	sealer, err := utils.NewSealer(cfg.TokenKey)
	if err != nil {
		return err
	}
	if sealer == nil {
		slog.Warn("TOKEN_KEY not set, strava tokens are stored unencrypted")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("stravadash", "backend", registry)

	db := &storage.SQLiteStore{}
	if err := db.Connect(cfg.DBPath); err != nil {
		slog.Error("error while connecting to DB", "path", cfg.DBPath)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error while closing DB", "err", err)
		}
	}()

	stravaClient := strava.NewStravaClient(cfg.StravaClientID, cfg.StravaClientSecret, &http.Client{Timeout: cfg.StravaHTTPTimeout})
	creds := credentials.NewStore(db, stravaClient, sealer, metricsManager)
	sync := syncer.NewSyncer(creds, stravaClient, db, metricsManager)
	aggregator := activities.NewAggregator(db, loc)
	reconciler := plan.NewReconciler(db, db, loc)

	srv := &server.HttpHandler{
		URL:           cfg.URL,
		Port:          cfg.Port,
		Strava:        stravaClient,
		Credentials:   creds,
		Syncer:        sync,
		Summary:       aggregator,
		Plan:          reconciler,
		Races:         db,
		JWT:           utils.JWT{Key: []byte(cfg.JWTSecret)},
		Metrics:       metricsManager,
		Registry:      registry,
		Loc:           loc,
		TargetPaceSKm: cfg.TargetPaceSKm,
		SecureCookie:  cfg.IsProd(),
	}

	if cfg.TelegramAPIKey != "" && cfg.TelegramChatID != 0 {
		telegram := tg.NewTelegramClient(cfg.TelegramAPIKey, cfg.TelegramChatID, cfg.OwnerAthleteID)
		telegram.URL = cfg.URL
		telegram.TargetPaceSKm = cfg.TargetPaceSKm
		telegram.Syncer = sync
		telegram.Summary = aggregator
		telegram.Plan = reconciler
		telegram.Metrics = metricsManager
		telegram.Loc = loc
		if err := telegram.Connect(); err != nil {
			slog.Error("telegram bot disabled", "err", err)
		} else {
			srv.Notifier = telegram
			go telegram.Start(ctx)
		}
	} else {
		slog.Info("telegram bot disabled")
	}

	slog.Info("press CTRL+C to stop program")
	return srv.Start(ctx)
}
