package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterRequestPanics     prometheus.Counter
	CounterSyncs             *prometheus.CounterVec
	CounterPagesFetched      prometheus.Counter
	CounterActivitiesSynced  prometheus.Counter
	CounterTokenRefreshes    *prometheus.CounterVec
	CounterNotificationsSent prometheus.Counter

	// histograms
	HistSyncDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("stravadash", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("stravadash", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"route", "status"}),
		CounterRequestPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_panic",
			Help:      "Requests that ended in a recovered panic",
		}),
		CounterSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync",
			Help:      "The total number of activity syncs by outcome",
		}, []string{"status"}),
		CounterPagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_pages_fetched",
			Help:      "Activity pages fetched from Strava",
		}),
		CounterActivitiesSynced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_activities_upserted",
			Help:      "Run activities upserted into storage",
		}),
		CounterTokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "token_refresh",
			Help:      "Strava access token refreshes by outcome",
		}, []string{"status"}),
		CounterNotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent",
			Help:      "Telegram notifications sent",
		}),
		HistSyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_duration_seconds",
			Help:      "Duration of a full activity sync",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}
