package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_uploaded_files_total",
			Help: "Files received through the parallel upload protocol",
		},
		[]string{"type"},
	)

	CompletedSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_upload_sessions_completed_total",
		Help: "Upload sessions that reached their expected total",
	})

	RelocationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_relocation_failures_total",
		Help: "Completed sessions whose files could not be moved to permanent storage",
	})

	SweptSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_upload_sessions_swept_total",
		Help: "Abandoned upload sessions removed by the reaper",
	})

	progressSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cms_upload_progress_subscribers",
		Help: "Open websocket connections receiving upload progress",
	})
)
