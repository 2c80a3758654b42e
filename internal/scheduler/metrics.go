package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stargazer_scheduler_job_runs_total",
		Help: "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stargazer_scheduler_job_duration_seconds",
		Help:    "Duration of scheduled job runs.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"job"})

	businessesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stargazer_risk_scan_businesses_total",
		Help: "Businesses scanned by the risk scan, by outcome.",
	}, []string{"outcome"})
)
