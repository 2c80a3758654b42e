package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stargazer_analyses_total",
		Help: "Analytics computations by operation and outcome.",
	}, []string{"operation", "outcome"})

	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stargazer_analysis_duration_seconds",
		Help:    "Time spent fetching and analyzing reviews.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	reportCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stargazer_report_cache_lookups_total",
		Help: "Report cache lookups by result.",
	}, []string{"result"})

	reviewsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stargazer_reviews_ingested_total",
		Help: "Reviews inserted through the ingestion API.",
	})
)
