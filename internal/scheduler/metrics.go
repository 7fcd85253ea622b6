package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Job executions by type and terminal status",
		},
		[]string{"job_type", "status"},
	)

	cronEntriesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_cron_entries_active",
			Help: "Number of currently registered cron entries",
		},
	)

	tickerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_ticker_runs_total",
			Help: "Background ticker passes by ticker name and outcome",
		},
		[]string{"ticker", "outcome"},
	)
)
