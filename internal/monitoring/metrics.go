// Package monitoring exports branch risk metrics to Prometheus and raises
// webhook alerts when risk crosses configured thresholds.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BranchesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "branch_risk_branches_total",
			Help: "Number of branches in the store",
		},
	)

	BranchesWithData = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "branch_risk_branches_with_data",
			Help: "Number of branches with at least one performance record",
		},
	)

	RecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "branch_risk_records_total",
			Help: "Number of performance records in the store",
		},
	)

	AverageProfit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "branch_risk_average_profit_pesos",
			Help: "Mean latest-month profit across branches with data",
		},
	)

	BranchesByLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "branch_risk_branches_by_level",
			Help: "Number of branches per risk level",
		},
		[]string{"level"},
	)

	BranchScoreGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "branch_risk_score",
			Help: "Current risk score of each branch with data",
		},
		[]string{"branch_id", "branch_type"},
	)

	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branch_risk_refreshes_total",
			Help: "Total number of metric refreshes",
		},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branch_risk_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "branch_risk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
