package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evaluationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sanction_evaluations_total",
	Help: "Number of evaluations by outcome",
}, []string{"outcome"})

var evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sanction_evaluation_duration_sec",
	Help:    "Duration of evaluations, including store calls",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
}, []string{"outcome"})

var decisionSeverityCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sanction_decisions_total",
	Help: "Number of punishment decisions by violation type and severity",
}, []string{"type", "severity", "dry_run"})

var reviewFlagCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sanction_manual_review_flags_total",
	Help: "Number of evaluations routed to manual review",
})

var storeErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sanction_store_errors_total",
	Help: "Number of failed violation store calls by operation and error category",
}, []string{"op", "category"})

var messageDeleteCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sanction_message_deletes_total",
	Help: "Number of message deletions by result: ok, gone, or the error category",
}, []string{"result"})

var hookErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sanction_hook_errors_total",
	Help: "Number of failed notification hooks",
}, []string{"hook"})
