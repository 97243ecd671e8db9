package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oplog_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// outcome: enqueued | dropped | evicted
	OperationLogTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_tasks_total",
		Help: "Operation log tasks submitted to the persistence pool",
	}, []string{"outcome"})

	// result: saved | skipped | failed | token_error
	OperationLogRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_records_total",
		Help: "Operation log records processed by the persistence pool",
	}, []string{"result"})

	OperationLogQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oplog_queue_depth",
		Help: "Operation log tasks waiting in the persistence queue",
	})
)
