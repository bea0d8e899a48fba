package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3ducky_storage_operations_total",
			Help: "Storage facade calls by operation and result.",
		},
		[]string{"operation", "result"},
	)

	storageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3ducky_storage_operation_duration_seconds",
			Help:    "Latency of storage facade calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	downloadedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3ducky_downloaded_bytes_total",
			Help: "Bytes handed to users, by download mode.",
		},
		[]string{"mode"},
	)
)

func observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storageOpsTotal.WithLabelValues(op, result).Inc()
	storageOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
