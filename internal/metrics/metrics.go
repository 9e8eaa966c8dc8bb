// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

var (
	// ProductOperations counts service calls by operation and outcome
	// (ok, invalid, not_found, error).
	ProductOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_operations_total",
		Help:      "Product operations by outcome.",
	}, []string{"operation", "outcome"})

	BlobCleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_failures_total",
		Help:      "Blob deletions that failed and left an orphaned file behind.",
	}, []string{"operation"})

	OrphanBlobsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_blobs_removed_total",
		Help:      "Unreferenced blobs removed by the sweep job.",
	})
)
