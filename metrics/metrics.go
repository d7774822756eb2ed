package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiscoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_discovery_runs_total",
			Help: "Total number of discovery runs by outcome",
		},
		[]string{"status"},
	)

	UniversalRelationSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hydra_universal_relation_size",
			Help: "Number of event-object relations in the most recent universal relation",
		},
	)

	UnresolvedRelations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydra_unresolved_relations_total",
			Help: "Total number of relations referencing objects missing from the object table",
		},
	)

	PartitionRelations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hydra_partition_relations",
			Help: "Number of relations in the most recent sub-log of each object type",
		},
		[]string{"object_type"},
	)

	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydra_discovery_duration_seconds",
			Help:    "Time taken by the discovery service per object type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"object_type"},
	)

	TypeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_type_failures_total",
			Help: "Total number of failed discovery or visualization calls per object type",
		},
		[]string{"object_type"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_cache_hits_total",
			Help: "Total number of report cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_cache_misses_total",
			Help: "Total number of report cache misses",
		},
		[]string{"cache"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_cache_errors_total",
			Help: "Total number of report cache errors",
		},
		[]string{"cache", "operation"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "status"},
	)

	LogsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydra_logs_decoded_total",
			Help: "Total number of event logs decoded by format and outcome",
		},
		[]string{"format", "status"},
	)

	ReportsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydra_reports_stored_total",
			Help: "Total number of reports persisted to storage",
		},
	)
)
