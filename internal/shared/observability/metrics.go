package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeindex_parsing_seconds",
		Help:    "Time spent parsing a source file during collection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeindex_watcher_events_total",
		Help: "Total number of file system events received by the compilation database watcher.",
	})

	IndexTaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeindex_index_task_seconds",
		Help:    "Time spent indexing one translation unit, by priority.",
		Buckets: prometheus.DefBuckets,
	}, []string{"priority"})

	IndexTasksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeindex_index_tasks_processed_total",
		Help: "Total number of indexing tasks completed, by priority and outcome.",
	}, []string{"priority", "outcome"})

	IndexQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeindex_index_queue_depth",
		Help: "Current number of queued indexing tasks, across both priorities.",
	})

	IndexActiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeindex_index_active_tasks",
		Help: "Current number of indexing tasks executing on a worker.",
	})

	ShardRegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeindex_shard_registry_size",
		Help: "Number of files known to the shard version registry.",
	})

	AggregatorSlabs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeindex_aggregator_slabs",
		Help: "Number of per-file slabs held by the aggregator.",
	})

	IndexBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeindex_index_build_seconds",
		Help:    "Time spent building and swapping the live query index.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ShardStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeindex_shard_store_errors_total",
		Help: "Total number of shard store read/write errors.",
	}, []string{"op"})
)
