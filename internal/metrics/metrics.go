package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "events_fetched_total",
		Help:      "Normalized events fetched, by source",
	}, []string{"source"})

	ProviderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "provider_errors_total",
		Help:      "Provider fetches that degraded to an empty result, by source",
	}, []string{"source"})

	FetchDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "eventhub",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching from one source",
	}, []string{"source"})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "cache_hits_total",
		Help:      "Aggregation requests answered from the cache",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "cache_misses_total",
		Help:      "Aggregation requests that had to hit the providers",
	})

	CachePurged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "cache_purged_rows_total",
		Help:      "Cache rows removed, by purge mode (all|expired)",
	}, []string{"mode"})

	EnrichRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventhub",
		Name:      "enrich_requests_total",
		Help:      "Enrichment API calls, by kind (category|summary) and status (ok|error)",
	}, []string{"kind", "status"})
)

func init() {
	prometheus.MustRegister(
		EventsFetched, ProviderErrors, FetchDuration,
		CacheHits, CacheMisses, CachePurged, EnrichRequests,
	)
}
