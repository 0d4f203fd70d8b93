package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "displayhub"

var (
	PairingsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pairings_started_total",
		Help:      "Pairing start requests that issued a code",
	})

	PairingsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pairings_claimed_total",
		Help:      "Pair codes successfully claimed",
	})

	Renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Device config renders by module type",
	}, []string{"module"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_hits_total",
		Help:      "External-data cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_misses_total",
		Help:      "External-data cache misses",
	})

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_failures_total",
		Help:      "Failed or timed-out provider fetches by source",
	}, []string{"source"})
)
