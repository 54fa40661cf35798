package metrics

import "github.com/prometheus/client_golang/prometheus"

// SlugConflicts counts slug inserts that lost a race on the unique index and
// were retried with a higher suffix.
var SlugConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slug_conflict_retries_total",
		Help:      "Store writes retried after a duplicate slug",
	},
)
