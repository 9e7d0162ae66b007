// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_decisions_total",
		Help: "Count of Allowed evaluations by verdict.",
	}, []string{"verdict"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_cache_hits_total",
		Help: "Count of per-user decision cache hits.",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_cache_misses_total",
		Help: "Count of per-user decision cache misses.",
	})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_mutations_total",
		Help: "Count of replicated mutations applied, by tag.",
	}, []string{"tag"})
)

func recordVerdict(v *bool) {
	switch {
	case v == nil:
		decisionsTotal.WithLabelValues("default").Inc()
	case *v:
		decisionsTotal.WithLabelValues("allow").Inc()
	default:
		decisionsTotal.WithLabelValues("deny").Inc()
	}
}
