// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics declares the Prometheus instrumentation surfaced by
// the daemon's debug HTTP listener. Counters track cumulative events;
// gauges reflect the engine's current working-set size.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every metric the engine updates. Construct one with
// New and register it with a prometheus.Registerer of the caller's
// choosing (production wiring passes prometheus.DefaultRegisterer to
// MustRegister).
type Registry struct {
	RecordsProcessed prometheus.Counter
	WhitelistHits    prometheus.Counter
	SkippedRecords   prometheus.Counter
	TriggerHits      *prometheus.CounterVec
	ViolationsTotal  *prometheus.CounterVec
	ExpiriesTotal    *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
	ReloadsTotal     prometheus.Counter
	ActionFailures   *prometheus.CounterVec
}

// New constructs a Registry with all metrics initialized but not yet
// registered with any Registerer.
func New() *Registry {
	return &Registry{
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "records_processed_total",
			Help:      "Total access-log records successfully parsed.",
		}),
		WhitelistHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "whitelist_hits_total",
			Help:      "Total records short-circuited by a whitelist match.",
		}),
		SkippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "skipped_records_total",
			Help:      "Total records dropped by a skip regex.",
		}),
		TriggerHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "trigger_hits_total",
			Help:      "Total trigger predicate hits, by trigger action name.",
		}, []string{"action"}),
		ViolationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "violations_total",
			Help:      "Total first-observation violations enqueued, by action name.",
		}, []string{"action"}),
		ExpiriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "expiries_total",
			Help:      "Total expire actions fired, by action name.",
		}, []string{"action"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "logvigil",
			Name:      "queue_depth",
			Help:      "Current number of live (non-sentinel) entries in the violation queue.",
		}),
		ReloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "config_reloads_total",
			Help:      "Total successful config reloads.",
		}),
		ActionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logvigil",
			Name:      "action_failures_total",
			Help:      "Total action dispatch failures, by action name.",
		}, []string{"action"}),
	}
}

// MustRegister registers every metric in r with reg, panicking on
// collector collision (a programmer error, never a runtime
// condition).
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.RecordsProcessed,
		r.WhitelistHits,
		r.SkippedRecords,
		r.TriggerHits,
		r.ViolationsTotal,
		r.ExpiriesTotal,
		r.QueueDepth,
		r.ReloadsTotal,
		r.ActionFailures,
	)
}
