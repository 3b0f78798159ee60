// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_RegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.MustRegister(reg)

	m.RecordsProcessed.Inc()
	m.ViolationsTotal.WithLabelValues("block").Inc()
	m.QueueDepth.Set(3)

	if got := testutil.ToFloat64(m.RecordsProcessed); got != 1 {
		t.Errorf("RecordsProcessed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ViolationsTotal.WithLabelValues("block")); got != 1 {
		t.Errorf("ViolationsTotal{block} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 3 {
		t.Errorf("QueueDepth = %v, want 3", got)
	}
}
