// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"context"

	"grimm.is/logvigil/internal/vars"
)

// Tick pops and fires every violation-queue entry that has passed its
// deadline as of now, then reports the next wakeup delay in seconds.
func (e *Engine) Tick(ctx context.Context, now int64) int64 {
	for _, ent := range e.queue.Tick(now) {
		e.dispatcher.Dispatch(ctx, ent.ExpireAction, vars.Map(ent.Args))
		if e.opts.Metrics != nil {
			e.opts.Metrics.ExpiriesTotal.WithLabelValues(ent.ExpireAction).Inc()
		}
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.QueueDepth.Set(float64(e.queue.Len()))
	}
	return e.queue.NextWakeup(now)
}

// FlushAll drains the entire violation queue unconditionally, firing
// every expire action. Used on graceful shutdown when the "flush"
// config setting is true.
func (e *Engine) FlushAll(ctx context.Context) {
	e.flushMatching(ctx, nil)
}
