// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"context"

	"grimm.is/logvigil/internal/record"
	"grimm.is/logvigil/internal/trigger"
	"grimm.is/logvigil/internal/vars"
	"grimm.is/logvigil/internal/whitelist"
)

// HandleRecord runs the skip -> whitelist -> trigger -> threshold
// pipeline against one parsed record. The caller (the main loop) is
// responsible for classifying raw input lines via internal/record and
// routing control lines to HandleControl instead.
func (e *Engine) HandleRecord(ctx context.Context, rec *record.LogRecord) {
	e.checkRollover(rec)

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordsProcessed.Inc()
	}

	if whitelist.IsSilent(rec.Client) {
		return
	}
	if e.rs.Skip != nil && e.rs.Skip.MatchString(rec.URL) {
		if e.opts.Metrics != nil {
			e.opts.Metrics.SkippedRecords.Inc()
		}
		return
	}

	if classes, hit := e.whitelist.Classes(rec.Client); hit {
		if e.opts.Metrics != nil {
			e.opts.Metrics.WhitelistHits.Inc()
		}
		if e.opts.Verbose {
			e.log.Info("whitelist", "client", rec.Client, "class", classes[0])
		}
		return
	}

	base := recordVars(rec)

	for _, tr := range e.rs.Triggers.Evaluate(rec) {
		e.handleTriggerHit(ctx, tr, rec, base)
	}

	e.checkGlobalThreshold(ctx, rec, base)
}

func (e *Engine) handleTriggerHit(ctx context.Context, tr *trigger.Trigger, rec *record.LogRecord, m vars.Map) {
	actionName := tr.Vars["action"]

	if e.opts.Metrics != nil && actionName != "" {
		e.opts.Metrics.TriggerHits.WithLabelValues(actionName).Inc()
	}

	merged := vars.Merge(e.rs.Config.Vars(), vars.Map(tr.Vars), m)

	if counter, ok := e.triggerCounters[tr]; ok {
		if !counter.Hit(rec.Sec, rec.Client, tr.Threshold) {
			return
		}
	}

	e.enqueueViolation(ctx, actionName, e.durationFor(tr.Vars["duration"]), merged)
}

func (e *Engine) checkGlobalThreshold(ctx context.Context, rec *record.LogRecord, m vars.Map) {
	threshold := e.rs.Config.Int("threshold", 0)
	if threshold <= 0 {
		return
	}

	key := e.hitKey(rec)
	if !e.globalCounter.Hit(rec.Sec, key, threshold) {
		return
	}

	actionName := e.rs.Config.String("action", "")
	merged := vars.Merge(e.rs.Config.Vars(), m)
	e.enqueueViolation(ctx, actionName, e.durationFor(""), merged)
}
