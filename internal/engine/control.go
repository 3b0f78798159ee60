// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"context"
	"os"
	"strconv"

	"grimm.is/logvigil/internal/record"
	"grimm.is/logvigil/internal/vars"
)

// ControlOutcome reports what HandleControl needs the main loop to do
// next: ReloadRequested on *HUP, ShutdownRequested (with ExitStatus)
// on *EXIT.
type ControlOutcome struct {
	ReloadRequested   bool
	ShutdownRequested bool
	ExitStatus        int
}

// HandleControl dispatches one parsed control line. Built-in names
// (HUP, FLUSH, EXIT, DUMP, VIOL) are handled directly; any other name
// is routed to a user-defined action of the same name if one exists.
func (e *Engine) HandleControl(ctx context.Context, ctrl *record.ControlCommand) ControlOutcome {
	switch ctrl.Name {
	case "HUP":
		return ControlOutcome{ReloadRequested: true}
	case "FLUSH":
		e.flushMatching(ctx, ctrl.Args)
		return ControlOutcome{}
	case "EXIT":
		status := 0
		if v, ok := ctrl.Args["status"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				status = n
			}
		}
		return ControlOutcome{ShutdownRequested: true, ExitStatus: status}
	case "DUMP":
		e.dumpTo(ctrl.Args["file"])
		return ControlOutcome{}
	case "VIOL":
		e.injectViolation(ctx, ctrl.Args)
		return ControlOutcome{}
	default:
		e.dispatcher.Dispatch(ctx, ctrl.Name, mapToVars(ctrl.Args))
		return ControlOutcome{}
	}
}

func (e *Engine) flushMatching(ctx context.Context, filter map[string]string) {
	for _, ent := range e.queue.Flush(filter) {
		e.dispatcher.Dispatch(ctx, ent.ExpireAction, vars.Map(ent.Args))
		if e.opts.Metrics != nil {
			e.opts.Metrics.ExpiriesTotal.WithLabelValues(ent.ExpireAction).Inc()
		}
	}
}

func (e *Engine) dumpTo(path string) {
	if path == "" {
		e.Dump(os.Stdout)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		e.log.Error("dump: cannot create file", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := e.Dump(f); err != nil {
		e.log.Error("dump: write failed", "path", path, "error", err)
	}
}

// injectViolation synthesizes a control-class violation from *VIOL
// bindings, layered over the config settings as template variables.
func (e *Engine) injectViolation(ctx context.Context, args map[string]string) {
	actionName := args["action"]
	if actionName == "" {
		e.log.Warn("*VIOL with no action= binding, ignoring")
		return
	}
	merged := vars.Merge(e.rs.Config.Vars(), mapToVars(args))
	e.enqueueViolation(ctx, actionName, e.durationFor(args["duration"]), merged)
}

func mapToVars(m map[string]string) vars.Map {
	out := make(vars.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

