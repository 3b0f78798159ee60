// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package action resolves named actions (print / exec / exit / null)
// and dispatches them with template-expanded arguments, mirroring the
// four action types the rule DSL can declare.
package action

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"grimm.is/logvigil/internal/errors"
	"grimm.is/logvigil/internal/logging"
	"grimm.is/logvigil/internal/vars"
)

// Type is one of the four built-in action kinds.
type Type int

const (
	TypePrint Type = iota
	TypeExec
	TypeExit
	TypeNull
)

// Action is a compiled, named action ready for dispatch. Args are the
// raw (unexpanded) template strings from config; Dispatch expands
// them against the caller-supplied variable map at fire time.
type Action struct {
	Name string
	Type Type
	Args []string
}

// ShutdownFunc is invoked by an "exit" action to run the daemon's
// graceful shutdown path. status is the process exit code; msg is an
// optional logged message.
type ShutdownFunc func(status int, msg string)

// Dispatcher resolves action names to compiled Actions and executes
// them, honoring dry-run/debug config.
type Dispatcher struct {
	actions map[string]*Action
	log     *logging.Logger
	dryRun  bool
	debug   bool
	shutdown ShutdownFunc
}

// NewDispatcher returns a Dispatcher over the given named actions.
func NewDispatcher(actions map[string]*Action, shutdown ShutdownFunc, dryRun, debug bool) *Dispatcher {
	return &Dispatcher{
		actions:  actions,
		log:      logging.Default().WithComponent("action"),
		dryRun:   dryRun,
		debug:    debug,
		shutdown: shutdown,
	}
}

// Dispatch resolves name and fires it with vars expanded against m.
// An unknown action name is logged and treated as a no-op, matching
// the never-abort-the-daemon posture for action-layer failures.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, m vars.Map) {
	act, ok := d.actions[name]
	if !ok {
		d.log.Warn("unknown action", "name", name)
		return
	}

	switch act.Type {
	case TypePrint:
		d.doPrint(act, m)
	case TypeExec:
		d.doExec(ctx, act, m)
	case TypeExit:
		d.doExit(act, m)
	case TypeNull:
		// no-op
	}
}

func (d *Dispatcher) doPrint(act *Action, m vars.Map) {
	d.log.Info(vars.ExpandJoined(act.Args, m))
}

func (d *Dispatcher) doExec(ctx context.Context, act *Action, m vars.Map) {
	expanded := vars.ExpandAll(act.Args, m)
	if len(expanded) == 0 {
		return
	}

	if d.dryRun {
		expanded = append([]string{"echo"}, expanded...)
	}

	cmd := exec.CommandContext(ctx, expanded[0], expanded[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		fields := []any{"command", strings.Join(expanded, " "), "error", err, "output", string(out)}
		if d.debug {
			fields = append(fields, "vars", m)
		}
		d.log.Error("action exec failed", fields...)
		return
	}
	if d.debug {
		d.log.Debug("action exec ok", "command", strings.Join(expanded, " "), "output", string(out))
	}
}

func (d *Dispatcher) doExit(act *Action, m vars.Map) {
	status := 0
	var msg string

	expanded := vars.ExpandAll(act.Args, m)
	if len(expanded) > 0 {
		if n, err := strconv.Atoi(expanded[0]); err == nil {
			status = n
			expanded = expanded[1:]
		}
	}
	if len(expanded) > 0 {
		msg = strings.Join(expanded, " ")
		d.log.Info(msg)
	}

	if d.shutdown != nil {
		d.shutdown(status, msg)
	}
}

// Validate checks that act.Type is one of the known constants; used
// by config loading to reject malformed action blocks early.
func Validate(act *Action) error {
	switch act.Type {
	case TypePrint, TypeExec, TypeExit, TypeNull:
		return nil
	default:
		return errors.Errorf(errors.KindConfig, "unknown action type for %q", act.Name)
	}
}
