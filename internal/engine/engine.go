// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package engine owns the correlation pipeline: it wires the parsed
// ruleset's whitelists, triggers, and actions to the sliding-window
// counter and violation queue, and exposes the single-threaded
// operations the main loop drives (HandleRecord, HandleControl, Tick,
// Reload, FlushAll, Dump).
package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"grimm.is/logvigil/internal/action"
	"grimm.is/logvigil/internal/durationx"
	"grimm.is/logvigil/internal/logging"
	"grimm.is/logvigil/internal/metrics"
	"grimm.is/logvigil/internal/ratewindow"
	"grimm.is/logvigil/internal/record"
	"grimm.is/logvigil/internal/ruleconfig"
	"grimm.is/logvigil/internal/trigger"
	"grimm.is/logvigil/internal/vars"
	"grimm.is/logvigil/internal/vqueue"
	"grimm.is/logvigil/internal/whitelist"
)

// Options configures a new Engine. ConfigPaths and Defines feed
// ruleconfig.Load; DryRun/Debug propagate to the action dispatcher.
type Options struct {
	ConfigPaths []string
	Defines     map[string]string
	DryRun      bool
	Debug       bool
	Verbose     bool
	Metrics     *metrics.Registry
}

// Engine is the single-owner correlation state: the compiled
// ruleset, the hit counters, the violation queue, and the action
// dispatcher. There is no parallel mutation - every method is called
// from the main loop between input reads.
type Engine struct {
	opts Options
	log  *logging.Logger

	rs         *ruleconfig.Ruleset
	whitelist  *whitelist.Set
	dispatcher *action.Dispatcher

	globalCounter   *ratewindow.Counter
	triggerCounters map[*trigger.Trigger]*ratewindow.Counter

	queue *vqueue.Queue

	hitField string
	window   int
	duration int

	// per-file rollover tracking for the CLEAR event.
	prevDate map[string]string
	prevTZ   map[string]string

	shutdownFn action.ShutdownFunc
}

// New loads the ruleset from opts and constructs a ready-to-run
// Engine. shutdown is invoked by an "exit" action or an *EXIT control
// line.
func New(opts Options, shutdown action.ShutdownFunc) (*Engine, error) {
	e := &Engine{
		opts:       opts,
		log:        logging.Default().WithComponent("engine"),
		prevDate:   make(map[string]string),
		prevTZ:     make(map[string]string),
		shutdownFn: shutdown,
	}

	if err := e.load(); err != nil {
		return nil, err
	}

	e.queue = vqueue.New()
	return e, nil
}

func (e *Engine) load() error {
	rs, err := ruleconfig.Load(e.opts.ConfigPaths, e.opts.Defines)
	if err != nil {
		return err
	}

	wset, err := rs.WhitelistBuild.Build()
	if err != nil {
		return err
	}

	e.rs = rs
	e.whitelist = wset
	e.dispatcher = action.NewDispatcher(rs.Actions, e.shutdownFn, e.opts.DryRun, e.opts.Debug)

	e.hitField = rs.Config.String("hit", "client")
	e.window = rs.Config.Duration("window", 30)
	e.duration = rs.Config.Duration("duration", 60)

	e.globalCounter = ratewindow.New(e.window)
	e.triggerCounters = make(map[*trigger.Trigger]*ratewindow.Counter)
	for _, tr := range rs.Triggers.Triggers {
		if tr.Threshold > 0 {
			w := tr.Window
			if w == 0 {
				w = e.window
			}
			e.triggerCounters[tr] = ratewindow.New(w)
		}
	}

	return nil
}

// Reload re-parses every config file and resets engine-owned caches.
// Per the fatal-on-config-error contract, a reload that fails to
// parse leaves the previous ruleset, counters, and queue untouched.
func (e *Engine) Reload() error {
	prev := *e
	if err := e.load(); err != nil {
		*e = prev
		return err
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.ReloadsTotal.Inc()
	}
	e.log.Info("config reloaded")
	return nil
}

// recordVars builds the record-derived template variable layer.
func recordVars(rec *record.LogRecord) vars.Map {
	return vars.Map{
		"client":     rec.Client,
		"date":       rec.Date,
		"time":       rec.Time,
		"url":        rec.URL,
		"method":     rec.Method,
		"protocol":   rec.Protocol,
		"status":     rec.Status,
		"bytes":      rec.Bytes,
		"referrer":   rec.Referrer,
		"user_agent": rec.UserAgent,
		"file":       rec.File,
	}
}

// hitKey resolves the configured hit-field value from a record,
// defaulting to client when the field is unrecognized.
func (e *Engine) hitKey(rec *record.LogRecord) string {
	switch e.hitField {
	case "client":
		return rec.Client
	case "url":
		return rec.URL
	default:
		return rec.Client
	}
}

// enqueueViolation performs the Enqueue/fire-immediate-action dance
// shared by trigger hits, threshold crossings, and *VIOL injections.
func (e *Engine) enqueueViolation(ctx context.Context, actionName string, duration int, m vars.Map) {
	if actionName == "" {
		return
	}
	client := m["client"]
	vkey := vqueue.Key(client, actionName)

	isNew := e.queue.Enqueue(nowSeconds(), int64(duration), vkey, expireActionFor(actionName), m)
	if isNew {
		if e.opts.Metrics != nil {
			e.opts.Metrics.ViolationsTotal.WithLabelValues(actionName).Inc()
		}
		e.dispatcher.Dispatch(ctx, actionName, m)
	}
}

// expireActionFor resolves the paired expiry action name for
// actionName: always "un"+name (e.g. block -> unblock). No "expire"
// setting from the config is consulted.
func expireActionFor(actionName string) string {
	return "un" + actionName
}

func (e *Engine) checkRollover(rec *record.LogRecord) {
	if prevDate, ok := e.prevDate[rec.File]; ok && prevDate != rec.Date {
		e.clear()
	} else if prevTZ, ok := e.prevTZ[rec.File]; ok && prevTZ != rec.TZ {
		e.clear()
	}
	e.prevDate[rec.File] = rec.Date
	e.prevTZ[rec.File] = rec.TZ
}

func (e *Engine) clear() {
	e.globalCounter.Clear()
	for _, c := range e.triggerCounters {
		c.Clear()
	}
	e.whitelist.ClearCache()
}

// Dump writes every live queue entry's argument map (sorted keys)
// plus a human-readable expiration field to w.
func (e *Engine) Dump(w io.Writer) error {
	entries := e.queue.Entries()
	for _, ent := range entries {
		keys := make([]string, 0, len(ent.Args))
		for k := range ent.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s=%s ", k, ent.Args[k]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "expiration=%s\n", time.Unix(ent.ExpireAt, 0).Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

// QueueDepth reports the number of live violation-queue entries, for
// metrics.
func (e *Engine) QueueDepth() int { return e.queue.Len() }

// SyslogConfig builds a logging.SyslogConfig from the loaded ruleset's
// syslog_host/syslog_port/syslog_protocol/syslog_tag/syslog_facility
// settings. Enabled reflects only the config file's own "syslog"
// setting; the command line's -s/-S override is applied by the caller.
func (e *Engine) SyslogConfig() logging.SyslogConfig {
	cfg := logging.DefaultSyslogConfig()
	cfg.Enabled = e.rs.Config.Bool("syslog", false)
	cfg.Host = e.rs.Config.String("syslog_host", cfg.Host)
	cfg.Port = e.rs.Config.Int("syslog_port", cfg.Port)
	cfg.Protocol = e.rs.Config.String("syslog_protocol", cfg.Protocol)
	cfg.Tag = e.rs.Config.String("syslog_tag", cfg.Tag)
	cfg.Facility = e.rs.Config.Int("syslog_facility", cfg.Facility)
	return cfg
}

// nowFn is the injectable wall-clock source; overridden in tests.
var nowFn = func() int64 { return time.Now().Unix() }

func nowSeconds() int64 {
	return nowFn()
}

// durationFor resolves a trigger/control duration override, falling
// back to the engine's configured default.
func (e *Engine) durationFor(override string) int {
	if override == "" {
		return e.duration
	}
	return durationx.Parse(override)
}
