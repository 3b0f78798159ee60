// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package trigger evaluates per-record predicates (field =, !=, =~,
// !~) compiled from the rule DSL, each optionally guarded by its own
// sliding-window threshold.
package trigger

import (
	"regexp"

	"grimm.is/logvigil/internal/record"
)

// Op is a trigger comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpMatch
	OpNoMatch
)

// Trigger is one compiled predicate from a `trigger { ... }` block.
// Regex is non-nil only for OpMatch/OpNoMatch, compiled once at
// config load. Threshold of 0 means the trigger fires immediately on
// first hit; a positive Threshold routes hits through a private
// sliding-window counter instead (see internal/ratewindow).
type Trigger struct {
	Field     string
	Op        Op
	Operand   string
	Regex     *regexp.Regexp
	Vars      map[string]string
	Threshold int
	Window    int
}

// fieldValue resolves a LogRecord field by name. Unknown field names
// resolve to the empty string, which simply never matches a
// configured operand.
func fieldValue(rec *record.LogRecord, field string) string {
	switch field {
	case "client":
		return rec.Client
	case "url":
		return rec.URL
	case "method":
		return rec.Method
	case "protocol":
		return rec.Protocol
	case "status":
		return rec.Status
	case "bytes":
		return rec.Bytes
	case "referrer":
		return rec.Referrer
	case "user_agent":
		return rec.UserAgent
	case "date":
		return rec.Date
	case "time":
		return rec.Time
	case "file":
		return rec.File
	default:
		return ""
	}
}

// Match reports whether t fires against rec. The per-trigger variables
// for action templating are read from t.Vars by the caller on a hit.
func (t *Trigger) Match(rec *record.LogRecord) bool {
	val := fieldValue(rec, t.Field)
	switch t.Op {
	case OpEq:
		return val == t.Operand
	case OpNeq:
		return val != t.Operand
	case OpMatch:
		return t.Regex.MatchString(val)
	case OpNoMatch:
		return !t.Regex.MatchString(val)
	default:
		return false
	}
}

// Set is the ordered collection of triggers from one ruleset.
// Multitrigger controls whether evaluation stops at the first hit
// (false, the default) or continues through every trigger (true).
type Set struct {
	Triggers    []*Trigger
	Multitrigger bool
}

// Evaluate walks the configured triggers in order against rec,
// returning every trigger that fired. When Multitrigger is false,
// evaluation stops at (and returns only) the first hit.
func (s *Set) Evaluate(rec *record.LogRecord) []*Trigger {
	var hits []*Trigger
	for _, t := range s.Triggers {
		if t.Match(rec) {
			hits = append(hits, t)
			if !s.Multitrigger {
				break
			}
		}
	}
	return hits
}
