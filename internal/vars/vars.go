// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package vars implements the %(name) template language used by action
// arguments and message templates, plus the layered variable-map merge
// that feeds it (config defaults, per-rule vars, record fields,
// invocation-time args — later layers win).
package vars

import "strings"

// Map is a flat, immutable-by-convention variable binding used for
// template expansion. Callers build one with Merge rather than mutating
// a shared map.
type Map map[string]string

// Merge overlays each layer onto the previous one, later layers
// winning, and returns a new Map. nil layers are skipped.
func Merge(layers ...Map) Map {
	out := make(Map)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Expand replaces every %(name) occurrence in s with its binding in m,
// or the empty string if name is unbound. Expansion is single-pass: a
// substituted value is never itself rescanned for %(...) markers, so
// expansion of a binding-free template is idempotent.
func Expand(s string, m Map) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		start := strings.Index(s[i:], "%(")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		b.WriteString(s[i:start])

		end := strings.IndexByte(s[start+2:], ')')
		if end < 0 {
			b.WriteString(s[start:])
			break
		}
		end += start + 2

		name := s[start+2 : end]
		b.WriteString(m[name])
		i = end + 1
	}

	return b.String()
}

// ExpandAll expands every string in args, space-joining any that came
// from a list value is the caller's responsibility (the DSL's list
// settings are already flattened by the time they reach here).
func ExpandAll(args []string, m Map) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Expand(a, m)
	}
	return out
}

// ExpandJoined expands every element of args and joins them with a
// single space, matching the "print" action's argument concatenation.
func ExpandJoined(args []string, m Map) string {
	return strings.Join(ExpandAll(args, m), " ")
}
