// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ruleconfig

import (
	"strconv"
	"strings"

	"grimm.is/logvigil/internal/durationx"
	"grimm.is/logvigil/internal/vars"
)

// Config holds the flat scalar and list settings assigned via `set`
// statements. Later assignments of the same key win, matching the
// parser's single left-to-right pass.
type Config struct {
	scalars map[string]string
	lists   map[string][]string
}

func newConfig() *Config {
	return &Config{scalars: make(map[string]string), lists: make(map[string][]string)}
}

func (c *Config) setScalar(key, val string) {
	delete(c.lists, key)
	c.scalars[key] = val
}

func (c *Config) setList(key string, vals []string) {
	delete(c.scalars, key)
	c.lists[key] = vals
}

// String returns the scalar setting key, or def if unset.
func (c *Config) String(key, def string) string {
	if v, ok := c.scalars[key]; ok {
		return v
	}
	return def
}

// List returns the list setting key, falling back to a single-element
// list built from the scalar form if only a scalar was set, or nil.
func (c *Config) List(key string) []string {
	if v, ok := c.lists[key]; ok {
		return v
	}
	if v, ok := c.scalars[key]; ok {
		return []string{v}
	}
	return nil
}

// Bool coerces the scalar setting key per the DSL's boolean grammar:
// "yes", "true", "on", "1" (case-insensitive) are true; anything else,
// including an unset key, is def-or-false.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.scalars[key]
	if !ok {
		return def
	}
	return CoerceBool(v)
}

// CoerceBool applies the DSL's boolean grammar to a single token.
func CoerceBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "on", "1":
		return true
	default:
		return false
	}
}

// Duration parses the scalar setting key as a duration string (see
// internal/durationx), or returns def if unset.
func (c *Config) Duration(key string, def int) int {
	v, ok := c.scalars[key]
	if !ok {
		return def
	}
	return durationx.Parse(v)
}

// Int parses the scalar setting key as a bare integer, or returns def
// if unset or unparseable.
func (c *Config) Int(key string, def int) int {
	v, ok := c.scalars[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Vars returns the scalar settings as the base (lowest-priority)
// template variable layer.
func (c *Config) Vars() vars.Map {
	m := make(vars.Map, len(c.scalars))
	for k, v := range c.scalars {
		m[k] = v
	}
	return m
}
