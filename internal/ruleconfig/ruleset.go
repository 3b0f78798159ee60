// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ruleconfig

import (
	"regexp"

	"grimm.is/logvigil/internal/action"
	"grimm.is/logvigil/internal/trigger"
	"grimm.is/logvigil/internal/whitelist"
)

// knownDirectives are preamble keys consumed by the engine itself
// rather than passed through as template variables.
var knownDirectives = map[string]struct{}{
	"action":    {},
	"duration":  {},
	"threshold": {},
	"window":    {},
	"expire":    {},
	"hit":       {},
}

// Ruleset is everything parsed out of one or more config files: the
// flat Config settings plus the compiled rule tables consulted by the
// engine on every record.
type Ruleset struct {
	Config          *Config
	Actions         map[string]*action.Action
	WhitelistBuild  *whitelist.Builder
	Skip            *regexp.Regexp
	Triggers        *trigger.Set
	ControlVars     map[string]map[string]string // control-line name -> directives (e.g. VIOL -> action:, duration:)
}

func newRuleset() *Ruleset {
	return &Ruleset{
		Config:         newConfig(),
		Actions:        make(map[string]*action.Action),
		WhitelistBuild: whitelist.NewBuilder(),
		Triggers:       &trigger.Set{},
		ControlVars:    make(map[string]map[string]string),
	}
}

// splitPreamble separates the engine-reserved directive keys from
// arbitrary per-rule template variables in a parsed k:v preamble.
func splitPreamble(raw map[string]string) (directives, vars map[string]string) {
	directives = make(map[string]string)
	vars = make(map[string]string)
	for k, v := range raw {
		if _, known := knownDirectives[k]; known {
			directives[k] = v
		} else {
			vars[k] = v
		}
	}
	return directives, vars
}
