// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ruleconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"grimm.is/logvigil/internal/action"
	"grimm.is/logvigil/internal/errors"
	"grimm.is/logvigil/internal/trigger"
)

// Load parses every config file in paths, in order, into one merged
// Ruleset, then applies defines (from -D KEY=VAL) as final scalar
// overrides.
func Load(paths []string, defines map[string]string) (*Ruleset, error) {
	rs := newRuleset()
	visited := make(map[string]bool)

	for _, p := range paths {
		if err := loadFile(rs, p, visited); err != nil {
			return nil, err
		}
	}

	for k, v := range defines {
		rs.Config.setScalar(k, v)
	}

	return rs, nil
}

func loadFile(rs *Ruleset, path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if visited[abs] {
		return nil
	}
	visited[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindConfig, "cannot read config file %q", path)
	}

	toks, err := tokenize(path, data)
	if err != nil {
		return err
	}

	p := &parser{toks: toks, baseDir: filepath.Dir(path), rs: rs, visited: visited}
	return p.parseStatements()
}

type parser struct {
	toks    []Token
	pos     int
	baseDir string
	rs      *Ruleset
	visited map[string]bool
}

func (p *parser) cur() Token { return p.toks[p.pos] }
func (p *parser) advance()   { p.pos++ }

func (p *parser) errf(format string, args ...any) error {
	return contextError(p.toks, p.pos, format, args...)
}

func (p *parser) parseStatements() error {
	for p.cur().Kind != TEOF {
		tok := p.cur()

		switch tok.Kind {
		case TInclude:
			if err := p.parseInclude(tok.Value); err != nil {
				return err
			}
			p.advance()
		case TWord:
			if err := p.parseTopLevel(tok.Value); err != nil {
				return err
			}
		default:
			return p.errf("unexpected token %q at top level", tokenText(tok))
		}
	}
	return nil
}

func (p *parser) parseTopLevel(keyword string) error {
	switch keyword {
	case "set":
		return p.parseSet()
	case "action":
		return p.parseAction()
	case "whitelist":
		return p.parseWhitelist()
	case "skip":
		return p.parseSkip()
	case "trigger":
		return p.parseTrigger()
	default:
		return p.errf("unknown top-level keyword %q", keyword)
	}
}

func (p *parser) parseInclude(raw string) error {
	paths, err := p.resolveInclude(raw)
	if err != nil {
		return err
	}
	for _, f := range paths {
		if err := loadFile(p.rs, f, p.visited); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) resolveInclude(raw string) ([]string, error) {
	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}

	if strings.ContainsAny(raw, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "bad include glob %q", raw)
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, p.errf("missing include %q", raw)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "cannot read include directory %q", raw)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		sort.Strings(files)
		return files, nil
	}

	return []string{path}, nil
}

// parsePreamble consumes zero or more "key:" VALUE pairs that precede
// a block body.
func (p *parser) parsePreamble() (map[string]string, error) {
	m := make(map[string]string)
	for p.cur().Kind == TWord && strings.HasSuffix(p.cur().Value, ":") {
		key := strings.TrimSuffix(p.cur().Value, ":")
		p.advance()

		val := p.cur()
		if val.Kind != TWord && val.Kind != TString {
			return nil, p.errf("expected value for preamble key %q", key)
		}
		m[key] = val.Value
		p.advance()
	}
	return m, nil
}

func (p *parser) expectLBrace() error {
	if p.cur().Kind != TLBrace {
		return p.errf("expected '{'")
	}
	p.advance()
	return nil
}

// blockBody collects every token up to (and consuming) the matching
// '}'. Block bodies never nest, so a bare depth count suffices.
func (p *parser) blockBody() ([]Token, error) {
	var body []Token
	for p.cur().Kind != TRBrace {
		if p.cur().Kind == TEOF {
			return nil, p.errf("unterminated block, expected '}'")
		}
		body = append(body, p.cur())
		p.advance()
	}
	p.advance() // consume '}'
	return body, nil
}

func (p *parser) parseSet() error {
	p.advance() // "set"
	if p.cur().Kind != TWord {
		return p.errf("expected setting name after 'set'")
	}
	key := p.cur().Value
	p.advance()

	if p.cur().Kind == TLBrace {
		p.advance()
		var vals []string
		for p.cur().Kind != TRBrace {
			if p.cur().Kind == TEOF {
				return p.errf("unterminated set list, expected '}'")
			}
			vals = append(vals, p.cur().Value)
			p.advance()
		}
		p.advance()
		p.rs.Config.setList(key, vals)
		return nil
	}

	if p.cur().Kind != TWord && p.cur().Kind != TString {
		return p.errf("expected value after 'set %s'", key)
	}
	p.rs.Config.setScalar(key, p.cur().Value)
	p.advance()
	return nil
}

func (p *parser) parseAction() error {
	p.advance() // "action"
	if p.cur().Kind != TWord {
		return p.errf("expected action name")
	}
	name := p.cur().Value
	p.advance()

	if _, err := p.parsePreamble(); err != nil {
		return err
	}

	if err := p.expectLBrace(); err != nil {
		return err
	}
	body, err := p.blockBody()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return p.errf("empty action %q body", name)
	}

	typ, err := parseActionType(body[0].Value)
	if err != nil {
		return p.errf("action %q: %v", name, err)
	}

	args := make([]string, 0, len(body)-1)
	for _, t := range body[1:] {
		args = append(args, t.Value)
	}

	act := &action.Action{Name: name, Type: typ, Args: args}
	if err := action.Validate(act); err != nil {
		return err
	}
	p.rs.Actions[name] = act
	return nil
}

func parseActionType(s string) (action.Type, error) {
	switch s {
	case "print":
		return action.TypePrint, nil
	case "exec":
		return action.TypeExec, nil
	case "exit":
		return action.TypeExit, nil
	case "null":
		return action.TypeNull, nil
	default:
		return 0, errors.Errorf(errors.KindConfig, "unknown action type %q", s)
	}
}

func (p *parser) parseWhitelist() error {
	p.advance() // "whitelist"
	if _, err := p.parsePreamble(); err != nil {
		return err
	}
	if err := p.expectLBrace(); err != nil {
		return err
	}
	body, err := p.blockBody()
	if err != nil {
		return err
	}

	var pendingCIDR string
	flush := func(class string) error {
		if pendingCIDR == "" {
			return nil
		}
		if class == "" {
			class = "whitelisted"
		}
		prefix, err := parseWhitelistCIDR(pendingCIDR)
		if err != nil {
			return err
		}
		p.rs.WhitelistBuild.Add(prefix, class)
		pendingCIDR = ""
		return nil
	}

	for _, t := range body {
		v := t.Value
		if strings.HasPrefix(v, "@") {
			if err := flush(strings.TrimPrefix(v, "@")); err != nil {
				return p.errf("whitelist entry: %v", err)
			}
			continue
		}
		if err := flush(""); err != nil {
			return p.errf("whitelist entry: %v", err)
		}
		pendingCIDR = v
	}
	if err := flush(""); err != nil {
		return p.errf("whitelist entry: %v", err)
	}

	return nil
}

func (p *parser) parseSkip() error {
	p.advance() // "skip"
	if _, err := p.parsePreamble(); err != nil {
		return err
	}
	if err := p.expectLBrace(); err != nil {
		return err
	}
	body, err := p.blockBody()
	if err != nil {
		return err
	}

	var parts []string
	for _, t := range body {
		parts = append(parts, t.Value)
	}
	if len(parts) == 0 {
		return nil
	}

	joined := "(?:" + strings.Join(parts, ")|(?:") + ")"
	re, err := regexp.Compile(joined)
	if err != nil {
		return p.errf("skip: invalid regex alternation: %v", err)
	}
	if p.rs.Skip == nil {
		p.rs.Skip = re
	} else {
		combined, err := regexp.Compile(p.rs.Skip.String() + "|" + joined)
		if err != nil {
			return p.errf("skip: invalid combined regex: %v", err)
		}
		p.rs.Skip = combined
	}
	return nil
}

func (p *parser) parseTrigger() error {
	p.advance() // "trigger"
	preamble, err := p.parsePreamble()
	if err != nil {
		return err
	}
	directives, vars := splitPreamble(preamble)

	if err := p.expectLBrace(); err != nil {
		return err
	}
	body, err := p.blockBody()
	if err != nil {
		return err
	}

	threshold := 0
	if v, ok := directives["threshold"]; ok {
		threshold, _ = strconv.Atoi(v)
	}
	window := 0
	if v, ok := directives["window"]; ok {
		window, _ = strconv.Atoi(v)
	}

	i := 0
	for i < len(body) {
		tok := body[i]

		// Three-token form: $FIELD OP OPERAND.
		if tok.Kind == TWord && strings.HasPrefix(tok.Value, "$") && i+2 < len(body) {
			field := strings.TrimPrefix(tok.Value, "$")
			opTok := body[i+1]
			operandTok := body[i+2]
			op, ok := parseOp(opTok.Value)
			if ok {
				tr, err := buildTrigger(field, op, operandTok.Value, directives, vars)
				if err != nil {
					return p.errf("trigger: %v", err)
				}
				tr.Threshold = threshold
				tr.Window = window
				p.rs.Triggers.Triggers = append(p.rs.Triggers.Triggers, tr)
				i += 3
				continue
			}
		}

		// Bare regex: implicitly $url ~ REGEX.
		tr, err := buildTrigger("url", trigger.OpMatch, tok.Value, directives, vars)
		if err != nil {
			return p.errf("trigger: %v", err)
		}
		tr.Threshold = threshold
		tr.Window = window
		p.rs.Triggers.Triggers = append(p.rs.Triggers.Triggers, tr)
		i++
	}

	return nil
}

func parseOp(s string) (trigger.Op, bool) {
	switch s {
	case "=":
		return trigger.OpEq, true
	case "!=":
		return trigger.OpNeq, true
	case "~":
		return trigger.OpMatch, true
	case "!~":
		return trigger.OpNoMatch, true
	default:
		return 0, false
	}
}

func buildTrigger(field string, op trigger.Op, operand string, directives, vars map[string]string) (*trigger.Trigger, error) {
	tr := &trigger.Trigger{Field: field, Op: op, Operand: operand, Vars: vars}
	if op == trigger.OpMatch || op == trigger.OpNoMatch {
		re, err := regexp.Compile(operand)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindConfig, "invalid trigger regex %q", operand)
		}
		tr.Regex = re
	}
	if actionName, ok := directives["action"]; ok {
		tr.Vars = vars
		if tr.Vars == nil {
			tr.Vars = make(map[string]string)
		}
		tr.Vars["action"] = actionName
	}
	if dur, ok := directives["duration"]; ok {
		if tr.Vars == nil {
			tr.Vars = make(map[string]string)
		}
		tr.Vars["duration"] = dur
	}
	return tr, nil
}
