// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ruleconfig implements the hand-written tokenizer and
// recursive-descent parser for the rule DSL: set/action/whitelist/
// skip/trigger blocks and file includes.
package ruleconfig

import (
	"fmt"
	"strings"

	"grimm.is/logvigil/internal/errors"
)

// TokenKind classifies one lexed token.
type TokenKind int

const (
	TWord TokenKind = iota
	TString
	TLBrace
	TRBrace
	TInclude
	TEOF
)

// Token is one lexical unit, annotated with its source position for
// fatal-error context reporting.
type Token struct {
	Kind  TokenKind
	Value string
	File  string
	Line  int
}

// tokenize splits the contents of one config file into a flat token
// stream. Comments ("#" to end of line) and blank lines are
// discarded. Quoted strings support no escapes and no nesting.
func tokenize(file string, src []byte) ([]Token, error) {
	var toks []Token
	line := 1
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '{':
			toks = append(toks, Token{Kind: TLBrace, Value: "{", File: file, Line: line})
			i++
		case c == '}':
			toks = append(toks, Token{Kind: TRBrace, Value: "}", File: file, Line: line})
			i++
		case c == '"' || c == '\'':
			quote := c
			start := i + 1
			j := start
			for j < n && src[j] != quote {
				if src[j] == '\n' {
					line++
				}
				j++
			}
			if j >= n {
				return nil, errors.Errorf(errors.KindConfig, "%s:%d: unterminated quoted string", file, line)
			}
			toks = append(toks, Token{Kind: TString, Value: string(src[start:j]), File: file, Line: line})
			i = j + 1
		case c == '<':
			j := i + 1
			for j < n && src[j] != '>' {
				if src[j] == '\n' {
					line++
				}
				j++
			}
			if j >= n {
				return nil, errors.Errorf(errors.KindConfig, "%s:%d: unterminated include directive", file, line)
			}
			toks = append(toks, Token{Kind: TInclude, Value: string(src[i+1 : j]), File: file, Line: line})
			i = j + 1
		default:
			start := i
			for i < n && !isDelimiter(src[i]) {
				i++
			}
			if i == start {
				// Stray delimiter byte with no handler above; skip it
				// rather than looping forever.
				i++
				continue
			}
			toks = append(toks, Token{Kind: TWord, Value: string(src[start:i]), File: file, Line: line})
		}
	}

	toks = append(toks, Token{Kind: TEOF, Value: "", File: file, Line: line})
	return toks, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '"', '\'', '<', '#':
		return true
	default:
		return false
	}
}

// contextError formats a fatal parse error naming the offending token
// and the following (up to) 9 tokens, per the DSL's fatal-on-syntax-
// error contract.
func contextError(toks []Token, at int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	end := at + 10
	if end > len(toks) {
		end = len(toks)
	}

	var ctx []string
	for _, t := range toks[at:end] {
		ctx = append(ctx, tokenText(t))
	}

	tok := toks[at]
	return errors.Errorf(errors.KindConfig, "%s:%d: %s (near: %s)", tok.File, tok.Line, msg, strings.Join(ctx, " "))
}

func tokenText(t Token) string {
	switch t.Kind {
	case TLBrace:
		return "{"
	case TRBrace:
		return "}"
	case TString:
		return `"` + t.Value + `"`
	case TInclude:
		return "<" + t.Value + ">"
	case TEOF:
		return "<eof>"
	default:
		return t.Value
	}
}
