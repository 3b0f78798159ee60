// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package durationx parses the duration syntax used throughout the
// logvigil config DSL: a concatenation of N{w,d,h,m,s} segments, or a
// bare integer interpreted as seconds.
package durationx

import (
	"strconv"
	"strings"

	"grimm.is/logvigil/internal/logging"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
)

var unitSeconds = map[byte]int{
	'w': secondsPerWeek,
	'd': secondsPerDay,
	'h': secondsPerHour,
	'm': secondsPerMinute,
	's': 1,
}

// Parse converts a duration string such as "1w2d3h4m5s" or a bare "90"
// into seconds. Unknown trailing characters are logged and ignored
// rather than rejected, matching the DSL's tolerant parsing.
func Parse(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// Bare integer: the whole string is a number of seconds.
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	total := 0
	num := strings.Builder{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			num.WriteByte(c)
			continue
		}
		if num.Len() == 0 {
			logging.Default().Warn("durationx: unexpected character, ignoring", "char", string(c), "input", s)
			continue
		}
		n, err := strconv.Atoi(num.String())
		num.Reset()
		if err != nil {
			continue
		}
		secs, ok := unitSeconds[c]
		if !ok {
			logging.Default().Warn("durationx: unknown unit, ignoring", "unit", string(c), "input", s)
			continue
		}
		total += n * secs
	}

	// A trailing bare integer with no unit suffix counts as seconds.
	if num.Len() > 0 {
		if n, err := strconv.Atoi(num.String()); err == nil {
			total += n
		}
	}

	return total
}
