// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package durationx

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"90", 90},
		{"30s", 30},
		{"1h", 3600},
		{"1w2d3h4m5s", 7*86400 + 2*86400 + 3*3600 + 4*60 + 5},
		{"", 0},
		{"2d", 2 * 86400},
	}

	for _, c := range cases {
		if got := Parse(c.in); got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParse_UnknownTrailingUnit(t *testing.T) {
	// "10x" should parse the 10 (no unit applies, since x is unknown -
	// it is ignored per the warn-and-continue contract) and contribute 0.
	if got := Parse("10x"); got != 0 {
		t.Errorf("Parse(10x) = %d, want 0", got)
	}
}
