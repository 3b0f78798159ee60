// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package vars

import "testing"

func TestExpand(t *testing.T) {
	m := Map{"client": "1.2.3.4", "port": "80"}

	got := Expand("%(date) %(time) VIOLATION %(client) %(port)", m)
	want := "  VIOLATION 1.2.3.4 80"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpand_Undefined(t *testing.T) {
	if got := Expand("%(missing)", Map{}); got != "" {
		t.Errorf("Expand(undefined) = %q, want empty", got)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	m := Map{"x": "plain-value"}
	once := Expand("%(x)", m)
	twice := Expand(once, m)
	if once != twice {
		t.Errorf("expansion not idempotent: %q != %q", once, twice)
	}
}

func TestMerge_LaterWins(t *testing.T) {
	a := Map{"x": "1", "y": "1"}
	b := Map{"x": "2"}
	got := Merge(a, b)
	if got["x"] != "2" || got["y"] != "1" {
		t.Errorf("Merge() = %+v", got)
	}
}

func TestExpandJoined(t *testing.T) {
	m := Map{"client": "9.9.9.9"}
	got := ExpandJoined([]string{"block", "%(client)"}, m)
	if got != "block 9.9.9.9" {
		t.Errorf("ExpandJoined() = %q", got)
	}
}
