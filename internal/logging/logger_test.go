// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import "testing"

func TestWithComponent(t *testing.T) {
	l := New(Options{Verbose: true})
	child := l.WithComponent("engine")
	if child == l {
		t.Fatal("WithComponent should return a distinct logger")
	}
	// Should not panic with no handlers attached beyond stderr.
	child.Info("hit", "client", "1.2.3.4")
}

func TestDefaultLogger(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() must never be nil")
	}
	prev := Default()
	SetDefault(New(Options{Debug: true}))
	if Default() == prev {
		t.Fatal("SetDefault should replace the package default")
	}
	SetDefault(prev)
}
