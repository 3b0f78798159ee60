// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"grimm.is/logvigil/internal/record"
)

func newTestEngine(t *testing.T, conf string) *Engine {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.conf")
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := New(Options{ConfigPaths: []string{path}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func withClock(sec int64) func() {
	prev := nowFn
	nowFn = func() int64 { return sec }
	return func() { nowFn = prev }
}

// TestScenario_Threshold reproduces S1: threshold=2 window=30s
// duration=60s action=block; five lines from 10.1.1.1 at seconds
// 100,100,101,101,102 all GET /foo. block fires exactly once after
// the 3rd line; unblock fires once at second 162 with no further
// hits.
func TestScenario_Threshold(t *testing.T) {
	e := newTestEngine(t, `
set threshold 2
set window 30
set duration 60
set action block
`)
	restore := withClock(100)
	defer restore()

	seconds := []int{100, 100, 101, 101, 102}
	for _, s := range seconds {
		nowFn = func() int64 { return int64(s) }
		e.HandleRecord(context.Background(), &record.LogRecord{
			Client: "10.1.1.1", Sec: s, URL: "/foo", Method: "GET",
		})
	}

	if e.QueueDepth() != 1 {
		t.Fatalf("QueueDepth() = %d, want 1 (block pending)", e.QueueDepth())
	}

	entries := e.queue.Entries()
	if entries[0].ExpireAt != 162 {
		t.Errorf("ExpireAt = %d, want 162 (102 + 60, refreshed by the last hit)", entries[0].ExpireAt)
	}

	fired := e.queue.Tick(162)
	if len(fired) != 1 || fired[0].ExpireAction != "unblock" {
		t.Fatalf("Tick(162) fired = %+v", fired)
	}
}

// TestScenario_WhitelistSilence reproduces S2: a silently-whitelisted
// client produces no violation and no counter movement.
func TestScenario_WhitelistSilence(t *testing.T) {
	e := newTestEngine(t, `
set threshold 1
set action block
`)
	e.HandleRecord(context.Background(), &record.LogRecord{
		Client: "127.0.0.1", Sec: 100, URL: "/foo", Method: "GET",
	})
	if e.QueueDepth() != 0 {
		t.Errorf("QueueDepth() = %d, want 0 for silent whitelist", e.QueueDepth())
	}
}

// TestScenario_TriggerLiteral reproduces S4: a bare-regex trigger with
// action/port vars fires once with the record's client bound.
func TestScenario_TriggerLiteral(t *testing.T) {
	e := newTestEngine(t, `
trigger action: notify port: 80 {
	^/w00tw00t
}
`)
	defer withClock(500)()

	e.HandleRecord(context.Background(), &record.LogRecord{
		Client: "1.2.3.4", Sec: 500, URL: "/w00tw00t.at.ISC.SANS", Method: "GET", Status: "404",
	})

	if e.QueueDepth() != 1 {
		t.Fatalf("QueueDepth() = %d, want 1", e.QueueDepth())
	}
	entries := e.queue.Entries()
	if entries[0].Args["client"] != "1.2.3.4" || entries[0].Args["port"] != "80" {
		t.Errorf("args = %+v", entries[0].Args)
	}
}

// TestScenario_Skip reproduces S5: a skip regex drops the record
// before whitelist evaluation; no counters move.
func TestScenario_Skip(t *testing.T) {
	e := newTestEngine(t, `
skip {
	\.css$
}
set threshold 1
set action block
`)
	e.HandleRecord(context.Background(), &record.LogRecord{
		Client: "9.9.9.9", Sec: 100, URL: "/style.css", Method: "GET",
	})
	if e.QueueDepth() != 0 {
		t.Errorf("QueueDepth() = %d, want 0 for skipped record", e.QueueDepth())
	}
}

// TestScenario_ControlFlush reproduces S6: two queued entries, a
// *FLUSH with a client filter drains only the matching one.
func TestScenario_ControlFlush(t *testing.T) {
	e := newTestEngine(t, `set duration 60`)
	e.queue.Enqueue(100, 60, "1.2.3.4=block", "unblock", map[string]string{"client": "1.2.3.4"})
	e.queue.Enqueue(100, 60, "5.6.7.8=block", "unblock", map[string]string{"client": "5.6.7.8"})

	e.HandleControl(context.Background(), &record.ControlCommand{
		Name: "FLUSH",
		Args: map[string]string{"client": "1.2.3.4"},
	})

	if e.QueueDepth() != 1 {
		t.Fatalf("QueueDepth() = %d, want 1 after targeted flush", e.QueueDepth())
	}
	if e.queue.Entries()[0].Args["client"] != "5.6.7.8" {
		t.Errorf("remaining entry = %+v", e.queue.Entries()[0])
	}
}

// TestScenario_OutOfOrder reproduces S7: threshold 2/30s with lines
// at seconds 200, 201, 170, 202 - 170 is retained but not counted;
// 202 crosses with two in-window predecessors.
func TestScenario_OutOfOrder(t *testing.T) {
	e := newTestEngine(t, `
set threshold 2
set window 30
set action block
`)
	defer withClock(200)()

	seconds := []int{200, 201, 170, 202}
	for i, s := range seconds {
		nowFn = func() int64 { return int64(s) }
		e.HandleRecord(context.Background(), &record.LogRecord{
			Client: "3.3.3.3", Sec: s, URL: "/x", Method: "GET",
		})
		if i < len(seconds)-1 && e.QueueDepth() != 0 {
			t.Fatalf("unexpected crossing at index %d (second %d)", i, s)
		}
	}
	if e.QueueDepth() != 1 {
		t.Fatalf("QueueDepth() = %d, want 1 after second 202 crosses", e.QueueDepth())
	}
}

func TestReload_PreservesStateOnConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.conf")
	os.WriteFile(path, []byte("set threshold 2"), 0o644)

	e, err := New(Options{ConfigPaths: []string{path}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	os.WriteFile(path, []byte("bogus keyword"), 0o644)
	if err := e.Reload(); err == nil {
		t.Fatal("expected Reload() to fail on bad config")
	}
	if e.rs.Config.Int("threshold", 0) != 2 {
		t.Error("Reload() should leave previous ruleset intact on failure")
	}
}
