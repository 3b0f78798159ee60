// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grimm.is/logvigil/internal/engine"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.conf")
	if err := os.WriteFile(path, []byte("set threshold 1\nset action block\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(engine.Options{ConfigPaths: []string{path}}, nil)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return New(Options{}, eng)
}

func TestLineReader_ReadsLinesThenEOF(t *testing.T) {
	r := strings.NewReader("one\ntwo\n")
	lr := newLineReader(r)
	defer lr.close()

	line, ok, eof := lr.readLine()
	if !ok || eof || line != "one" {
		t.Fatalf("first read = %q, %v, %v", line, ok, eof)
	}
	line, ok, eof = lr.readLine()
	if !ok || eof || line != "two" {
		t.Fatalf("second read = %q, %v, %v", line, ok, eof)
	}
	_, ok, eof = lr.readLine()
	if ok || !eof {
		t.Fatalf("expected EOF, got ok=%v eof=%v", ok, eof)
	}
}

func TestHandleLine_FileSwitchSkipsNextLine(t *testing.T) {
	d := newTestDaemon(t)
	skip := false

	d.handleLine(context.Background(), "==> /var/log/new.log <==", &skip)
	if !skip {
		t.Fatal("expected skipNextLine to be set after a file-switch marker")
	}
	if d.currentFile != "/var/log/new.log" {
		t.Errorf("currentFile = %q", d.currentFile)
	}
}

func TestHandleLine_ControlReload(t *testing.T) {
	d := newTestDaemon(t)
	skip := false
	d.handleLine(context.Background(), "*HUP", &skip)
	if !d.reloadFlag.Load() {
		t.Error("expected reloadFlag to be set after *HUP")
	}
}

func TestHandleLine_ControlExit(t *testing.T) {
	d := newTestDaemon(t)
	skip := false
	d.handleLine(context.Background(), "*EXIT status=3", &skip)
	if !d.shutdownFlag.Load() {
		t.Error("expected shutdownFlag to be set after *EXIT")
	}
	if d.exitStatus.Load() != 3 {
		t.Errorf("exitStatus = %d, want 3", d.exitStatus.Load())
	}
}

func TestHandleLine_MalformedIsSilentlyDropped(t *testing.T) {
	d := newTestDaemon(t)
	skip := false
	d.handleLine(context.Background(), "not a valid log line at all", &skip)
	if skip {
		t.Error("malformed line should not set skipNextLine")
	}
}
