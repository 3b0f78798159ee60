// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package daemon drives the single-threaded, event-driven main loop:
// it reads lines from the tail source (with a read watchdog), routes
// them through the engine, ticks the violation queue, answers signals
// as flag flips, and runs the debug/metrics HTTP listener alongside.
package daemon

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"grimm.is/logvigil/internal/engine"
	"grimm.is/logvigil/internal/logging"
	"grimm.is/logvigil/internal/metrics"
	"grimm.is/logvigil/internal/supervisor"
)

// readWatchdog bounds how long a single line read may block.
const readWatchdog = 5 * time.Second

// Options configures a Daemon.
type Options struct {
	LogFiles    []string
	TailCommand string // external follow-from-end binary, e.g. "tail"; empty reads stdin directly
	Flush       bool   // drain the queue unconditionally on shutdown
	MetricsAddr string // empty disables the debug/metrics HTTP listener
	Metrics     *metrics.Registry
	ConfigPaths []string
	Defines     map[string]string
}

// Daemon owns the main loop's mutable flags and cleanup hooks. Every
// signal handler only flips a flag or appends a hook; no handler does
// substantive work.
type Daemon struct {
	opts Options
	eng  *engine.Engine
	log  *logging.Logger
	sup  *supervisor.Supervisor

	reloadFlag   atomic.Bool
	shutdownFlag atomic.Bool
	exitStatus   atomic.Int32

	cleanupHooks []func()
	tailCmd      *exec.Cmd
	currentFile  string
}

// New constructs a Daemon around eng. The caller wires RequestShutdown
// back into the engine's shutdown callback so an "exit" action can
// request the same graceful shutdown a signal would.
func New(opts Options, eng *engine.Engine) *Daemon {
	return &Daemon{
		opts: opts,
		eng:  eng,
		log:  logging.Default().WithComponent("daemon"),
		sup:  supervisor.New(supervisor.DefaultConfig()),
	}
}

// RequestShutdown flips the shutdown flag and records the desired
// exit status. Safe to call from a signal handler or from the
// engine's "exit" action.
func (d *Daemon) RequestShutdown(status int, msg string) {
	if msg != "" {
		d.log.Info(msg)
	}
	d.exitStatus.Store(int32(status))
	d.shutdownFlag.Store(true)
}

// RequestReload flips the reload flag, consulted at the top of the
// next loop iteration.
func (d *Daemon) RequestReload() {
	d.reloadFlag.Store(true)
}

func (d *Daemon) addCleanup(fn func()) {
	d.cleanupHooks = append(d.cleanupHooks, fn)
}

func (d *Daemon) runCleanups() {
	for i := len(d.cleanupHooks) - 1; i >= 0; i-- {
		d.cleanupHooks[i]()
	}
}

// openInput opens the configured log source: the external tail
// subprocess over a pipe when LogFiles/TailCommand are set, or
// standard input otherwise.
func (d *Daemon) openInput(ctx context.Context) (io.Reader, error) {
	if d.opts.TailCommand == "" || len(d.opts.LogFiles) == 0 {
		return os.Stdin, nil
	}

	args := append([]string{"-F"}, d.opts.LogFiles...)
	cmd := exec.CommandContext(ctx, d.opts.TailCommand, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	d.tailCmd = cmd

	d.addCleanup(func() {
		if d.tailCmd != nil && d.tailCmd.Process != nil {
			d.tailCmd.Process.Kill()
		}
	})

	go d.reapTail()

	if len(d.opts.LogFiles) > 0 {
		d.currentFile = d.opts.LogFiles[0]
	}

	return stdout, nil
}

// reapTail waits on the tail subprocess non-blockingly from the
// daemon's perspective (the wait happens on its own goroutine so the
// main loop never blocks on child exit) and records the exit in the
// crash supervisor.
func (d *Daemon) reapTail() {
	if d.tailCmd == nil {
		return
	}
	err := d.tailCmd.Wait()

	exitCode := 0
	var sig = zeroSignal()
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		sig = signalFromState(exitErr)
	}
	d.sup.RecordExit(exitCode, sig)
}

// lineReader wraps stdout in a bufio.Scanner feeding a channel, so the
// main loop can bound a single read with readWatchdog without the
// underlying blocking Read ever being abandoned mid-syscall.
type lineReader struct {
	lines chan string
	done  chan struct{}
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{lines: make(chan string, 64), done: make(chan struct{})}
	go func() {
		defer close(lr.lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lr.lines <- scanner.Text():
			case <-lr.done:
				return
			}
		}
	}()
	return lr
}

func (lr *lineReader) close() { close(lr.done) }

// readLine waits up to readWatchdog for the next line. ok is false on
// timeout (the read is abandoned, not the source) or source EOF.
func (lr *lineReader) readLine() (line string, ok bool, eof bool) {
	select {
	case l, open := <-lr.lines:
		if !open {
			return "", false, true
		}
		return l, true, false
	case <-time.After(readWatchdog):
		return "", false, false
	}
}
