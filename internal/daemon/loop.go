// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package daemon

import (
	"context"
	"time"

	"grimm.is/logvigil/internal/record"
)

// Run executes the main loop until a shutdown is requested (by
// signal, an *EXIT control line, or an "exit" action), then runs the
// quit sequence: optional queue flush, registered cleanup hooks, and
// returns the exit status.
func (d *Daemon) Run(ctx context.Context) int {
	input, err := d.openInput(ctx)
	if err != nil {
		d.log.Error("cannot open input source", "error", err)
		return 2
	}

	lr := newLineReader(input)
	defer lr.close()

	skipNextLine := false

	for !d.shutdownFlag.Load() {
		if d.reloadFlag.Load() {
			d.reloadFlag.Store(false)
			if err := d.eng.Reload(); err != nil {
				d.log.Error("reload failed, shutting down", "error", err)
				d.RequestShutdown(2, "")
				continue
			}
		}

		now := time.Now().Unix()
		wakeup := d.eng.Tick(ctx, now)

		line, ok, eof := lr.readLine()
		if eof {
			break
		}
		if !ok {
			// Watchdog expiry with nothing to read; loop and
			// re-evaluate reload/tick state. The wait is bounded only
			// by readWatchdog: the computed wakeup does not shorten it.
			_ = wakeup
			continue
		}

		if skipNextLine {
			skipNextLine = false
			continue
		}

		d.handleLine(ctx, line, &skipNextLine)
	}

	if d.opts.Flush {
		d.eng.FlushAll(ctx)
	}
	d.runCleanups()

	return int(d.exitStatus.Load())
}

func (d *Daemon) handleLine(ctx context.Context, line string, skipNextLine *bool) {
	kind, rec, ctrl, newFile := record.Classify(d.currentFile, line)

	switch kind {
	case record.KindFileSwitch:
		d.currentFile = newFile
		*skipNextLine = true
	case record.KindControl:
		outcome := d.eng.HandleControl(ctx, ctrl)
		if outcome.ReloadRequested {
			d.RequestReload()
		}
		if outcome.ShutdownRequested {
			d.RequestShutdown(outcome.ExitStatus, "")
		}
	case record.KindRecord:
		d.eng.HandleRecord(ctx, rec)
	case record.KindIgnored:
		// malformed line: silent drop.
	}
}
