// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WatchSignals relays SIGHUP to RequestReload and SIGINT/SIGTERM to
// RequestShutdown. Go delivers signals onto an ordinary channel, so
// unlike a C signal handler this runs in a normal goroutine - but it
// still only flips flags, doing no parsing or I/O of its own, to keep
// the same async-signal-safe discipline the main loop depends on.
func (d *Daemon) WatchSignals(ctx context.Context) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGHUP:
					d.RequestReload()
				case syscall.SIGINT, syscall.SIGTERM:
					d.RequestShutdown(0, "")
				}
			}
		}
	}()
}
