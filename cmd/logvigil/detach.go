// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"os"
	"os/exec"
	"syscall"
)

// detach re-execs the current binary in a new session with standard
// streams redirected, approximating the classic fork + setsid +
// redirect daemonization sequence without relying on a real fork(2)
// (which the Go runtime does not support once goroutines/threads
// exist).
func detach(args []string) error {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), reexecEnvVar+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	return cmd.Start()
}
