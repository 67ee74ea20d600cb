// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// DefaultPathEnv is the PATH workloads are started with, unless configured
// otherwise.
const DefaultPathEnv = "PATH=/sbin:/usr/sbin:/bin:/usr/bin"

// ErrNoWorkload is returned by an [ExecHandoff] without command.
var ErrNoWorkload = errors.New("no workload command")

// ExecHandoff returns a [HandoffFunc] that runs the given command with the
// console as standard streams and waits for it to terminate.
//
// If env is empty, the command runs with [DefaultPathEnv] only.
func ExecHandoff(argv []string, env []string) HandoffFunc {
	return func() error {
		if len(argv) == 0 {
			return ErrNoWorkload
		}

		if len(env) == 0 {
			env = []string{DefaultPathEnv}
		}

		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Env = env
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("workload %s: %w", argv[0], err)
		}

		return nil
	}
}
