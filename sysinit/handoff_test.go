// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit_test

import (
	"os/exec"
	"testing"

	"github.com/aibor/enclaveos/sysinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecHandoff(t *testing.T) {
	t.Run("no command", func(t *testing.T) {
		err := sysinit.ExecHandoff(nil, nil)()
		require.ErrorIs(t, err, sysinit.ErrNoWorkload)
	})

	t.Run("not found", func(t *testing.T) {
		err := sysinit.ExecHandoff([]string{"/nonexistent/workload"}, nil)()
		require.Error(t, err)
		assert.ErrorContains(t, err, "workload /nonexistent/workload")
	})

	for _, name := range []string{"true", "false"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}

		t.Run(name, func(t *testing.T) {
			err := sysinit.ExecHandoff([]string{path}, nil)()

			var exitErr *exec.ExitError
			if name == "true" {
				require.NoError(t, err)
			} else {
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 1, exitErr.ExitCode())
			}
		})
	}
}
