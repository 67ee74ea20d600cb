// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"
)

// ConsolePath is the kernel's system console device.
const ConsolePath = "/dev/console"

// Standard stream file descriptors.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// ConsoleSpec describes a standard stream to rebind to a device.
type ConsoleSpec struct {
	// Path is the device to open.
	Path string

	// Flag is the open mode as used by [os.OpenFile].
	Flag int

	// Fd is the standard stream file descriptor to replace.
	Fd int
}

// DefaultConsoles returns the specs for binding all standard streams to the
// system console.
func DefaultConsoles() []ConsoleSpec {
	return []ConsoleSpec{
		{ConsolePath, os.O_RDONLY, Stdin},
		{ConsolePath, os.O_WRONLY, Stdout},
		{ConsolePath, os.O_WRONLY, Stderr},
	}
}

// RedirectConsoles rebinds the standard streams as given by the specs.
//
// Each stream is tried, regardless of failures of the others. All errors are
// returned joined, each of them carrying [ErrConsole], as [StageErrors].
func RedirectConsoles(sys System, specs []ConsoleSpec) error {
	var errs []error

	for _, spec := range specs {
		if err := sys.Reopen(spec.Path, spec.Flag, spec.Fd); err != nil {
			errs = append(errs, fmt.Errorf("%w: fd %d: %w", ErrConsole, spec.Fd, err))
		}
	}

	return joinStageErrors(errs)
}
