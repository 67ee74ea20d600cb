// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import "fmt"

// Stage names.
const (
	StageMount       = "mount"
	StageConsole     = "console"
	StageAttestation = "attestation"
	StageEntropy     = "entropy"
	StageNetwork     = "network"
)

// Stage is a single step of the boot sequence. It is run exactly once.
type Stage struct {
	// Name identifies the stage in log messages and errors.
	Name string

	// Critical stages abort the boot on failure in [ModeRelease].
	Critical bool

	// Run does the actual work.
	Run func() error
}

// Mode determines how stage failures are handled.
type Mode int

const (
	// ModeRelease treats failures of critical stages as fatal. The system
	// reboots right away.
	ModeRelease Mode = iota

	// ModeDebug logs all failures and continues the boot, so the system can
	// be inspected.
	ModeDebug
)

// String implements [fmt.Stringer].
func (m Mode) String() string {
	switch m {
	case ModeRelease:
		return "release"
	case ModeDebug:
		return "debug"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// IsFatal returns true if a failure of the given stage must stop the boot.
func (m Mode) IsFatal(stage Stage) bool {
	return m == ModeRelease && stage.Critical
}

// Outcome is the terminal state of a boot.
type Outcome int

const (
	// OutcomeHandoff is a successful boot. The workload ran, if any.
	OutcomeHandoff Outcome = iota

	// OutcomeFatal is a boot aborted due to a fatal stage failure.
	OutcomeFatal
)

// String implements [fmt.Stringer].
func (o Outcome) String() string {
	switch o {
	case OutcomeHandoff:
		return "handoff"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}
