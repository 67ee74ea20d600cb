// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

// LoopbackInterface is the name of the loopback network interface.
const LoopbackInterface = "lo"

// HandoffFunc is run after the system booted successfully. The system
// reboots once it returns.
type HandoffFunc func() error

// Config defines the boot sequence.
type Config struct {
	// Mounts are the file systems mounted in the given order.
	Mounts []MountSpec

	// Consoles are the standard streams bound to the console.
	Consoles []ConsoleSpec

	// EntropySize is the number of bytes seeded into the kernel's random
	// pool.
	EntropySize int

	// RandomDevice is the path of the kernel's randomness special file.
	RandomDevice string

	// Mode determines how stage failures are handled.
	Mode Mode

	// Loopback determines if the loopback interface is brought up.
	Loopback bool

	// Handoff is optional. It runs the workload after the boot finished.
	Handoff HandoffFunc
}

// DefaultConfig returns the boot configuration for release builds.
func DefaultConfig() Config {
	return Config{
		Mounts:       DefaultMounts(),
		Consoles:     DefaultConsoles(),
		EntropySize:  DefaultEntropySize,
		RandomDevice: RandomDevicePath,
		Mode:         ModeRelease,
	}
}
