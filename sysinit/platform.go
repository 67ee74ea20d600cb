// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

// Platform provides the hardware specific capabilities of the enclave.
type Platform interface {
	// Name identifies the platform in log messages.
	Name() string

	// Attest signals the hypervisor that the guest reached the attestation
	// point of the boot.
	Attest() error

	// SampleEntropy returns exactly size bytes from the platform's hardware
	// entropy source. It returns [ErrNoEntropySource] if there is none.
	SampleEntropy(size int) ([]byte, error)
}

var _ Platform = NullPlatform{}

// NullPlatform is a [Platform] without any hardware support. Attestation is a
// no-op and there is no entropy source.
type NullPlatform struct{}

// Name implements [Platform].
func (NullPlatform) Name() string {
	return "none"
}

// Attest implements [Platform].
func (NullPlatform) Attest() error {
	return nil
}

// SampleEntropy implements [Platform]. It always returns
// [ErrNoEntropySource].
func (NullPlatform) SampleEntropy(int) ([]byte, error) {
	return nil, ErrNoEntropySource
}
