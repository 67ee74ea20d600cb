// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"errors"
	"runtime"
)

// Arch is an enclave CPU architecture.
type Arch string

// Supported enclave architectures.
const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Native is the architecture of the host.
const Native Arch = Arch(runtime.GOARCH)

// ErrArchNotSupported is returned for architectures enclaves do not run on.
var ErrArchNotSupported = errors.New("architecture not supported")

func (a *Arch) String() string {
	return string(*a)
}

// Set implements [pflag.Value].
func (a *Arch) Set(s string) error {
	switch Arch(s) {
	case AMD64, ARM64:
		*a = Arch(s)
	default:
		return ErrArchNotSupported
	}

	return nil
}

// Type implements [pflag.Value].
func (*Arch) Type() string {
	return "arch"
}
