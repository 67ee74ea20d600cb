// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sys provides checks of the binaries packed into an enclave image.
package sys

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotELFFile          = errors.New("not an ELF file")
	ErrOSABINotSupported   = errors.New("OSABI not supported")
	ErrMachineNotSupported = errors.New("machine not supported")
	ErrNotExecutable       = errors.New("not an executable")

	// ErrDynamicallyLinked is returned for binaries that require an
	// interpreter. The initramfs does not carry any shared objects.
	ErrDynamicallyLinked = errors.New("dynamically linked")
)

// ValidateELF validates that ELF attributes match the requested architecture.
func ValidateELF(hdr elf.FileHeader, arch Arch) error {
	switch hdr.OSABI {
	case elf.ELFOSABI_NONE, elf.ELFOSABI_LINUX:
		// supported, pass
	default:
		return fmt.Errorf("%w: %s", ErrOSABINotSupported, hdr.OSABI)
	}

	var archReq Arch

	//nolint:exhaustive
	switch hdr.Machine {
	case elf.EM_X86_64:
		archReq = AMD64
	case elf.EM_AARCH64:
		archReq = ARM64
	default:
		return fmt.Errorf("%w: %s", ErrMachineNotSupported, hdr.Machine)
	}

	if archReq != arch {
		return fmt.Errorf(
			"%w: %s on %s",
			ErrMachineNotSupported,
			hdr.Machine,
			arch,
		)
	}

	return nil
}

// ValidateInit validates that the file is a statically linked executable for
// the given architecture, so it can run as init without anything else in the
// initramfs.
func ValidateInit(file io.ReaderAt, arch Arch) error {
	elfFile, err := elf.NewFile(file)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotELFFile, err)
	}
	defer elfFile.Close()

	if err := ValidateELF(elfFile.FileHeader, arch); err != nil {
		return err
	}

	//nolint:exhaustive
	switch elfFile.Type {
	case elf.ET_EXEC, elf.ET_DYN:
	default:
		return fmt.Errorf("%w: %s", ErrNotExecutable, elfFile.Type)
	}

	for _, prog := range elfFile.Progs {
		if prog.Type == elf.PT_INTERP {
			return ErrDynamicallyLinked
		}
	}

	return nil
}
