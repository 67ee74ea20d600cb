// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/aibor/enclaveos/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	elfHeaderSize  = 64
	progHeaderSize = 56
)

// testELF builds a minimal little endian ELF64 file with an optional single
// program header.
func testELF(t *testing.T, machine elf.Machine, typ elf.Type, osabi elf.OSABI, progType elf.ProgType) []byte {
	t.Helper()

	hdr := elf.Header64{
		Type:      uint16(typ),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Ehsize:    elfHeaderSize,
		Phentsize: progHeaderSize,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	hdr.Ident[elf.EI_OSABI] = byte(osabi)

	if progType != elf.PT_NULL {
		hdr.Phoff = elfHeaderSize
		hdr.Phnum = 1
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))

	if progType != elf.PT_NULL {
		prog := elf.Prog64{Type: uint32(progType)}
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, prog))
	}

	return buf.Bytes()
}

func TestValidateInit(t *testing.T) {
	tests := []struct {
		name        string
		file        func(t *testing.T) []byte
		arch        sys.Arch
		expectedErr error
	}{
		{
			name: "static amd64",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_X86_64, elf.ET_EXEC, elf.ELFOSABI_NONE, elf.PT_LOAD)
			},
			arch: sys.AMD64,
		},
		{
			name: "static pie arm64",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_AARCH64, elf.ET_DYN, elf.ELFOSABI_LINUX, elf.PT_LOAD)
			},
			arch: sys.ARM64,
		},
		{
			name: "dynamically linked",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_X86_64, elf.ET_EXEC, elf.ELFOSABI_NONE, elf.PT_INTERP)
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrDynamicallyLinked,
		},
		{
			name: "wrong arch",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_AARCH64, elf.ET_EXEC, elf.ELFOSABI_NONE, elf.PT_NULL)
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrMachineNotSupported,
		},
		{
			name: "unsupported machine",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_RISCV, elf.ET_EXEC, elf.ELFOSABI_NONE, elf.PT_NULL)
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrMachineNotSupported,
		},
		{
			name: "other OS",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_X86_64, elf.ET_EXEC, elf.ELFOSABI_FREEBSD, elf.PT_NULL)
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrOSABINotSupported,
		},
		{
			name: "object file",
			file: func(t *testing.T) []byte {
				return testELF(t, elf.EM_X86_64, elf.ET_REL, elf.ELFOSABI_NONE, elf.PT_NULL)
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrNotExecutable,
		},
		{
			name: "script",
			file: func(*testing.T) []byte {
				return []byte("#!/bin/sh\nexec /bin/app\n")
			},
			arch:        sys.AMD64,
			expectedErr: sys.ErrNotELFFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.ValidateInit(bytes.NewReader(tt.file(t)), tt.arch)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestArch_Set(t *testing.T) {
	var arch sys.Arch

	require.NoError(t, arch.Set("arm64"))
	assert.Equal(t, sys.ARM64, arch)

	require.ErrorIs(t, arch.Set("riscv64"), sys.ErrArchNotSupported)
	assert.Equal(t, sys.ARM64, arch)
	assert.Equal(t, "arch", arch.Type())
}
