// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"io/fs"

	"github.com/aibor/enclaveos/internal/config"
	"github.com/aibor/enclaveos/internal/nitro"
)

// Archive paths of the enclave files.
const (
	InitPath   = "/init"
	ModulePath = nitro.DefaultModulePath
	ConfigPath = config.DefaultPath
)

const (
	execMode = 0o755
	fileMode = 0o644
)

// MountPoints are the directories the system file systems are mounted on.
func MountPoints() []string {
	return []string{"/dev", "/proc", "/run", "/sys", "/tmp"}
}

// Layout describes the content of an enclave initramfs. Source paths are
// relative to the root of the source [fs.FS].
type Layout struct {
	// Init is the init binary. It is required.
	Init string

	// Module is the optional nsm kernel module.
	Module string

	// Config is the optional content of the boot config file.
	Config []byte
}

// Build writes the files described by layout into w.
func Build(w Writer, fsys fs.FS, layout Layout) error {
	builder := NewBuilder(w)

	for _, dir := range MountPoints() {
		if err := builder.Mkdir(dir); err != nil {
			return err
		}
	}

	if err := builder.AddFile(InitPath, fsys, layout.Init, execMode); err != nil {
		return err
	}

	if layout.Module != "" {
		if err := builder.AddFile(ModulePath, fsys, layout.Module, fileMode); err != nil {
			return err
		}
	}

	if layout.Config != nil {
		if err := builder.AddData(ConfigPath, layout.Config, fileMode); err != nil {
			return err
		}
	}

	return nil
}
