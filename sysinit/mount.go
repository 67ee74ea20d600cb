// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// FSType is a file system type.
type FSType string

// Special file system types.
const (
	FSTypeDevPts FSType = "devpts"
	FSTypeDevTmp FSType = "devtmpfs"
	FSTypeProc   FSType = "proc"
	FSTypeSys    FSType = "sysfs"
	FSTypeTmp    FSType = "tmpfs"

	defaultDirMode = 0o755
)

// MountFlags are flags as defined by mount(2).
type MountFlags uintptr

// Mount flags used for the system mount points.
const (
	MountNoDev  MountFlags = unix.MS_NODEV
	MountNoExec MountFlags = unix.MS_NOEXEC
	MountNoSUID MountFlags = unix.MS_NOSUID

	// No setuid binaries and no binary execution.
	mountNoSE = MountNoSUID | MountNoExec
	// Additionally no device nodes.
	mountNoDSE = MountNoDev | mountNoSE
)

// MountSpec describes a single mount operation.
type MountSpec struct {
	// Source is the source device to mount. For the special file system
	// types any name can be used. If empty it is set to the string of the
	// type.
	Source string

	// Target is the absolute path of the mount point.
	Target string

	// FSType is the files system type.
	FSType FSType

	// Flags are optional mount flags as defined by mount(2).
	Flags MountFlags

	// Data are optional additional parameters that depend of the [FSType] used.
	Data string
}

func (s MountSpec) source() string {
	if s.Source == "" {
		return string(s.FSType)
	}

	return s.Source
}

// DefaultMounts returns the ordered list of file systems mounted on boot.
//
// All mount points deny device nodes, setuid binaries and binary execution
// unless the file system's purpose requires it. /dev is mounted before the
// mount points below it.
func DefaultMounts() []MountSpec {
	return []MountSpec{
		{"devtmpfs", "/dev", FSTypeDevTmp, mountNoSE, "mode=0755"},
		{"devpts", "/dev/pts", FSTypeDevPts, mountNoSE, ""},
		{"shm", "/dev/shm", FSTypeTmp, mountNoDSE, "mode=0755"},
		// Processes must not see each other's details.
		{"proc", "/proc", FSTypeProc, mountNoDSE, "hidepid=2"},
		{"tmpfs", "/run", FSTypeTmp, mountNoDSE, "mode=0755"},
		{"tmpfs", "/tmp", FSTypeTmp, mountNoDSE, ""},
		{"sysfs", "/sys", FSTypeSys, mountNoDSE, ""},
		{"cgroup_root", "/sys/fs/cgroup", FSTypeTmp, mountNoDSE, "mode=0755"},
	}
}

// MountAll mounts the given file systems in the given order.
//
// A failing mount does not prevent the following ones from being tried and
// already mounted file systems are not unmounted. All errors are returned
// joined, each of them carrying [ErrMount], as [StageErrors].
func MountAll(sys System, specs []MountSpec, logger *slog.Logger) error {
	var errs []error

	for _, spec := range specs {
		err := sys.Mount(spec.source(), spec.Target, string(spec.FSType), spec.Flags, spec.Data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrMount, spec.Target, err))
			continue
		}

		logger.Info("mounted " + spec.Target)
	}

	return joinStageErrors(errs)
}
