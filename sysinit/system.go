// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import "io"

// System is the operating system interface the boot stages act on.
//
// [Linux] implements it with the actual system calls.
type System interface {
	// Mount mounts the file system as defined by mount(2).
	Mount(source, target, fsType string, flags MountFlags, data string) error

	// Reopen opens the file at path with the given [os.OpenFile] flag and
	// replaces the file descriptor fd with it.
	Reopen(path string, flag int, fd int) error

	// LoadModule loads the kernel module file at path.
	LoadModule(path, params string) error

	// OpenFile opens the file at path for writing.
	OpenFile(path string, flag int) (io.WriteCloser, error)

	// SetLinkUp brings the network interface with the given name up.
	SetLinkUp(name string) error

	// Sync flushes the standard streams and file system buffers.
	Sync()

	// Reboot restarts the system. It does not return on success.
	Reboot() error
}
