// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

type finitFlags int

const finitFlagCompressedFile finitFlags = unix.MODULE_INIT_COMPRESSED_FILE

var _ System = Linux{}

// Linux implements [System] with the actual Linux system calls.
type Linux struct{}

// Mount creates the target directory if it does not exist and mounts the file
// system on it.
func (Linux) Mount(source, target, fsType string, flags MountFlags, data string) error {
	if err := os.MkdirAll(target, defaultDirMode); err != nil {
		return fmt.Errorf("mkdir %s: %w", target, err)
	}

	if err := unix.Mount(source, target, fsType, uintptr(flags), data); err != nil {
		return fmt.Errorf("mount %s: %w", target, err)
	}

	return nil
}

// Reopen opens path and duplicates the new file descriptor onto fd.
func (Linux) Reopen(path string, flag int, fd int) error {
	file, err := os.OpenFile(path, flag|unix.O_NOCTTY, 0)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if err := unix.Dup3(int(file.Fd()), fd, 0); err != nil {
		return fmt.Errorf("dup3 %s: %w", path, err)
	}

	return nil
}

// LoadModule loads the kernel module file at path.
func (Linux) LoadModule(path, params string) error {
	return LoadModule(path, params)
}

// OpenFile opens the file at path.
func (Linux) OpenFile(path string, flag int) (io.WriteCloser, error) {
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	return file, nil
}

// SetLinkUp brings the network interface with the given name up.
func (Linux) SetLinkUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("link %s: %w", name, err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("set %s up: %w", name, err)
	}

	return nil
}

// Sync flushes the standard output streams and file system buffers.
func (Linux) Sync() {
	_ = os.Stdout.Sync()
	_ = os.Stderr.Sync()

	unix.Sync()
}

// Reboot restarts the system immediately.
func (Linux) Reboot() error {
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}

	return nil
}

func initModule(data []byte, params string) error {
	if err := unix.InitModule(data, params); err != nil {
		return fmt.Errorf("init_module: %w", err)
	}

	return nil
}

func finitModule(fd int, params string, flags finitFlags) error {
	if err := unix.FinitModule(fd, params, int(flags)); err != nil {
		// If finit_module is not available, EOPNOTSUPP is returned.
		if errors.Is(err, unix.EOPNOTSUPP) {
			err = errors.ErrUnsupported
		}

		return fmt.Errorf("finit_module: %w", err)
	}

	return nil
}

// IsPidOne returns true if the running process has PID 1.
func IsPidOne() bool {
	return os.Getpid() == 1
}
