// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vsock provides stream connections over virtio sockets.
package vsock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Dial connects to the given port of the given context ID.
//
// The returned file is blocking. Reads and writes do not time out.
func Dial(cid, port uint32) (*os.File, error) {
	fd, err := unix.Socket(unix.AF_VSOCK, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	addr := &unix.SockaddrVM{CID: cid, Port: port}

	if err := unix.Connect(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("connect cid %d port %d: %w", cid, port, err)
	}

	return os.NewFile(uintptr(fd), fmt.Sprintf("vsock:%d:%d", cid, port)), nil
}
