// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package nitro

import (
	"fmt"
	"io"

	"github.com/aibor/enclaveos/internal/vsock"
	"github.com/aibor/enclaveos/sysinit"
)

// HeartbeatMagic is the byte the hypervisor expects as boot signal.
const HeartbeatMagic byte = 0xB7

// Default heartbeat endpoint of the parent instance.
const (
	DefaultCID  = 3
	DefaultPort = 9000
)

// Endpoint is the vsock address the heartbeat is sent to.
type Endpoint struct {
	CID  uint32
	Port uint32
}

// DefaultEndpoint returns the endpoint the Nitro hypervisor listens on.
func DefaultEndpoint() Endpoint {
	return Endpoint{CID: DefaultCID, Port: DefaultPort}
}

// Dialer opens a stream connection to the given vsock address.
type Dialer func(cid, port uint32) (io.ReadWriteCloser, error)

// DialVsock is the [Dialer] for real virtio sockets.
func DialVsock(cid, port uint32) (io.ReadWriteCloser, error) {
	conn, err := vsock.Dial(cid, port)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return conn, nil
}

// Heartbeat signals the hypervisor that the guest booted.
//
// It connects to the endpoint, sends [HeartbeatMagic] and waits for a single
// byte reply. The reply's value is not checked. The connection is closed in
// any case. Each failing step returns a distinct error carrying
// [sysinit.ErrChannel].
func Heartbeat(dial Dialer, endpoint Endpoint) error {
	conn, err := dial(endpoint.CID, endpoint.Port)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", sysinit.ErrChannel, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{HeartbeatMagic}); err != nil {
		return fmt.Errorf("%w: send: %w", sysinit.ErrChannel, err)
	}

	reply := make([]byte, 1)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return fmt.Errorf("%w: receive: %w", sysinit.ErrChannel, err)
	}

	return nil
}
