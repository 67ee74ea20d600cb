// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nsm implements a minimal client for the Nitro Secure Module device.
//
// Requests and responses are CBOR encoded messages exchanged through a single
// ioctl on the device file. Only the GetRandom request is supported.
package nsm

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sys/unix"
)

// DevicePath is the device file created by the nsm kernel module.
const DevicePath = "/dev/nsm"

const (
	// _IOWR(0x0A, 0, sizeof(message)).
	ioctlRequest = 0xc0200a00

	maxResponseSize = 0x3000

	requestGetRandom = "GetRandom"
)

// ErrProtocol is returned if the device answered with an error or with a
// message that cannot be decoded.
var ErrProtocol = errors.New("nsm protocol error")

// message is the ioctl argument. The driver updates the response length.
type message struct {
	Request  unix.Iovec
	Response unix.Iovec
}

type roundTripFunc func(request, response []byte) (int, error)

type getRandomResponse struct {
	GetRandom *struct {
		Random []byte `cbor:"random"`
	} `cbor:"GetRandom"`
	Error *string `cbor:"Error"`
}

// Session is an open connection to the device.
type Session struct {
	file      *os.File
	roundTrip roundTripFunc
}

// Open opens the device at the given path.
func Open(path string) (*Session, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	session := &Session{file: file}
	session.roundTrip = session.ioctl

	return session, nil
}

// Close closes the device.
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// GetRandom fills buf with random bytes from the device and returns the
// number of bytes written. The device returns at most 256 bytes per request,
// so n may be less than len(buf).
func (s *Session) GetRandom(buf []byte) (int, error) {
	request, err := cbor.Marshal(requestGetRandom)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	response := make([]byte, maxResponseSize)

	n, err := s.roundTrip(request, response)
	if err != nil {
		return 0, err
	}

	if n < 0 || n > len(response) {
		return 0, fmt.Errorf("%w: response size %d", ErrProtocol, n)
	}

	var decoded getRandomResponse
	if err := cbor.Unmarshal(response[:n], &decoded); err != nil {
		return 0, fmt.Errorf("%w: decode response: %w", ErrProtocol, err)
	}

	switch {
	case decoded.Error != nil:
		return 0, fmt.Errorf("%w: %s", ErrProtocol, *decoded.Error)
	case decoded.GetRandom == nil:
		return 0, fmt.Errorf("%w: unexpected response", ErrProtocol)
	}

	return copy(buf, decoded.GetRandom.Random), nil
}

func (s *Session) ioctl(request, response []byte) (int, error) {
	var msg message

	msg.Request.Base = unsafe.SliceData(request)
	msg.Request.SetLen(len(request))
	msg.Response.Base = unsafe.SliceData(response)
	msg.Response.SetLen(len(response))

	rawConn, err := s.file.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("raw conn: %w", err)
	}

	var errno unix.Errno

	err = rawConn.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, ioctlRequest, uintptr(unsafe.Pointer(&msg)))
	})

	runtime.KeepAlive(request)
	runtime.KeepAlive(response)

	if err != nil {
		return 0, fmt.Errorf("control: %w", err)
	}

	if errno != 0 {
		return 0, fmt.Errorf("ioctl: %w", errno)
	}

	return int(msg.Response.Len), nil //nolint:gosec
}
