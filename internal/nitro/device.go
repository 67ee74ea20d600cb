// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package nitro

import (
	"github.com/aibor/enclaveos/internal/nsm"
	"github.com/aibor/enclaveos/sysinit"
)

// device is the [sysinit.EntropyDevice] backed by the secure module.
type device struct {
	path string
	open DeviceOpener
}

func (d device) Open() (sysinit.EntropyHandle, error) {
	return d.open(d.path)
}

// sessionHandle samples entropy with GetRandom requests.
type sessionHandle struct {
	*nsm.Session
}

func (h sessionHandle) Sample(buf []byte) (int, error) {
	return h.GetRandom(buf) //nolint:wrapcheck
}

// OpenSession is the [DeviceOpener] for the real secure module device.
func OpenSession(path string) (sysinit.EntropyHandle, error) {
	session, err := nsm.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return sessionHandle{session}, nil
}
