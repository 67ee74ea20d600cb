// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"os"
)

const (
	// RandomDevicePath is the kernel's randomness special file.
	RandomDevicePath = "/dev/urandom"

	// DefaultEntropySize is the number of bytes seeded into the kernel on
	// boot.
	DefaultEntropySize = 4096

	// EntropyChunkSize is the maximum number of bytes requested from an
	// [EntropyDevice] at once.
	EntropyChunkSize = 256
)

// ErrNoEntropy is returned if an [EntropyHandle] yields no bytes.
var ErrNoEntropy = errors.New("device returned no entropy")

// EntropyDevice is a hardware entropy source.
type EntropyDevice interface {
	// Open initializes the device.
	Open() (EntropyHandle, error)
}

// EntropyHandle is an initialized [EntropyDevice].
type EntropyHandle interface {
	// Sample fills buf with random bytes and returns the number of bytes
	// actually written into buf.
	Sample(buf []byte) (int, error)

	// Close releases the device.
	Close() error
}

// AcquireEntropy returns exactly size bytes sampled from the given device.
//
// The device is sampled in chunks of [EntropyChunkSize] until enough bytes
// are accumulated. If any sample call fails, the bytes gathered so far are
// discarded and an error carrying [ErrDeviceSample] is returned. Failure to
// open the device carries [ErrDeviceInit]. A negative size is rejected
// without opening the device.
func AcquireEntropy(dev EntropyDevice, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrDeviceSample, size)
	}

	handle, err := dev.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceInit, err)
	}
	defer handle.Close()

	sample := make([]byte, 0, size)
	chunk := make([]byte, EntropyChunkSize)

	for len(sample) < size {
		n, err := handle.Sample(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceSample, err)
		}

		// A device that keeps returning nothing would never let us finish.
		if n <= 0 {
			return nil, fmt.Errorf("%w: %w", ErrDeviceSample, ErrNoEntropy)
		}

		n = min(n, len(chunk), size-len(sample))
		sample = append(sample, chunk[:n]...)
	}

	return sample, nil
}

// SeedEntropy writes the sample into the kernel's random pool at path and
// returns the number of bytes written.
//
// Writing to the random device mixes the data into the pool. Since Linux 5.10
// the pool is a fixed size hash, so entropy is not credited with the
// RNDADDENTROPY ioctl.
func SeedEntropy(sys System, path string, sample []byte) (int, error) {
	random, err := sys.OpenFile(path, os.O_RDWR)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSeedWrite, path, err)
	}
	defer random.Close()

	written, err := random.Write(sample)
	if err != nil {
		return written, fmt.Errorf("%w: write %s: %w", ErrSeedWrite, path, err)
	}

	if written != len(sample) {
		return written, fmt.Errorf("%w: write %s: %w", ErrSeedWrite, path, ErrShortWrite)
	}

	return written, nil
}
