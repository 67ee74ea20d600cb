// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"strings"
)

// ErrorKind classifies boot failures. It implements [error], so a kind can be
// wrapped into an error chain and matched with [errors.Is].
type ErrorKind string

// Error implements the [error] interface.
func (k ErrorKind) Error() string {
	return string(k)
}

// Error kinds of the boot stages.
const (
	ErrMount        ErrorKind = "mount failure"
	ErrConsole      ErrorKind = "console open failure"
	ErrModuleLoad   ErrorKind = "module load failure"
	ErrChannel      ErrorKind = "channel failure"
	ErrDeviceInit   ErrorKind = "device init failure"
	ErrDeviceSample ErrorKind = "device sample failure"
	ErrSeedWrite    ErrorKind = "seed write failure"
	ErrLink         ErrorKind = "link failure"
	ErrPanic        ErrorKind = "stage panicked"
)

var (
	// ErrNotPidOne is returned if the process is expected to be run as PID 1
	// but is not.
	ErrNotPidOne = errors.New("process does not have ID 1")

	// ErrNoEntropySource is returned by a [Platform] that has no hardware
	// entropy device.
	ErrNoEntropySource = errors.New("no entropy source")

	// ErrShortWrite is returned if a write did not write the whole buffer.
	ErrShortWrite = errors.New("short write")
)

// BootError is the error of a single boot [Stage].
//
// Its message is the context chain from the stage down to the root cause,
// like "attestation: channel failure: connect cid 3 port 9000: connection
// refused".
type BootError struct {
	Stage string
	Err   error
}

// Error implements the [error] interface.
func (e *BootError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*BootError) Is(other error) bool {
	_, ok := other.(*BootError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BootError) Unwrap() error {
	return e.Err
}

// Kind returns the first [ErrorKind] found in the error chain. It is empty
// if the chain does not contain any.
func (e *BootError) Kind() ErrorKind {
	var kind ErrorKind
	if errors.As(e.Err, &kind) {
		return kind
	}

	return ""
}

func stageError(stage string, err error) *BootError {
	return &BootError{Stage: stage, Err: err}
}

// StageErrors is a collection of errors of independent operations of a
// single stage, like the individual mounts.
type StageErrors []error

func (e StageErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}

	return strings.Join(msgs, "; ")
}

// Unwrap implements the [errors.Unwrap] interface.
func (e StageErrors) Unwrap() []error {
	return e
}

// joinStageErrors returns the errors as [StageErrors] or nil if there are
// none.
func joinStageErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return StageErrors(errs)
}

// errorList returns the individual errors of [StageErrors] or the error
// itself.
func errorList(err error) []error {
	if list, ok := err.(StageErrors); ok {
		return list
	}

	return []error{err}
}
