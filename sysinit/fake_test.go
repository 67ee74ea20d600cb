// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/aibor/enclaveos/sysinit"
)

// eventLog is a shared, ordered record of system calls and log messages.
type eventLog struct {
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) count(event string) int {
	var count int

	for _, e := range l.events {
		if e == event {
			count++
		}
	}

	return count
}

func (l *eventLog) index(event string) int {
	return slices.Index(l.events, event)
}

func (l *eventLog) logger() *slog.Logger {
	return slog.New(&recordHandler{log: l})
}

// recordHandler records the message of each log record as "<LEVEL> <msg>".
type recordHandler struct {
	log *eventLog
}

func (*recordHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler    { return h }
func (h *recordHandler) WithGroup(string) slog.Handler         { return h }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.log.add("%s %s", r.Level, r.Message)
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// shortWriter drops the last byte of every write.
type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return max(len(p)-1, 0), nil
}

type fakeSystem struct {
	log *eventLog

	mountErrs  map[string]error
	reopenErrs map[int]error
	moduleErr  error
	openErr    error
	linkErr    error
	rebootErr  error

	random     bytes.Buffer
	randomFile io.Writer
	openFlags  []int
}

var _ sysinit.System = (*fakeSystem)(nil)

func newFakeSystem(log *eventLog) *fakeSystem {
	return &fakeSystem{log: log}
}

func (s *fakeSystem) Mount(source, target, fsType string, flags sysinit.MountFlags, data string) error {
	s.log.add("mount %s", target)
	return s.mountErrs[target]
}

func (s *fakeSystem) Reopen(path string, _ int, fd int) error {
	s.log.add("reopen %d %s", fd, path)
	return s.reopenErrs[fd]
}

func (s *fakeSystem) LoadModule(path, _ string) error {
	s.log.add("load module %s", path)
	return s.moduleErr
}

func (s *fakeSystem) OpenFile(path string, flag int) (io.WriteCloser, error) {
	s.log.add("open %s", path)
	s.openFlags = append(s.openFlags, flag)

	if s.openErr != nil {
		return nil, s.openErr
	}

	if s.randomFile != nil {
		return nopWriteCloser{s.randomFile}, nil
	}

	return nopWriteCloser{&s.random}, nil
}

func (s *fakeSystem) SetLinkUp(name string) error {
	s.log.add("link up %s", name)
	return s.linkErr
}

func (s *fakeSystem) Sync() {
	s.log.add("sync")
}

func (s *fakeSystem) Reboot() error {
	s.log.add("reboot")
	return s.rebootErr
}

type fakePlatform struct {
	log *eventLog

	attestErr   error
	attestPanic any
	device      sysinit.EntropyDevice
	entropyErr  error
}

var _ sysinit.Platform = (*fakePlatform)(nil)

func (*fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Attest() error {
	p.log.add("attest")

	if p.attestPanic != nil {
		panic(p.attestPanic)
	}

	return p.attestErr
}

func (p *fakePlatform) SampleEntropy(size int) ([]byte, error) {
	p.log.add("sample entropy %d", size)

	if p.entropyErr != nil {
		return nil, p.entropyErr
	}

	return sysinit.AcquireEntropy(p.device, size)
}

// fakeDevice yields the configured number of bytes per sample call. It fails
// the sample call with the 1-based index failAt, if failErr is set.
type fakeDevice struct {
	yield   int
	openErr error
	failAt  int
	failErr error

	opened  int
	closed  int
	samples int
}

func (d *fakeDevice) Open() (sysinit.EntropyHandle, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}

	d.opened++

	return d, nil
}

func (d *fakeDevice) Sample(buf []byte) (int, error) {
	d.samples++

	if d.failErr != nil && d.samples == d.failAt {
		return 0, d.failErr
	}

	for idx := range min(d.yield, len(buf)) {
		buf[idx] = byte(d.samples)
	}

	// May report more than fits the buffer, like a misbehaving device.
	return d.yield, nil
}

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}
