// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dmesg provides a [slog.Handler] that writes records in the format
// of the kernel log, so init messages blend in with the kernel's console
// output.
package dmesg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Clock returns the time since boot.
type Clock func() time.Duration

// BootTime returns the time since the system booted, including time spent in
// suspend.
func BootTime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		return 0
	}

	return time.Duration(ts.Nano())
}

// Options are optional settings of the [Handler].
type Options struct {
	// Level is the minimum level that is logged. Defaults to
	// [slog.LevelInfo].
	Level slog.Leveler

	// Clock defaults to [BootTime].
	Clock Clock
}

// Handler writes one line per record:
//
//	[    1.234567] ERROR message key=value
//
// The level is only printed for warnings and errors.
type Handler struct {
	writer io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	clock  Clock
	attrs  string
	group  string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a new [Handler] writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	handler := &Handler{
		writer: w,
		mu:     &sync.Mutex{},
		level:  slog.LevelInfo,
		clock:  BootTime,
	}

	if opts != nil {
		if opts.Level != nil {
			handler.level = opts.Level
		}

		if opts.Clock != nil {
			handler.clock = opts.Clock
		}
	}

	return handler
}

// Enabled implements [slog.Handler].
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements [slog.Handler].
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var line bytes.Buffer

	since := h.clock()
	seconds := int64(since / time.Second)
	micros := int64((since % time.Second) / time.Microsecond)

	fmt.Fprintf(&line, "[%5d.%06d] ", seconds, micros)

	if record.Level >= slog.LevelWarn {
		line.WriteString(record.Level.String())
		line.WriteByte(' ')
	}

	line.WriteString(record.Message)
	line.WriteString(h.attrs)

	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&line, h.group, attr)
		return true
	})

	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.writer.Write(line.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	for _, attr := range attrs {
		appendAttr(&buf, h.group, attr)
	}

	clone := *h
	clone.attrs += buf.String()

	return &clone
}

// WithGroup implements [slog.Handler].
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.group = joinKey(h.group, name)

	return &clone
}

func appendAttr(buf *bytes.Buffer, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	key := joinKey(group, attr.Key)

	if attr.Value.Kind() == slog.KindGroup {
		for _, member := range attr.Value.Group() {
			appendAttr(buf, key, member)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(quote(attr.Value.String()))
}

func joinKey(group, key string) string {
	switch {
	case group == "":
		return key
	case key == "":
		return group
	default:
		return group + "." + key
	}
}

func quote(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\n\"=") {
		return strconv.Quote(value)
	}

	return value
}
