// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: MIT

package initramfs

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/cavaliergopher/cpio"
)

const dirLinks = 2

var _ Writer = (*CPIOWriter)(nil)

// CPIOWriter implements [Writer] for [cpio.Writer]. Entries are written in
// the SVR4 format the kernel expects.
type CPIOWriter struct {
	cpioWriter *cpio.Writer
}

// NewCPIOWriter creates a new archive writer.
func NewCPIOWriter(w io.Writer) *CPIOWriter {
	return &CPIOWriter{cpio.NewWriter(w)}
}

// Close writes the trailer and flushes the archive.
func (w *CPIOWriter) Close() error {
	if err := w.cpioWriter.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

func (w *CPIOWriter) writeHeader(hdr *cpio.Header) error {
	if err := w.cpioWriter.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", hdr.Name, err)
	}

	return nil
}

// WriteDirectory adds a directory entry for the given path.
func (w *CPIOWriter) WriteDirectory(path string) error {
	return w.writeHeader(&cpio.Header{
		Name:  path,
		Mode:  cpio.TypeDir | 0o755,
		Links: dirLinks,
	})
}

// WriteRegular adds a regular file with exactly size bytes read from body.
func (w *CPIOWriter) WriteRegular(path string, body io.Reader, size int64, mode fs.FileMode) error {
	err := w.writeHeader(&cpio.Header{
		Name:  path,
		Mode:  cpio.TypeReg | cpio.FileMode(mode.Perm()),
		Size:  size,
		Links: 1,
	})
	if err != nil {
		return err
	}

	written, err := io.CopyN(w.cpioWriter, body, size)
	if err != nil {
		return fmt.Errorf("write body for %s (%d of %d bytes): %w", path, written, size, err)
	}

	return nil
}
