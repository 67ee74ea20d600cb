// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

var (
	// ErrInvalidPath is returned for archive paths that do not name a file.
	ErrInvalidPath = errors.New("invalid archive path")

	// ErrNotRegularFile is returned if a source file is not a regular file.
	ErrNotRegularFile = errors.New("not a regular file")
)

// Builder writes files into an archive and creates their parent directories
// on demand. Each directory is written only once.
type Builder struct {
	writer Writer
	dirs   map[string]struct{}
}

// NewBuilder creates a new [Builder] writing into w.
func NewBuilder(w Writer) *Builder {
	return &Builder{
		writer: w,
		dirs:   make(map[string]struct{}),
	}
}

// archivePath returns the clean path relative to the archive root. Leading
// slashes are removed.
func archivePath(name string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	return clean, nil
}

// Mkdir adds the directory and all its missing parents.
func (b *Builder) Mkdir(name string) error {
	dir, err := archivePath(name)
	if err != nil {
		return err
	}

	return b.mkdirAll(dir)
}

func (b *Builder) mkdirAll(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}

	if _, exists := b.dirs[dir]; exists {
		return nil
	}

	if err := b.mkdirAll(path.Dir(dir)); err != nil {
		return err
	}

	if err := b.writer.WriteDirectory(dir); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	b.dirs[dir] = struct{}{}

	return nil
}

// AddFile copies the regular file source from fsys into the archive.
func (b *Builder) AddFile(name string, fsys fs.FS, source string, mode fs.FileMode) error {
	file, err := fsys.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, source)
	}

	return b.add(name, file, info.Size(), mode)
}

// AddData adds a regular file with the given content.
func (b *Builder) AddData(name string, data []byte, mode fs.FileMode) error {
	return b.add(name, bytes.NewReader(data), int64(len(data)), mode)
}

func (b *Builder) add(name string, body io.Reader, size int64, mode fs.FileMode) error {
	file, err := archivePath(name)
	if err != nil {
		return err
	}

	if err := b.mkdirAll(path.Dir(file)); err != nil {
		return err
	}

	if err := b.writer.WriteRegular(file, body, size, mode); err != nil {
		return fmt.Errorf("add %s: %w", file, err)
	}

	return nil
}
