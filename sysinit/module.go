// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// moduleCompression is the compression of a kernel module file as indicated
// by its file name.
type moduleCompression string

const (
	compressionUnknown moduleCompression = ""
	compressionNone    moduleCompression = ".ko"
	compressionGZIP    moduleCompression = ".ko.gz"
	compressionXZ      moduleCompression = ".ko.xz"
	compressionZSTD    moduleCompression = ".ko.zst"
)

func moduleCompressionOf(fileName string) moduleCompression {
	for _, c := range []moduleCompression{
		compressionNone,
		compressionGZIP,
		compressionXZ,
		compressionZSTD,
	} {
		if strings.HasSuffix(fileName, string(c)) {
			return c
		}
	}

	return compressionUnknown
}

// finitFlags returns the finit_module(2) flags required for the compression.
// The kernel decompresses all known compressions itself.
func (c moduleCompression) finitFlags() finitFlags {
	switch c {
	case compressionGZIP, compressionXZ, compressionZSTD:
		return finitFlagCompressedFile
	default:
		return 0
	}
}

// reader returns a reader with the decompressed module. Only what is
// required for init_module(2) on older kernels is supported.
func (c moduleCompression) reader(r io.Reader) (io.Reader, error) {
	switch c {
	case compressionNone:
		return r, nil
	case compressionGZIP:
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}

		return gzipReader, nil
	default:
		return nil, fmt.Errorf("compression %q: %w", c, errors.ErrUnsupported)
	}
}

// LoadModule inserts the kernel module located at the given path with the
// given parameters.
//
// finit_module(2) is tried first. If the kernel does not support it, the
// module is read into memory and loaded with init_module(2).
func LoadModule(path string, params string) error {
	module, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open module: %w", err)
	}
	defer module.Close()

	compression := moduleCompressionOf(module.Name())

	err = finitModule(int(module.Fd()), params, compression.finitFlags())
	if !errors.Is(err, errors.ErrUnsupported) {
		return err
	}

	reader, err := compression.reader(module)
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if _, err := data.ReadFrom(reader); err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	return initModule(data.Bytes(), params)
}
