// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: MIT

package initramfs

import (
	"io"
	"io/fs"
)

// Writer defines initramfs archive writer interface.
type Writer interface {
	WriteDirectory(path string) error
	WriteRegular(path string, body io.Reader, size int64, mode fs.FileMode) error
}
