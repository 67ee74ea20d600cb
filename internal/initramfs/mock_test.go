// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs_test

import (
	"io"
	"io/fs"

	"github.com/aibor/enclaveos/internal/initramfs"
	"github.com/stretchr/testify/mock"
)

var _ initramfs.Writer = (*MockWriter)(nil)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteDirectory(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockWriter) WriteRegular(path string, body io.Reader, size int64, mode fs.FileMode) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	return m.Called(path, string(data), size, mode).Error(0)
}
