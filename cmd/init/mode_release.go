// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !debug

package main

import (
	"log/slog"

	"github.com/aibor/enclaveos/sysinit"
)

const (
	mode     = sysinit.ModeRelease
	logLevel = slog.LevelInfo
)
