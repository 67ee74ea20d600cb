// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command init is the PID 1 of an enclave image.
//
// Build it with the "debug" tag for an image that keeps booting on failures
// of critical stages:
//
//	go build -tags debug ./cmd/init
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/aibor/enclaveos/internal/config"
	"github.com/aibor/enclaveos/internal/dmesg"
	"github.com/aibor/enclaveos/sysinit"
)

func main() {
	logger := slog.New(dmesg.NewHandler(os.Stderr, &dmesg.Options{Level: logLevel}))
	slog.SetDefault(logger)

	bootCfg := sysinit.DefaultConfig()
	bootCfg.Mode = mode

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		logger.Error("boot config: " + err.Error() + ", using defaults")
	}

	cfg.Apply(&bootCfg)

	platform := cfg.NewPlatform(sysinit.Linux{}, logger)

	err = sysinit.Run(bootCfg, platform, logger)
	logger.Error(err.Error())

	if errors.Is(err, sysinit.ErrNotPidOne) {
		os.Exit(127)
	}

	os.Exit(1)
}
