// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"

	"github.com/aibor/enclaveos/internal/nitro"
	"github.com/aibor/enclaveos/sysinit"
)

// NewPlatform returns the configured [sysinit.Platform].
//
// With [PlatformAuto], the platform is selected on first use. Boot uses it
// first in the attestation stage, after the system file systems are mounted.
// Nitro is chosen if its module file, its device or its sysfs entry exists.
func (c Config) NewPlatform(modules nitro.ModuleLoader, logger *slog.Logger) sysinit.Platform {
	if logger == nil {
		logger = slog.Default()
	}

	switch c.Platform {
	case PlatformNitro:
		return c.nitroPlatform(modules, logger)
	case PlatformAuto:
		return &autoPlatform{
			probes: []string{c.Nitro.Module, c.Nitro.Device, nitro.MiscDevicePath},
			nitro: func() sysinit.Platform {
				return c.nitroPlatform(modules, logger)
			},
			logger: logger,
		}
	default:
		return sysinit.NullPlatform{}
	}
}

func (c Config) nitroPlatform(modules nitro.ModuleLoader, logger *slog.Logger) *nitro.Platform {
	platform := nitro.New(modules, logger)
	platform.Endpoint = nitro.Endpoint{CID: c.Nitro.CID, Port: c.Nitro.Port}
	platform.ModulePath = c.Nitro.Module
	platform.DevicePath = c.Nitro.Device

	return platform
}

var _ sysinit.Platform = (*autoPlatform)(nil)

// autoPlatform detects the actual platform when it is first used. Until
// then, its name is [PlatformAuto].
type autoPlatform struct {
	probes   []string
	nitro    func() sysinit.Platform
	logger   *slog.Logger
	selected sysinit.Platform
}

func (p *autoPlatform) Name() string {
	if p.selected == nil {
		return string(PlatformAuto)
	}

	return p.selected.Name()
}

func (p *autoPlatform) Attest() error {
	return p.platform().Attest() //nolint:wrapcheck
}

func (p *autoPlatform) SampleEntropy(size int) ([]byte, error) {
	return p.platform().SampleEntropy(size) //nolint:wrapcheck
}

func (p *autoPlatform) platform() sysinit.Platform {
	if p.selected != nil {
		return p.selected
	}

	p.selected = sysinit.NullPlatform{}

	for _, path := range p.probes {
		if _, err := os.Stat(path); err == nil {
			p.selected = p.nitro()
			break
		}
	}

	p.logger.Info("detected platform " + p.selected.Name())

	return p.selected
}
