// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config reads the optional boot configuration shipped in the
// initramfs.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/aibor/enclaveos/internal/nitro"
	"github.com/aibor/enclaveos/internal/nsm"
	"github.com/aibor/enclaveos/sysinit"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where init looks for the boot configuration.
const DefaultPath = "/etc/enclaveos.yaml"

// ErrInvalid is returned for configs with invalid values.
var ErrInvalid = errors.New("invalid config")

// PlatformName selects the [sysinit.Platform] to boot on.
type PlatformName string

// Supported platform names.
const (
	PlatformAuto  PlatformName = "auto"
	PlatformNitro PlatformName = nitro.Name
	PlatformNone  PlatformName = "none"
)

// Nitro configures the Nitro platform.
type Nitro struct {
	CID    uint32 `yaml:"cid"`
	Port   uint32 `yaml:"port"`
	Module string `yaml:"module"`
	Device string `yaml:"device"`
}

// Workload is the command run after the boot finished.
type Workload struct {
	Command []string `yaml:"command,omitempty"`
	Env     []string `yaml:"env,omitempty"`
}

// Config is the boot configuration.
type Config struct {
	Platform     PlatformName `yaml:"platform"`
	EntropySize  int          `yaml:"entropySize"`
	RandomDevice string       `yaml:"randomDevice"`
	Loopback     bool         `yaml:"loopback"`
	Nitro        Nitro        `yaml:"nitro"`
	Workload     Workload     `yaml:"workload,omitempty"`
}

// Default returns the configuration used if no file is present.
func Default() Config {
	return Config{
		Platform:     PlatformAuto,
		EntropySize:  sysinit.DefaultEntropySize,
		RandomDevice: sysinit.RandomDevicePath,
		Nitro: Nitro{
			CID:    nitro.DefaultCID,
			Port:   nitro.DefaultPort,
			Module: nitro.DefaultModulePath,
			Device: nsm.DevicePath,
		},
	}
}

// Load reads the config file at path. A missing file is not an error, the
// [Default] config is returned instead.
func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	} else if err != nil {
		return Default(), fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a YAML config. Values not present are taken from [Default].
// Unknown fields are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Write encodes the config as YAML.
func (c Config) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// Validate returns an error wrapping [ErrInvalid] for the first invalid
// value.
func (c Config) Validate() error {
	switch {
	case !slices.Contains([]PlatformName{PlatformAuto, PlatformNitro, PlatformNone}, c.Platform):
		return fmt.Errorf("%w: unknown platform %q", ErrInvalid, c.Platform)
	case c.EntropySize <= 0:
		return fmt.Errorf("%w: entropy size must be positive: %d", ErrInvalid, c.EntropySize)
	case !filepath.IsAbs(c.RandomDevice):
		return fmt.Errorf("%w: random device must be absolute: %q", ErrInvalid, c.RandomDevice)
	case c.Nitro.Port == 0:
		return fmt.Errorf("%w: nitro port must not be 0", ErrInvalid)
	case !filepath.IsAbs(c.Nitro.Module):
		return fmt.Errorf("%w: nitro module must be absolute: %q", ErrInvalid, c.Nitro.Module)
	case !filepath.IsAbs(c.Nitro.Device):
		return fmt.Errorf("%w: nitro device must be absolute: %q", ErrInvalid, c.Nitro.Device)
	}

	return nil
}

// Apply sets the boot parameters of cfg to the configured values.
func (c Config) Apply(cfg *sysinit.Config) {
	cfg.EntropySize = c.EntropySize
	cfg.RandomDevice = c.RandomDevice
	cfg.Loopback = c.Loopback

	if len(c.Workload.Command) > 0 {
		cfg.Handoff = sysinit.ExecHandoff(c.Workload.Command, c.Workload.Env)
	}
}
