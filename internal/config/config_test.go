// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aibor/enclaveos/internal/config"
	"github.com/aibor/enclaveos/internal/nitro"
	"github.com/aibor/enclaveos/sysinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    func(*config.Config)
		expectedErr error
	}{
		{
			name:     "empty",
			input:    "",
			expected: func(*config.Config) {},
		},
		{
			name:  "platform only",
			input: "platform: nitro\n",
			expected: func(c *config.Config) {
				c.Platform = config.PlatformNitro
			},
		},
		{
			name: "full",
			input: `
platform: none
entropySize: 1024
randomDevice: /dev/random
loopback: true
nitro:
  cid: 16
  port: 5005
  module: /lib/nsm.ko.xz
  device: /dev/nsm0
workload:
  command: [/bin/app, --serve]
  env: [PATH=/bin]
`,
			expected: func(c *config.Config) {
				c.Platform = config.PlatformNone
				c.EntropySize = 1024
				c.RandomDevice = "/dev/random"
				c.Loopback = true
				c.Nitro = config.Nitro{
					CID:    16,
					Port:   5005,
					Module: "/lib/nsm.ko.xz",
					Device: "/dev/nsm0",
				}
				c.Workload = config.Workload{
					Command: []string{"/bin/app", "--serve"},
					Env:     []string{"PATH=/bin"},
				}
			},
		},
		{
			name:        "unknown field",
			input:       "mode: debug\n",
			expectedErr: assert.AnError,
		},
		{
			name:        "unknown platform",
			input:       "platform: sev\n",
			expectedErr: config.ErrInvalid,
		},
		{
			name:        "zero entropy size",
			input:       "entropySize: 0\n",
			expectedErr: config.ErrInvalid,
		},
		{
			name:        "relative random device",
			input:       "randomDevice: urandom\n",
			expectedErr: config.ErrInvalid,
		},
		{
			name:        "zero port",
			input:       "nitro:\n  port: 0\n",
			expectedErr: config.ErrInvalid,
		},
		{
			name:        "relative module",
			input:       "nitro:\n  module: nsm.ko\n",
			expectedErr: config.ErrInvalid,
		},
		{
			name:        "not yaml",
			input:       "platform: [nitro\n",
			expectedErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse(strings.NewReader(tt.input))

			switch tt.expectedErr {
			case nil:
				require.NoError(t, err)
			case assert.AnError:
				require.Error(t, err)
				return
			default:
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			expected := config.Default()
			tt.expected(&expected)
			assert.Equal(t, expected, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "enclaveos.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("present", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "enclaveos.yaml")
		require.NoError(t, os.WriteFile(path, []byte("loopback: true\n"), 0o600))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.Loopback)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "enclaveos.yaml")
		require.NoError(t, os.WriteFile(path, []byte("entropySize: -1\n"), 0o600))

		cfg, err := config.Load(path)
		require.ErrorIs(t, err, config.ErrInvalid)
		assert.ErrorContains(t, err, path)
		assert.Equal(t, config.Default(), cfg)
	})
}

func TestConfig_Write(t *testing.T) {
	cfg := config.Default()
	cfg.Platform = config.PlatformNitro
	cfg.Workload.Command = []string{"/bin/app"}

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	parsed, err := config.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestConfig_Apply(t *testing.T) {
	cfg := config.Default()
	cfg.EntropySize = 512
	cfg.RandomDevice = "/dev/random"
	cfg.Loopback = true

	boot := sysinit.DefaultConfig()
	cfg.Apply(&boot)

	assert.Equal(t, 512, boot.EntropySize)
	assert.Equal(t, "/dev/random", boot.RandomDevice)
	assert.True(t, boot.Loopback)
	assert.Nil(t, boot.Handoff)
	assert.Equal(t, sysinit.ModeRelease, boot.Mode)

	cfg.Workload.Command = []string{"/bin/app"}
	cfg.Apply(&boot)
	assert.NotNil(t, boot.Handoff)
}

func TestConfig_NewPlatform(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name             string
		platform         config.PlatformName
		moduleExists     bool
		expected         string
		expectedSelected string
	}{
		{
			name:             "none",
			platform:         config.PlatformNone,
			expected:         "none",
			expectedSelected: "none",
		},
		{
			name:             "nitro",
			platform:         config.PlatformNitro,
			expected:         "nitro",
			expectedSelected: "nitro",
		},
		{
			name:             "auto with module",
			platform:         config.PlatformAuto,
			moduleExists:     true,
			expected:         "auto",
			expectedSelected: "nitro",
		},
		{
			name:             "auto without module",
			platform:         config.PlatformAuto,
			expected:         "auto",
			expectedSelected: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			cfg := config.Default()
			cfg.Platform = tt.platform
			cfg.Nitro.Module = filepath.Join(dir, "nsm.ko")
			cfg.Nitro.Device = filepath.Join(dir, "nsm")

			if tt.moduleExists {
				require.NoError(t, os.WriteFile(cfg.Nitro.Module, nil, 0o600))
			}

			platform := cfg.NewPlatform(nil, logger)
			assert.Equal(t, tt.expected, platform.Name())

			if nitroPlatform, ok := platform.(*nitro.Platform); ok {
				assert.Equal(t, cfg.Nitro.Module, nitroPlatform.ModulePath)
				assert.Equal(t, cfg.Nitro.Device, nitroPlatform.DevicePath)
				assert.Equal(t, nitro.DefaultEndpoint(), nitroPlatform.Endpoint)
			}

			// The device does not exist, so the nitro platform fails to
			// open it. The null platform has no source at all.
			_, err := platform.SampleEntropy(16)
			require.Error(t, err)
			assert.Equal(t, tt.expectedSelected, platform.Name())
		})
	}
}

func TestConfig_NewPlatform_DetectsDeviceAfterMount(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Nitro.Module = filepath.Join(dir, "nsm.ko")
	cfg.Nitro.Device = filepath.Join(dir, "dev", "nsm")

	var logs bytes.Buffer

	platform := cfg.NewPlatform(nil, slog.New(slog.NewTextHandler(&logs, nil)))
	assert.Equal(t, "auto", platform.Name())

	// Built in driver: the device shows up once devtmpfs is mounted.
	require.NoError(t, os.Mkdir(filepath.Dir(cfg.Nitro.Device), 0o755))
	require.NoError(t, os.WriteFile(cfg.Nitro.Device, nil, 0o600))

	_, err := platform.SampleEntropy(16)
	require.ErrorIs(t, err, sysinit.ErrDeviceSample)
	assert.NotErrorIs(t, err, sysinit.ErrNoEntropySource)
	assert.Equal(t, "nitro", platform.Name())
	assert.Contains(t, logs.String(), "detected platform nitro")
}
