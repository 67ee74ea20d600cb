// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package nitro

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aibor/enclaveos/internal/nsm"
	"github.com/aibor/enclaveos/sysinit"
)

// DefaultModulePath is where the initramfs carries the nsm kernel module.
const DefaultModulePath = "/nsm.ko"

// MiscDevicePath is the sysfs entry of the secure module's misc device. It
// exists once the driver is registered, built in or loaded.
const MiscDevicePath = "/sys/class/misc/nsm"

// Name is the platform name used in configs and log messages.
const Name = "nitro"

// ModuleLoader loads kernel modules. It is implemented by [sysinit.System].
type ModuleLoader interface {
	LoadModule(path, params string) error
}

// DeviceOpener opens the secure module device at the given path.
type DeviceOpener func(path string) (sysinit.EntropyHandle, error)

var _ sysinit.Platform = (*Platform)(nil)

// Platform is the AWS Nitro Enclaves [sysinit.Platform].
type Platform struct {
	// Dial connects to the heartbeat endpoint.
	Dial Dialer

	// Endpoint is the heartbeat address.
	Endpoint Endpoint

	// Modules loads the nsm kernel module.
	Modules ModuleLoader

	// ModulePath is the nsm kernel module file. If it does not exist, the
	// driver is expected to be built into the kernel.
	ModulePath string

	// DevicePath is the secure module device file.
	DevicePath string

	// OpenDevice opens the secure module at DevicePath.
	OpenDevice DeviceOpener

	Logger *slog.Logger
}

// New returns a [Platform] with the default Nitro endpoint and paths that
// loads modules with the given loader.
func New(modules ModuleLoader, logger *slog.Logger) *Platform {
	return &Platform{
		Dial:       DialVsock,
		Endpoint:   DefaultEndpoint(),
		Modules:    modules,
		ModulePath: DefaultModulePath,
		DevicePath: nsm.DevicePath,
		OpenDevice: OpenSession,
		Logger:     logger,
	}
}

// Name implements [sysinit.Platform].
func (*Platform) Name() string {
	return Name
}

// Attest implements [sysinit.Platform].
//
// It sends the [Heartbeat] and loads the nsm kernel module afterwards, so
// the entropy device is available for the following boot stages.
func (p *Platform) Attest() error {
	if err := Heartbeat(p.Dial, p.Endpoint); err != nil {
		return err
	}

	p.logger().Info("sent heartbeat")

	return p.loadModule()
}

// SampleEntropy implements [sysinit.Platform]. The entropy is read from the
// secure module's random number generator.
func (p *Platform) SampleEntropy(size int) ([]byte, error) {
	return sysinit.AcquireEntropy(device{p.DevicePath, p.OpenDevice}, size) //nolint:wrapcheck
}

func (p *Platform) loadModule() error {
	if _, err := os.Stat(p.ModulePath); errors.Is(err, fs.ErrNotExist) {
		p.logger().Info("module " + p.ModulePath + " not present, skipped")
		return nil
	}

	if err := p.Modules.LoadModule(p.ModulePath, ""); err != nil {
		return fmt.Errorf("%w: %s: %w", sysinit.ErrModuleLoad, p.ModulePath, err)
	}

	p.logger().Info("loaded module " + p.ModulePath)

	// Free the initramfs memory occupied by the file.
	if err := os.Remove(p.ModulePath); err != nil {
		p.logger().Warn("remove module file: " + err.Error())
	}

	return nil
}

func (p *Platform) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}

	return p.Logger
}
