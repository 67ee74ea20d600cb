// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/aibor/enclaveos/internal/config"
	"github.com/aibor/enclaveos/internal/initramfs"
	"github.com/aibor/enclaveos/internal/sys"
)

// IO provides input and output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run is the main entry point of mkinitramfs. It returns the exit code.
func Run(args []string, cfg IO) int {
	flags, err := parseArgs(args[0], args[1:], cfg.Stderr)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.Debug)

	if err := run(flags, os.DirFS("/"), cfg.Stdout); err != nil {
		slog.Error(err.Error())
		return 1
	}

	return 0
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	return 2
}

// bootConfig returns the content of the boot config file for the archive.
func bootConfig(flags *flags) ([]byte, error) {
	if !flags.generatesConfig() {
		data, err := os.ReadFile(flags.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if _, err := config.Parse(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config %s: %w", flags.ConfigPath, err)
		}

		return data, nil
	}

	cfg := config.Default()
	cfg.Platform = config.PlatformName(flags.Platform)
	cfg.EntropySize = flags.EntropySize
	cfg.Loopback = flags.Loopback
	cfg.Workload.Command = flags.Workload

	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		return nil, fmt.Errorf("generate config: %w", err)
	}

	return buf.Bytes(), nil
}

// relativeToRoot returns the absolute path relative to "/" as required for
// [os.DirFS].
func relativeToRoot(path string) string {
	return strings.TrimPrefix(path, "/")
}

// validateInit checks that the init binary can run on its own as PID 1 of
// an enclave of the given architecture.
func validateInit(fsys fs.FS, path string, arch sys.Arch) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read init: %w", err)
	}

	if err := sys.ValidateInit(bytes.NewReader(data), arch); err != nil {
		return fmt.Errorf("init %s: %w", path, err)
	}

	return nil
}

func run(flags *flags, fsys fs.FS, stdout io.Writer) error {
	initPath := relativeToRoot(flags.InitPath)

	if !flags.NoValidate {
		if err := validateInit(fsys, initPath, flags.Arch); err != nil {
			return err
		}
	}

	configData, err := bootConfig(flags)
	if err != nil {
		return err
	}

	layout := initramfs.Layout{
		Init:   initPath,
		Config: configData,
	}

	if flags.ModulePath != "" {
		layout.Module = relativeToRoot(flags.ModulePath)
	}

	if flags.OutputPath == stdoutPath {
		return writeArchive(stdout, fsys, layout)
	}

	file, err := os.Create(flags.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	err = writeArchive(file, fsys, layout)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close output: %w", closeErr)
	}

	if err != nil {
		_ = os.Remove(flags.OutputPath)
		return err
	}

	slog.Info("Created initramfs archive", slog.String("path", flags.OutputPath))

	return nil
}

func writeArchive(w io.Writer, fsys fs.FS, layout initramfs.Layout) error {
	writer := initramfs.NewCPIOWriter(w)

	if err := initramfs.Build(writer, fsys, layout); err != nil {
		return fmt.Errorf("build initramfs: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("write initramfs: %w", err)
	}

	return nil
}
