// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/aibor/enclaveos/internal/config"
	"github.com/aibor/enclaveos/internal/sys"
	"github.com/aibor/enclaveos/sysinit"
	"github.com/spf13/pflag"
)

// Set on build.
var version = "dev"

const (
	stdoutPath = "-"

	entropySizeMax = 1 << 20
)

type flags struct {
	InitPath    string
	Arch        sys.Arch
	NoValidate  bool
	ModulePath  string
	ConfigPath  string
	OutputPath  string
	Platform    string
	EntropySize int
	Loopback    bool
	Workload    []string

	Debug   bool
	Version bool
}

// generatesConfig returns true if the boot config is generated from flags.
func (f *flags) generatesConfig() bool {
	return f.ConfigPath == ""
}

func newFlagSet(name string, f *flags, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags...] init-binary\n\n", name)
		fs.PrintDefaults()
	}

	fs.Var(
		&f.Arch,
		"arch",
		"architecture the init binary must be built for: amd64, arm64",
	)

	fs.BoolVar(
		&f.NoValidate,
		"no-validate",
		f.NoValidate,
		"add the init binary without checking it is a static ELF executable",
	)

	fs.StringVarP(
		&f.ModulePath,
		"module",
		"m",
		f.ModulePath,
		"nsm kernel module (.ko) to add as "+config.Default().Nitro.Module,
	)

	fs.StringVarP(
		&f.ConfigPath,
		"config",
		"c",
		f.ConfigPath,
		"boot config file to add. Can not be combined with the config generating flags",
	)

	fs.StringVarP(
		&f.OutputPath,
		"output",
		"o",
		f.OutputPath,
		"archive file to write, - for stdout",
	)

	fs.StringVar(
		&f.Platform,
		"platform",
		f.Platform,
		"platform for the generated boot config: auto, nitro, none",
	)

	fs.Var(
		&limitedIntValue{value: &f.EntropySize, lower: 1, upper: entropySizeMax},
		"entropy-size",
		"bytes of entropy seeded into the kernel by the generated boot config",
	)

	fs.BoolVar(
		&f.Loopback,
		"loopback",
		f.Loopback,
		"bring up the loopback interface with the generated boot config",
	)

	fs.StringArrayVar(
		&f.Workload,
		"workload",
		f.Workload,
		"workload command run after boot by the generated boot config. "+
			"Flag may be used more than once, once per argument.",
	)

	fs.BoolVar(
		&f.Debug,
		"debug",
		f.Debug,
		"enable debug output",
	)

	fs.BoolVar(
		&f.Version,
		"version",
		f.Version,
		"show version and exit",
	)

	return fs
}

func fail(fs *pflag.FlagSet, msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(fs.Output(), err.Error())

	fs.Usage()

	return err
}

func printVersionInformation(name string, output io.Writer) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fmt.Fprintf(output, "%s: %s\n\n", name, version)
	fmt.Fprintln(output, buildInfo.String())
}

func parseArgs(name string, args []string, output io.Writer) (*flags, error) {
	f := &flags{
		Arch:        sys.Native,
		OutputPath:  stdoutPath,
		Platform:    string(config.PlatformAuto),
		EntropySize: sysinit.DefaultEntropySize,
	}

	fs := newFlagSet(name, f, output)

	if err := fs.Parse(args); err != nil {
		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.Version {
		printVersionInformation(name, output)
		return nil, &ParseArgsError{msg: "version requested", err: ErrHelp}
	}

	positionalArgs := fs.Args()
	if len(positionalArgs) != 1 {
		return nil, fail(fs, "exactly one init binary required", nil)
	}

	initPath, err := filepath.Abs(positionalArgs[0])
	if err != nil {
		return nil, fail(fs, "init path", err)
	}

	f.InitPath = initPath

	if f.ModulePath != "" {
		if !strings.HasSuffix(f.ModulePath, ".ko") {
			return nil, fail(fs, "module must be an uncompressed .ko file", nil)
		}

		if f.ModulePath, err = filepath.Abs(f.ModulePath); err != nil {
			return nil, fail(fs, "module path", err)
		}
	}

	if f.ConfigPath != "" {
		for _, name := range []string{"platform", "entropy-size", "loopback", "workload"} {
			if fs.Changed(name) {
				return nil, fail(fs, "--config can not be combined with --"+name, nil)
			}
		}
	}

	return f, nil
}
