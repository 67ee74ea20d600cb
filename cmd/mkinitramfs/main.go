// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command mkinitramfs packs the init binary, the nsm kernel module and the
// boot config into an initramfs archive for an enclave image.
package main

import (
	"os"

	"github.com/aibor/enclaveos/internal/cmd"
)

func main() {
	os.Exit(cmd.Run(os.Args, cmd.IO{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}))
}
