// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initramfs builds the initramfs of an enclave image.
//
// The initramfs is a CPIO archive that carries the init binary, the optional
// nsm kernel module and the optional boot config, along with the mount point
// directories init mounts the system file systems on.
package initramfs
