// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinit implements the boot sequence of an enclave's init process.
//
// The init runs as PID 1 in a hardware isolated guest. [Boot] mounts the
// system file systems, binds the standard streams to the console, lets the
// [Platform] signal the hypervisor, seeds the kernel's random pool from the
// platform's entropy device and finally reboots the system, after running the
// optional workload. All system interaction goes through the [System]
// interface, which is implemented by [Linux].
package sysinit
