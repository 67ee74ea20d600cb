// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nitro implements the AWS Nitro Enclaves platform.
//
// On boot, the enclave sends a heartbeat to the hypervisor over vsock. The
// hypervisor considers the enclave as failed if the heartbeat does not
// arrive. Entropy is obtained from the Nitro Secure Module.
package nitro
