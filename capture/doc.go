// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package capture stores rendered frames outside the control loop.
package capture
