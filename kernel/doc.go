// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package kernel holds the WGSL rendering kernel and its contract.
//
// A kernel is a WGSL module with a @vertex fn vertexShader taking a
// vec2<f32> position at location 0, a @fragment fn fragmentShader, an f32
// uniform at @group(0) @binding(0) (active elapsed seconds) and a vec2<f32>
// uniform at @group(0) @binding(1) (rotation). Validate checks a source
// against this contract with naga before it reaches the GPU, and Watcher
// hot-reloads a kernel file during development.
package kernel
