// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/bulb/kernel"
)

// PackTime encodes the time uniform: one little-endian f32.
func PackTime(seconds float32) []byte {
	buf := make([]byte, kernel.TimeSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(seconds))
	return buf
}

// PackRotation encodes the rotation uniform: two little-endian f32.
func PackRotation(rot [2]float32) []byte {
	buf := make([]byte, kernel.RotationSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(rot[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(rot[1]))
	return buf
}
