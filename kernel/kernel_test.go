// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const minimalKernel = `
@group(0) @binding(0) var<uniform> time: f32;
@group(0) @binding(1) var<uniform> rotation: vec2<f32>;

@vertex
fn vertexShader(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fragmentShader() -> @location(0) vec4<f32> {
    return vec4<f32>(rotation.x, rotation.y, time, 1.0);
}
`

func TestDefaultKernelValidates(t *testing.T) {
	info, err := Validate(Default())
	if err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	for _, name := range []string{VertexEntryPoint, FragmentEntryPoint} {
		if !slices.Contains(info.EntryPoints, name) {
			t.Errorf("entry points %v missing %s", info.EntryPoints, name)
		}
	}
	if info.Uniforms[TimeBinding] != "time" || info.Uniforms[RotationBinding] != "rotation" {
		t.Errorf("uniforms = %v, want time at 0 and rotation at 1", info.Uniforms)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"minimal", minimalKernel, false},
		{"empty", "   \n", true},
		{"syntax error", "fn vertexShader( {", true},
		{
			"renamed vertex entry",
			strings.Replace(minimalKernel, "fn vertexShader", "fn vs_main", 1),
			true,
		},
		{
			"renamed fragment entry",
			strings.Replace(minimalKernel, "fn fragmentShader", "fn fs_main", 1),
			true,
		},
		{
			"rotation at wrong binding",
			strings.Replace(minimalKernel, "@binding(1)", "@binding(2)", 1),
			true,
		},
		{
			"time declared as vec2",
			strings.NewReplacer(
				"var<uniform> time: f32", "var<uniform> time: vec2<f32>",
				", time, 1.0", ", time.x, 1.0",
			).Replace(minimalKernel),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.src)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKernel) {
					t.Errorf("Validate() err = %v, want ErrInvalidKernel", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestQuadBytes(t *testing.T) {
	b := QuadBytes()
	if len(b) != VertexCount*VertexStride {
		t.Fatalf("len = %d, want %d", len(b), VertexCount*VertexStride)
	}
	want := []float32{-1, -1, 1, 1, 1, -1, -1, -1, 1, 1, -1, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != w {
			t.Errorf("component %d = %v, want %v", i, got, w)
		}
	}
	for _, v := range QuadVertices {
		if v < -1 || v > 1 {
			t.Errorf("vertex component %v outside clip space", v)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.wgsl")
	if err := os.WriteFile(good, []byte(minimalKernel), 0o600); err != nil {
		t.Fatal(err)
	}
	src, err := Load(good)
	if err != nil {
		t.Fatalf("Load(good) = %v", err)
	}
	if src != minimalKernel {
		t.Error("Load returned different source")
	}

	bad := filepath.Join(dir, "bad.wgsl")
	if err := os.WriteFile(bad, []byte("not wgsl"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("Load(bad) err = %v, want ErrInvalidKernel", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) err = %v, want os.ErrNotExist", err)
	}
}
