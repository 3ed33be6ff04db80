// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed shaders/mandelbulb.wgsl
var defaultSource string

// Default returns the built-in Mandelbulb kernel source.
func Default() string {
	return defaultSource
}

// Kernel contract.
const (
	VertexEntryPoint   = "vertexShader"
	FragmentEntryPoint = "fragmentShader"

	// Group is the bind group holding both uniforms.
	Group = 0
	// TimeBinding holds active elapsed seconds as f32.
	TimeBinding = 0
	// RotationBinding holds the rotation as vec2<f32>.
	RotationBinding = 1

	TimeSize     = 4
	RotationSize = 8

	// VertexCount is the number of quad vertices (two triangles).
	VertexCount = 6
	// VertexStride is the byte stride of one float32x2 position.
	VertexStride = 8
)

// QuadVertices is the full-screen quad in clip space, two triangles.
var QuadVertices = [VertexCount * 2]float32{
	-1, -1, 1, 1, 1, -1,
	-1, -1, 1, 1, -1, 1,
}

// QuadBytes returns QuadVertices packed as little-endian float32.
func QuadBytes() []byte {
	buf := make([]byte, len(QuadVertices)*4)
	for i, v := range QuadVertices {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// ErrInvalidKernel is returned when shader source does not compile or does
// not honor the kernel contract.
var ErrInvalidKernel = errors.New("kernel: invalid kernel")

// Info describes a validated kernel.
type Info struct {
	// EntryPoints lists entry point names in declaration order.
	EntryPoints []string
	// Uniforms maps binding index in Group to the variable name.
	Uniforms map[uint32]string
}

// Load reads and validates a kernel from path.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("kernel: read %s: %w", path, err)
	}
	src := string(data)
	if _, err := Validate(src); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Validate compiles src to naga IR and checks the contract: a vertex entry
// point named vertexShader, a fragment entry point named fragmentShader, an
// f32 uniform at @group(0) @binding(0) and a vec2<f32> uniform at
// @group(0) @binding(1).
func Validate(src string) (*Info, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidKernel)
	}
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKernel, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKernel, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKernel, err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKernel, verrs[0])
	}
	return inspect(module)
}

func inspect(module *ir.Module) (*Info, error) {
	info := &Info{Uniforms: make(map[uint32]string)}

	stages := make(map[string]ir.ShaderStage, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		info.EntryPoints = append(info.EntryPoints, ep.Name)
		stages[ep.Name] = ep.Stage
	}
	if st, ok := stages[VertexEntryPoint]; !ok || st != ir.StageVertex {
		return nil, fmt.Errorf("%w: missing @vertex fn %s", ErrInvalidKernel, VertexEntryPoint)
	}
	if st, ok := stages[FragmentEntryPoint]; !ok || st != ir.StageFragment {
		return nil, fmt.Errorf("%w: missing @fragment fn %s", ErrInvalidKernel, FragmentEntryPoint)
	}

	for _, gv := range module.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil || gv.Binding.Group != Group {
			continue
		}
		switch gv.Binding.Binding {
		case TimeBinding:
			if !isFloatScalar(module, gv.Type) {
				return nil, fmt.Errorf("%w: binding %d (%s) must be f32", ErrInvalidKernel, TimeBinding, gv.Name)
			}
		case RotationBinding:
			if !isFloatVec2(module, gv.Type) {
				return nil, fmt.Errorf("%w: binding %d (%s) must be vec2<f32>", ErrInvalidKernel, RotationBinding, gv.Name)
			}
		default:
			return nil, fmt.Errorf("%w: unexpected uniform %s at binding %d", ErrInvalidKernel, gv.Name, gv.Binding.Binding)
		}
		info.Uniforms[gv.Binding.Binding] = gv.Name
	}
	for _, b := range []uint32{TimeBinding, RotationBinding} {
		if _, ok := info.Uniforms[b]; !ok {
			return nil, fmt.Errorf("%w: no uniform at @group(%d) @binding(%d)", ErrInvalidKernel, Group, b)
		}
	}
	return info, nil
}

func isFloatScalar(module *ir.Module, h ir.TypeHandle) bool {
	if int(h) >= len(module.Types) {
		return false
	}
	s, ok := module.Types[h].Inner.(ir.ScalarType)
	return ok && s.Kind == ir.ScalarFloat && s.Width == 4
}

func isFloatVec2(module *ir.Module, h ir.TypeHandle) bool {
	if int(h) >= len(module.Types) {
		return false
	}
	v, ok := module.Types[h].Inner.(ir.VectorType)
	return ok && v.Size == ir.Vec2 && v.Scalar.Kind == ir.ScalarFloat && v.Scalar.Width == 4
}
