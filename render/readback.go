// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"

	"github.com/gogpu/gputypes"
)

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// alignedRowPitch returns the padded row size for a width in 4-byte pixels.
func alignedRowPitch(width int) uint32 {
	bytesPerRow := uint32(width) * 4
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// unpackRows copies padded rows from src into dst, stripping the padding
// and swizzling BGRA to RGBA when the source format is BGRA.
func unpackRows(dst *image.RGBA, src []byte, pitch int, format gputypes.TextureFormat) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	rowBytes := w * 4
	bgra := isBGRA(format)
	for y := 0; y < h; y++ {
		in := src[y*pitch : y*pitch+rowBytes]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+rowBytes]
		if !bgra {
			copy(out, in)
			continue
		}
		for i := 0; i < rowBytes; i += 4 {
			out[i+0] = in[i+2]
			out[i+1] = in[i+1]
			out[i+2] = in[i+0]
			out[i+3] = in[i+3]
		}
	}
}

func isBGRA(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatBGRA8Unorm || format == gputypes.TextureFormatBGRA8UnormSrgb
}

// readbackFormat reports whether format can be read back by unpackRows.
func readbackFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return true
	}
	return false
}
