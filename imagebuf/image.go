// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package imagebuf defines the filter-level analogue of a tensor view: a
// rectangular region of pixels inside a caller-owned buffer that the
// filter orchestrator never copies, only slices and aliases.
package imagebuf

import "fmt"

// Format is the element layout of one pixel.
type Format int

// Supported pixel formats. Both are interleaved 3-channel buffers; only
// the element width differs.
const (
	Float3 Format = iota // 3 x float32 per pixel
	Half3                // 3 x float16 per pixel
)

func (f Format) String() string {
	switch f {
	case Float3:
		return "float3"
	case Half3:
		return "half3"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the storage size of one pixel under f.
func (f Format) BytesPerPixel() int {
	switch f {
	case Float3:
		return 12
	case Half3:
		return 6
	default:
		panic(fmt.Sprintf("imagebuf: unknown format %d", int(f)))
	}
}

// Image is a view into a region of a caller-owned backing buffer: a
// width, height, byte row stride and a byte offset, plus the pixel
// Format. Images never own storage, mirroring tensor.Tensor.
type Image struct {
	Buffer     []byte
	Format     Format
	Width      int
	Height     int
	RowStride  int // bytes between the start of consecutive rows
	ByteOffset int
}

// New constructs an Image over buf with a row stride equal to the tight
// packing of Width pixels (no row padding).
func New(buf []byte, format Format, width, height int) Image {
	return Image{
		Buffer:    buf,
		Format:    format,
		Width:     width,
		Height:    height,
		RowStride: width * format.BytesPerPixel(),
	}
}

// pixelOffset returns the byte offset of pixel (x, y) within Buffer.
func (img Image) pixelOffset(x, y int) int {
	return img.ByteOffset + y*img.RowStride + x*img.Format.BytesPerPixel()
}

// Pixel returns the backing bytes of pixel (x, y).
func (img Image) Pixel(x, y int) []byte {
	off := img.pixelOffset(x, y)
	return img.Buffer[off : off+img.Format.BytesPerPixel()]
}

// byteRange returns the [begin, end) extent of img's storage region.
func (img Image) byteRange() (begin, end int) {
	begin = img.ByteOffset
	end = img.ByteOffset + (img.Height-1)*img.RowStride + img.Width*img.Format.BytesPerPixel()
	return
}

// Overlaps reports whether img and other alias the same backing array
// and have intersecting byte ranges within it. Used by the orchestrator
// to detect in-place execution (output aliasing an input).
func (img Image) Overlaps(other Image) bool {
	if !sameArray(img.Buffer, other.Buffer) {
		return false
	}
	ab, ae := img.byteRange()
	bb, be := other.byteRange()
	return ab < be && bb < ae
}

func sameArray(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return &a[:1][0] == &b[:1][0]
}

// Rect is an axis-aligned pixel rectangle, used to describe a tile's
// source and destination windows during tiled execution.
type Rect struct {
	X, Y          int
	Width, Height int
}
