// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor re-exports the tensor descriptor and view types used
// throughout the denoising engine: layouts, data types and the
// immutable TensorDesc/Tensor pair that every operator, the memory
// planner and the weight repacker build on.
//
// Tensors never own storage; they are views into a buffer owned by a
// scratch allocation or a weight blob. See package graph for how
// descriptors are derived for each operator, and package engine for how
// buffers are actually allocated.
package tensor

import (
	"github.com/lumenforge/denoise/internal/tensor"
)

// DataType is the element type of a tensor (Float or Half).
type DataType = tensor.DataType

// Element data types.
const (
	Float = tensor.Float
	Half  = tensor.Half
)

// Layout tags the physical arrangement of a tensor's elements.
type Layout = tensor.Layout

// Supported layouts.
const (
	OIHW         = tensor.OIHW
	CHW          = tensor.CHW
	X            = tensor.X
	HWC          = tensor.HWC
	Chw16c       = tensor.Chw16c
	OIhw8i8o     = tensor.OIhw8i8o
	OIhw16i16o   = tensor.OIhw16i16o
	OIhw2o8i8o2i = tensor.OIhw2o8i8o2i
	OIhw8i16o2i  = tensor.OIhw8i16o2i
	OHWI         = tensor.OHWI
)

// BufferAlignment is the byte granularity every tensor's aligned size is
// rounded up to.
const BufferAlignment = tensor.BufferAlignment

// Dims holds a tensor's logical extents.
type Dims = tensor.Dims

// TensorDesc is an immutable tensor descriptor.
type TensorDesc = tensor.TensorDesc

// Tensor is a view into a region of a backing buffer.
type Tensor = tensor.Tensor

// NewWeightDesc builds a descriptor for a convolution weight tensor.
func NewWeightDesc(o, i, h, w, paddedO, paddedI int, layout Layout, dtype DataType) TensorDesc {
	return tensor.NewWeightDesc(o, i, h, w, paddedO, paddedI, layout, dtype)
}

// NewActivationDesc builds a descriptor for a CHW/HWC/Chw16c activation tensor.
func NewActivationDesc(c, h, w, paddedC int, layout Layout, dtype DataType) TensorDesc {
	return tensor.NewActivationDesc(c, h, w, paddedC, layout, dtype)
}

// NewBiasDesc builds a descriptor for a 1D bias tensor.
func NewBiasDesc(x, paddedX int, dtype DataType) TensorDesc {
	return tensor.NewBiasDesc(x, paddedX, dtype)
}

// View constructs a Tensor over buf at the given byte offset.
func View(desc TensorDesc, buf []byte, offset uint64) Tensor {
	return tensor.View(desc, buf, offset)
}
