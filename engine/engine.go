// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package engine defines the compute-engine abstraction the graph
// builder and filter orchestrator depend on: allocate scratch/buffer,
// submit a kernel, query preferred layouts and block size, query
// fused-op support. Kernel implementations themselves live behind this
// interface (see internal/engine/cpu for the one concrete
// implementation this module ships).
package engine

import (
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/tensor"
)

// PostOp is an operation an engine may be able to fuse into a Conv
// kernel.
type PostOp int

// Fusable post-ops.
const (
	PostNone PostOp = iota
	PostPool
	PostUpsample
)

func (p PostOp) String() string {
	switch p {
	case PostNone:
		return "none"
	case PostPool:
		return "pool"
	case PostUpsample:
		return "upsample"
	default:
		return "unknown"
	}
}

// Activation is the nonlinearity applied at the end of a Conv kernel.
type Activation int

// Supported activations.
const (
	ActivationNone Activation = iota
	ActivationReLU
)

// TransferFunc maps between the image's native color encoding and the
// network's working range (linear, HDR exposure scaling, sRGB, and
// signed normalization are all instances of this).
type TransferFunc interface {
	// Forward maps a native-encoded input channel value to the
	// network's working range.
	Forward(v float32) float32
	// Inverse maps a working-range value back to the native encoding.
	Inverse(v float32) float32
}

// Buffer is an opaque scratch allocation owned by an Engine.
type Buffer interface {
	// Bytes exposes the buffer's backing storage for tensor views.
	Bytes() []byte
	// Len reports the buffer's capacity in bytes.
	Len() uint64
}

// Op is the capability set every graph operator exposes to an Engine's
// Execute dispatch: just enough to name it and ask whether the engine
// can run it. Concrete per-kind accessors (ConvOp, PoolOp, ...) are
// type-asserted by Execute implementations as needed.
type Op interface {
	Name() string
}

// ConvOp is the accessor set Execute needs to run a (possibly
// post-op-fused) convolution.
type ConvOp interface {
	Op
	Src() tensor.Tensor
	Dst() tensor.Tensor
	Weight() tensor.Tensor
	Bias() tensor.Tensor
	Activation() Activation
	PostOp() PostOp
	Scratch() []byte
}

// PoolOp is the accessor set for a standalone pooling op (used when the
// engine cannot fuse pooling into Conv).
type PoolOp interface {
	Op
	Src() tensor.Tensor
	Dst() tensor.Tensor
}

// UpsampleOp is the accessor set for a standalone upsampling op.
type UpsampleOp interface {
	Op
	Src() tensor.Tensor
	Dst() tensor.Tensor
}

// ConcatConvOp is the accessor set for a convolution over two
// channel-concatenated sources. When Split is true, the two halves of
// the input channel axis are convolved by separate weight tensors
// (Weight1/Weight2, the hwc flavor); otherwise a single combined Weight
// tensor covers both (the CHW-family flavor, requiring the two sources
// to be chain-adjacent in scratch).
type ConcatConvOp interface {
	Op
	Src1() tensor.Tensor
	Src2() tensor.Tensor
	Dst() tensor.Tensor
	Split() bool
	Weight() tensor.Tensor
	Weight1() tensor.Tensor
	Weight2() tensor.Tensor
	Bias() tensor.Tensor
	Activation() Activation
	Scratch() []byte
}

// InputProcessOp is the accessor set for the source-less op that reads
// an Image tile and writes it into the graph's working tensor layout.
type InputProcessOp interface {
	Op
	Dst() tensor.Tensor
	Color() (imagebuf.Image, bool)
	Albedo() (imagebuf.Image, bool)
	Normal() (imagebuf.Image, bool)
	Transfer() TransferFunc
	HDR() bool
	SNorm() bool
	SrcRect() imagebuf.Rect
	DstOffset() (x, y int)
}

// OutputProcessOp is the accessor set for the terminal op that writes a
// tensor tile back into the caller's output Image.
type OutputProcessOp interface {
	Op
	Src() tensor.Tensor
	Dst() imagebuf.Image
	Transfer() TransferFunc
	HDR() bool
	SNorm() bool
	SrcOffset() (x, y int)
	DstRect() imagebuf.Rect
}

// AutoexposureOp is the accessor set for the HDR exposure pre-pass.
type AutoexposureOp interface {
	Op
	Src() imagebuf.Image
	SetResult(v float32)
	Result() float32
}

// ImageCopyOp is the accessor set for the final outputTemp-to-output
// copy used when in-place execution requires a temporary buffer.
type ImageCopyOp interface {
	Op
	Src() imagebuf.Image
	Dst() imagebuf.Image
}

// Engine is the compute-engine abstraction the graph and filter
// orchestrator are written against. The backend that actually executes
// kernels is a collaborator behind this interface; internal/engine/cpu
// is the one concrete implementation this module ships.
type Engine interface {
	// PreferredWeightLayout is the layout addConv/addConcatConv should
	// repack weights into.
	PreferredWeightLayout() tensor.Layout
	// PreferredActivationLayout is the layout every activation tensor
	// in the graph should use.
	PreferredActivationLayout() tensor.Layout
	// BlockC is the channel-axis padding granularity for the preferred
	// layouts (1 for unblocked layouts).
	BlockC() int
	// DataType is the element type tensors should be materialized with.
	DataType() tensor.DataType
	// IsConvSupported reports whether the engine can run a convolution
	// with the given fused post-op (PostNone is always expected to be
	// supported by any real engine).
	IsConvSupported(post PostOp) bool

	// NewScratchBuffer allocates a zeroed scratch region of the given
	// byte size.
	NewScratchBuffer(size uint64) Buffer

	// Execute runs op, dispatching on its concrete accessor interface.
	// It returns an error if op exposes none of the known accessor
	// interfaces.
	Execute(op Op) error
}
