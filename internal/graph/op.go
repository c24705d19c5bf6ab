package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// Op is the narrow capability set every operator in the graph exposes
// to the builder, the finalizer and the runner. Concrete kinds that
// don't need a given setter (most don't need SetWeight/SetBias) get a
// free no-op from baseOp; only Conv and ConcatConv override them.
type Op interface {
	Name() string
	// DstDesc returns the operator's destination TensorDesc, or
	// ok=false for a terminal op with no destination (OutputProcess).
	DstDesc() (tensor.TensorDesc, bool)
	// ScratchByteSize is this op's own transient workspace requirement,
	// laid out at the base of the scratch buffer below all tensors.
	ScratchByteSize() uint64
	// IsSupported reports whether eng can execute this op at all
	// (queried once per build after tensors are wired but before
	// finalization).
	IsSupported(eng engine.Engine) bool
	SetSrc(t tensor.Tensor)
	SetDst(t tensor.Tensor)
	SetWeight(t tensor.Tensor)
	SetBias(t tensor.Tensor)
	SetScratch(buf []byte)
	// Finalize runs once, after every lazy initializer has bound this
	// op's tensors, and before the op is ever submitted.
	Finalize() error
	// Submit dispatches this op to eng. Non-blocking with respect to
	// the backend.
	Submit(eng engine.Engine) error
}

// baseOp is embedded by every concrete op kind to supply no-op defaults
// for the setters and hooks it doesn't need.
type baseOp struct {
	name string
}

func (b *baseOp) Name() string                       { return b.name }
func (b *baseOp) ScratchByteSize() uint64            { return 0 }
func (b *baseOp) IsSupported(eng engine.Engine) bool { return true }
func (b *baseOp) SetWeight(t tensor.Tensor)          {}
func (b *baseOp) SetBias(t tensor.Tensor)            {}
func (b *baseOp) SetScratch(buf []byte)              {}
func (b *baseOp) Finalize() error                    { return nil }
