package cpu

import (
	"fmt"

	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// Engine is the reference CPU implementation of engine.Engine. Its
// preferred layouts are the canonical unblocked ones (oihw/chw,
// BlockC=1, float32): it never needs blocked layouts or half precision
// to execute, which keeps the kernels below literal and readable, and
// forces the graph builder's repacker to exercise the unblocked path.
type Engine struct{}

// New constructs a reference CPU engine.
func New() *Engine { return &Engine{} }

func (e *Engine) PreferredWeightLayout() tensor.Layout     { return tensor.OIHW }
func (e *Engine) PreferredActivationLayout() tensor.Layout { return tensor.CHW }
func (e *Engine) BlockC() int                               { return 1 }
func (e *Engine) DataType() tensor.DataType                 { return tensor.Float }

// IsConvSupported reports true only for PostNone: the reference engine
// never fuses a Pool or Upsample post-op into Conv, which forces
// Graph.AddConv to exercise the documented fused-op-splitting fallback
// on every build that requests one, while still allowing plain
// convolutions (the overwhelming common case) to run unsplit.
func (e *Engine) IsConvSupported(post engine.PostOp) bool { return post == engine.PostNone }

func (e *Engine) NewScratchBuffer(size uint64) engine.Buffer { return NewBuffer(size) }

// Execute dispatches op to the matching literal kernel by type-asserting
// it against the engine package's per-kind accessor interfaces.
func (e *Engine) Execute(op engine.Op) error {
	switch o := op.(type) {
	case engine.ConvOp:
		return runConv(o)
	case engine.ConcatConvOp:
		return runConcatConv(o)
	case engine.PoolOp:
		// PoolOp and UpsampleOp have the same method set, so an upsample
		// op also lands here; tell them apart by the direction of the resize.
		if o.Dst().Desc.H() > o.Src().Desc.H() {
			return runUpsample(o)
		}
		return runPool(o)
	case engine.UpsampleOp:
		return runUpsample(o)
	case engine.InputProcessOp:
		return runInputProcess(o)
	case engine.OutputProcessOp:
		return runOutputProcess(o)
	case engine.AutoexposureOp:
		return runAutoexposure(o)
	case engine.ImageCopyOp:
		return runImageCopy(o)
	default:
		return fmt.Errorf("cpu: op %q exposes no known accessor interface", op.Name())
	}
}
