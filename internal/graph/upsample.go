package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// Upsample is a standalone 2x nearest-neighbor upsample, used when the
// engine cannot fuse upsampling into the preceding Conv.
type Upsample struct {
	baseOp
	dstDesc  tensor.TensorDesc
	src, dst tensor.Tensor
}

func newUpsample(name string, dstDesc tensor.TensorDesc) *Upsample {
	return &Upsample{baseOp: baseOp{name: name}, dstDesc: dstDesc}
}

func (u *Upsample) DstDesc() (tensor.TensorDesc, bool) { return u.dstDesc, true }
func (u *Upsample) SetSrc(t tensor.Tensor)             { u.src = t }
func (u *Upsample) SetDst(t tensor.Tensor)             { u.dst = t }
func (u *Upsample) Submit(eng engine.Engine) error     { return eng.Execute(u) }

func (u *Upsample) Src() tensor.Tensor { return u.src }
func (u *Upsample) Dst() tensor.Tensor { return u.dst }
