package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// Pool is a standalone 2x2 max-pool, used when the engine cannot fuse
// pooling into the preceding Conv.
type Pool struct {
	baseOp
	dstDesc  tensor.TensorDesc
	src, dst tensor.Tensor
}

func newPool(name string, dstDesc tensor.TensorDesc) *Pool {
	return &Pool{baseOp: baseOp{name: name}, dstDesc: dstDesc}
}

func (p *Pool) DstDesc() (tensor.TensorDesc, bool) { return p.dstDesc, true }
func (p *Pool) SetSrc(t tensor.Tensor)             { p.src = t }
func (p *Pool) SetDst(t tensor.Tensor)             { p.dst = t }
func (p *Pool) Submit(eng engine.Engine) error     { return eng.Execute(p) }

func (p *Pool) Src() tensor.Tensor { return p.src }
func (p *Pool) Dst() tensor.Tensor { return p.dst }
