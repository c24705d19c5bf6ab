package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// Conv is a convolution, optionally with a fused Pool or Upsample
// post-op and a ReLU or linear activation.
type Conv struct {
	baseOp
	dstDesc tensor.TensorDesc
	post    engine.PostOp
	act     engine.Activation

	src, dst, weight, bias tensor.Tensor
	scratch                []byte
}

func newConv(name string, dstDesc tensor.TensorDesc, act engine.Activation, post engine.PostOp) *Conv {
	return &Conv{baseOp: baseOp{name: name}, dstDesc: dstDesc, act: act, post: post}
}

func (c *Conv) DstDesc() (tensor.TensorDesc, bool) { return c.dstDesc, true }
func (c *Conv) IsSupported(eng engine.Engine) bool { return eng.IsConvSupported(c.post) }
func (c *Conv) SetSrc(t tensor.Tensor)             { c.src = t }
func (c *Conv) SetDst(t tensor.Tensor)             { c.dst = t }
func (c *Conv) SetWeight(t tensor.Tensor)          { c.weight = t }
func (c *Conv) SetBias(t tensor.Tensor)            { c.bias = t }
func (c *Conv) SetScratch(buf []byte)              { c.scratch = buf }
func (c *Conv) Submit(eng engine.Engine) error     { return eng.Execute(c) }

// Accessors satisfying engine.ConvOp.
func (c *Conv) Src() tensor.Tensor            { return c.src }
func (c *Conv) Dst() tensor.Tensor            { return c.dst }
func (c *Conv) Weight() tensor.Tensor         { return c.weight }
func (c *Conv) Bias() tensor.Tensor           { return c.bias }
func (c *Conv) Activation() engine.Activation { return c.act }
func (c *Conv) PostOp() engine.PostOp         { return c.post }
func (c *Conv) Scratch() []byte               { return c.scratch }
