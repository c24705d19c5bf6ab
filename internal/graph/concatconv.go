package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/tensor"
)

// ConcatConv convolves over two channel-concatenated sources. In the
// hwc flavor the two halves are convolved by separate weight
// sub-tensors (weight1/weight2); in the CHW family flavor a single
// combined weight tensor covers both halves, and the two sources must
// be chain-adjacent in scratch so the engine can read them as one
// concatenated input.
type ConcatConv struct {
	baseOp
	dstDesc tensor.TensorDesc
	act     engine.Activation
	split   bool

	src1, src2, dst tensor.Tensor
	weight          tensor.Tensor
	weight1, weight2 tensor.Tensor
	bias            tensor.Tensor
	scratch         []byte
}

func newConcatConv(name string, dstDesc tensor.TensorDesc, act engine.Activation, split bool) *ConcatConv {
	return &ConcatConv{baseOp: baseOp{name: name}, dstDesc: dstDesc, act: act, split: split}
}

func (c *ConcatConv) DstDesc() (tensor.TensorDesc, bool) { return c.dstDesc, true }
func (c *ConcatConv) SetSrc(t tensor.Tensor)             { c.src1 = t }
func (c *ConcatConv) SetDst(t tensor.Tensor)             { c.dst = t }
func (c *ConcatConv) SetWeight(t tensor.Tensor)          { c.weight = t }
func (c *ConcatConv) SetWeight1(t tensor.Tensor)         { c.weight1 = t }
func (c *ConcatConv) SetWeight2(t tensor.Tensor)         { c.weight2 = t }
func (c *ConcatConv) SetBias(t tensor.Tensor)            { c.bias = t }
func (c *ConcatConv) SetScratch(buf []byte)              { c.scratch = buf }
func (c *ConcatConv) Submit(eng engine.Engine) error     { return eng.Execute(c) }

// Accessors satisfying engine.ConcatConvOp.
func (c *ConcatConv) Src1() tensor.Tensor         { return c.src1 }
func (c *ConcatConv) Src2() tensor.Tensor         { return c.src2 }
func (c *ConcatConv) Dst() tensor.Tensor          { return c.dst }
func (c *ConcatConv) Split() bool                 { return c.split }
func (c *ConcatConv) Weight() tensor.Tensor       { return c.weight }
func (c *ConcatConv) Weight1() tensor.Tensor      { return c.weight1 }
func (c *ConcatConv) Weight2() tensor.Tensor      { return c.weight2 }
func (c *ConcatConv) Bias() tensor.Tensor         { return c.bias }
func (c *ConcatConv) Activation() engine.Activation { return c.act }
func (c *ConcatConv) Scratch() []byte             { return c.scratch }
