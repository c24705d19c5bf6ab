package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/tensor"
)

// OutputProcess is the terminal op that writes a tile of the graph's
// working tensor back into the caller's output image. Like
// InputProcess, its bindings are reconfigured per tile.
type OutputProcess struct {
	baseOp
	transfer engine.TransferFunc
	hdr      bool
	snorm    bool

	src                    tensor.Tensor
	dst                    imagebuf.Image
	srcOffsetX, srcOffsetY int
	dstRect                imagebuf.Rect
}

func newOutputProcess(name string, transfer engine.TransferFunc, hdr, snorm bool) *OutputProcess {
	return &OutputProcess{baseOp: baseOp{name: name}, transfer: transfer, hdr: hdr, snorm: snorm}
}

func (p *OutputProcess) DstDesc() (tensor.TensorDesc, bool) { return tensor.TensorDesc{}, false }
func (p *OutputProcess) SetSrc(t tensor.Tensor)             { p.src = t }
func (p *OutputProcess) SetDst(t tensor.Tensor)             {} // terminal op, no destination allocation
func (p *OutputProcess) Submit(eng engine.Engine) error     { return eng.Execute(p) }

// SetTile reconfigures the op's image binding and windows for one tile.
func (p *OutputProcess) SetTile(dst imagebuf.Image, srcOffsetX, srcOffsetY int, dstRect imagebuf.Rect) {
	p.dst = dst
	p.srcOffsetX, p.srcOffsetY = srcOffsetX, srcOffsetY
	p.dstRect = dstRect
}

// SetTransfer rebinds the transfer function used when converting the
// denoised activations back into output pixels. See
// InputProcess.SetTransfer.
func (p *OutputProcess) SetTransfer(transfer engine.TransferFunc) { p.transfer = transfer }

// Accessors satisfying engine.OutputProcessOp.
func (p *OutputProcess) Src() tensor.Tensor            { return p.src }
func (p *OutputProcess) Dst() imagebuf.Image           { return p.dst }
func (p *OutputProcess) Transfer() engine.TransferFunc { return p.transfer }
func (p *OutputProcess) HDR() bool                     { return p.hdr }
func (p *OutputProcess) SNorm() bool                   { return p.snorm }
func (p *OutputProcess) SrcOffset() (int, int)         { return p.srcOffsetX, p.srcOffsetY }
func (p *OutputProcess) DstRect() imagebuf.Rect        { return p.dstRect }
