package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/tensor"
)

// InputProcess is the source-less op that reads a tile of the input
// images and writes it into the graph's working tensor layout. Its
// image bindings and source/destination rectangles are reconfigured by
// the orchestrator before every tile (see SetTile), not just once at
// build time.
type InputProcess struct {
	baseOp
	dstDesc  tensor.TensorDesc
	transfer engine.TransferFunc
	hdr      bool
	snorm    bool

	dst                     tensor.Tensor
	color, albedo, normal   imagebuf.Image
	hasColor, hasAlbedo, hasNormal bool
	srcRect                 imagebuf.Rect
	dstOffsetX, dstOffsetY  int
}

func newInputProcess(name string, dstDesc tensor.TensorDesc, transfer engine.TransferFunc, hdr, snorm bool) *InputProcess {
	return &InputProcess{baseOp: baseOp{name: name}, dstDesc: dstDesc, transfer: transfer, hdr: hdr, snorm: snorm}
}

func (p *InputProcess) DstDesc() (tensor.TensorDesc, bool) { return p.dstDesc, true }
func (p *InputProcess) SetSrc(t tensor.Tensor)             {} // source-less op
func (p *InputProcess) SetDst(t tensor.Tensor)             { p.dst = t }
func (p *InputProcess) Submit(eng engine.Engine) error     { return eng.Execute(p) }

// SetTile reconfigures the op's image bindings and windows for one
// tile of execution. albedo/normal may be the zero Image when the
// corresponding input is absent.
func (p *InputProcess) SetTile(color imagebuf.Image, hasAlbedo bool, albedo imagebuf.Image, hasNormal bool, normal imagebuf.Image, srcRect imagebuf.Rect, dstOffsetX, dstOffsetY int) {
	p.color, p.hasColor = color, true
	p.albedo, p.hasAlbedo = albedo, hasAlbedo
	p.normal, p.hasNormal = normal, hasNormal
	p.srcRect = srcRect
	p.dstOffsetX, p.dstOffsetY = dstOffsetX, dstOffsetY
}

// SetTransfer rebinds the transfer function used when converting input
// pixels to linear activations, letting the orchestrator apply the
// autoexposure-computed scale once it's known, after the graph was
// already built with a placeholder scale.
func (p *InputProcess) SetTransfer(transfer engine.TransferFunc) { p.transfer = transfer }

// Accessors satisfying engine.InputProcessOp.
func (p *InputProcess) Dst() tensor.Tensor { return p.dst }
func (p *InputProcess) Color() (imagebuf.Image, bool) {
	return p.color, p.hasColor
}
func (p *InputProcess) Albedo() (imagebuf.Image, bool) {
	return p.albedo, p.hasAlbedo
}
func (p *InputProcess) Normal() (imagebuf.Image, bool) {
	return p.normal, p.hasNormal
}
func (p *InputProcess) Transfer() engine.TransferFunc { return p.transfer }
func (p *InputProcess) HDR() bool                     { return p.hdr }
func (p *InputProcess) SNorm() bool                   { return p.snorm }
func (p *InputProcess) SrcRect() imagebuf.Rect        { return p.srcRect }
func (p *InputProcess) DstOffset() (int, int)         { return p.dstOffsetX, p.dstOffsetY }
