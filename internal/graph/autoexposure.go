package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
)

// Autoexposure computes an HDR exposure scale from the color image. It
// is constructed directly by the filter orchestrator (not through
// Graph.addX) since it runs once per execute, ahead of any tile, and
// is never part of a Graph's planned allocations.
type Autoexposure struct {
	name   string
	src    imagebuf.Image
	result float32
}

// NewAutoexposure constructs an Autoexposure op bound to src.
func NewAutoexposure(src imagebuf.Image) *Autoexposure {
	return &Autoexposure{name: "autoexposure", src: src}
}

func (a *Autoexposure) Name() string                 { return a.name }
func (a *Autoexposure) Submit(eng engine.Engine) error { return eng.Execute(a) }

// Accessors satisfying engine.AutoexposureOp.
func (a *Autoexposure) Src() imagebuf.Image   { return a.src }
func (a *Autoexposure) Result() float32       { return a.result }
func (a *Autoexposure) SetResult(v float32)   { a.result = v }
