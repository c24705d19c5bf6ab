package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
)

// ImageCopy copies src into dst. It is used for the final
// outputTemp-to-output copy when in-place execution requires a
// temporary buffer (the engine cannot safely write tiles directly into
// an output that aliases an input).
type ImageCopy struct {
	name     string
	src, dst imagebuf.Image
}

// NewImageCopy constructs an ImageCopy op from src to dst.
func NewImageCopy(src, dst imagebuf.Image) *ImageCopy {
	return &ImageCopy{name: "image_copy", src: src, dst: dst}
}

func (c *ImageCopy) Name() string                   { return c.name }
func (c *ImageCopy) Submit(eng engine.Engine) error { return eng.Execute(c) }

// Accessors satisfying engine.ImageCopyOp.
func (c *ImageCopy) Src() imagebuf.Image { return c.src }
func (c *ImageCopy) Dst() imagebuf.Image { return c.dst }
