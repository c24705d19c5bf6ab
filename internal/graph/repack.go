package graph

import (
	"github.com/lumenforge/denoise/internal/errs"
	"github.com/lumenforge/denoise/internal/tensor"
)

// repackKey identifies one supported (srcType, dstType, srcLayout,
// dstLayout) combination the repacker can copy between. Keeping it as
// a plain comparable struct, rather than a closure, lets the dispatch
// table (below) be a boot-time map literal instead of registration code.
type repackKey struct {
	srcType   tensor.DataType
	dstType   tensor.DataType
	srcLayout tensor.Layout
	dstLayout tensor.Layout
}

// weightRepackTable is the closed set of supported weight-repack
// combinations, per the contract: source always oihw/half, destination
// any of the six weight layouts, with the two fully-blocked layouts
// restricted to half output.
var weightRepackTable = map[repackKey]bool{
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OIHW}:         true,
	{tensor.Half, tensor.Float, tensor.OIHW, tensor.OIHW}:        true,
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OHWI}:         true,
	{tensor.Half, tensor.Float, tensor.OIHW, tensor.OHWI}:        true,
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OIhw8i8o}:     true,
	{tensor.Half, tensor.Float, tensor.OIHW, tensor.OIhw8i8o}:    true,
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OIhw16i16o}:   true,
	{tensor.Half, tensor.Float, tensor.OIHW, tensor.OIhw16i16o}:  true,
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OIhw2o8i8o2i}: true,
	{tensor.Half, tensor.Half, tensor.OIHW, tensor.OIhw8i16o2i}:  true,
}

// biasRepackTable is the closed set of supported bias-repack
// combinations: source always x/half, destination x/{half,float}.
var biasRepackTable = map[repackKey]bool{
	{tensor.Half, tensor.Half, tensor.X, tensor.X}:  true,
	{tensor.Half, tensor.Float, tensor.X, tensor.X}: true,
}

// RepackWeight copies the slice [srcBeginI, srcBeginI+srcI) of src's
// input channels into the slice [dstBeginI, dstBeginI+srcI) of dst. If
// zeroPad is set, every destination index outside that range (including
// padded output channels and any input-channel padding past the
// source's logical extent) is zeroed first; callers repacking more than
// one input-channel slice into the same destination (the CHW-family
// concat-conv flavor) pass zeroPad=true for the first slice and false
// for the rest, so the first call's writes survive. It is the canonical
// accessor-level implementation of the repack contract: correctness
// follows directly from Tensor.GetWeight/SetWeight already handling
// every layout's index math, so this function only needs to enumerate
// coordinates and check the dispatch table.
func RepackWeight(src tensor.Tensor, srcBeginI, srcI int, dst tensor.Tensor, dstBeginI int, zeroPad bool) error {
	key := repackKey{src.Desc.DataType, dst.Desc.DataType, src.Desc.Layout, dst.Desc.Layout}
	if !weightRepackTable[key] {
		return errs.New(errs.InvalidArgument,
			"unsupported weight repack %s/%s -> %s/%s", src.Desc.Layout, src.Desc.DataType, dst.Desc.Layout, dst.Desc.DataType)
	}
	O, H, W := dst.Desc.PaddedO(), dst.Desc.H(), dst.Desc.W()
	I := dst.Desc.PaddedI()
	srcO := src.Desc.O()
	for o := 0; o < O; o++ {
		for i := 0; i < I; i++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					inSlice := o < srcO && i >= dstBeginI && i < dstBeginI+srcI
					switch {
					case inSlice:
						dst.SetWeight(o, i, h, w, src.GetWeight(o, srcBeginI+(i-dstBeginI), h, w))
					case zeroPad:
						dst.SetWeight(o, i, h, w, 0)
					}
				}
			}
		}
	}
	return nil
}

// RepackBias copies src's logical elements into dst, zero-padding the
// tail up to dst's padded length.
func RepackBias(src tensor.Tensor, dst tensor.Tensor) error {
	key := repackKey{src.Desc.DataType, dst.Desc.DataType, src.Desc.Layout, dst.Desc.Layout}
	if !biasRepackTable[key] {
		return errs.New(errs.InvalidArgument,
			"unsupported bias repack %s/%s -> %s/%s", src.Desc.Layout, src.Desc.DataType, dst.Desc.Layout, dst.Desc.DataType)
	}
	n := src.Desc.X()
	for x := 0; x < dst.Desc.PaddedX(); x++ {
		if x < n {
			dst.SetBias(x, src.GetBias(x))
		} else {
			dst.SetBias(x, 0)
		}
	}
	return nil
}
