package cpu

import (
	"encoding/binary"
	"math"

	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/parallel"
	"github.com/lumenforge/denoise/internal/tensor"
)

var parallelConfig = parallel.DefaultConfig()

func applyActivation(v float32, act engine.Activation) float32 {
	if act == engine.ActivationReLU && v < 0 {
		return 0
	}
	return v
}

// readPixel decodes pixel (x, y) of img as linear RGB, honoring its
// Format (Float3 stores raw IEEE754 float32 triples, Half3 half-precision).
func readPixel(img imagebuf.Image, x, y int) (r, g, b float32) {
	px := img.Pixel(x, y)
	switch img.Format {
	case imagebuf.Half3:
		r = tensor.HalfToFloat(binary.LittleEndian.Uint16(px[0:2]))
		g = tensor.HalfToFloat(binary.LittleEndian.Uint16(px[2:4]))
		b = tensor.HalfToFloat(binary.LittleEndian.Uint16(px[4:6]))
	default:
		r = math.Float32frombits(binary.LittleEndian.Uint32(px[0:4]))
		g = math.Float32frombits(binary.LittleEndian.Uint32(px[4:8]))
		b = math.Float32frombits(binary.LittleEndian.Uint32(px[8:12]))
	}
	return
}

func writePixel(img imagebuf.Image, x, y int, r, g, b float32) {
	px := img.Pixel(x, y)
	switch img.Format {
	case imagebuf.Half3:
		binary.LittleEndian.PutUint16(px[0:2], tensor.FloatToHalf(r))
		binary.LittleEndian.PutUint16(px[2:4], tensor.FloatToHalf(g))
		binary.LittleEndian.PutUint16(px[4:6], tensor.FloatToHalf(b))
	default:
		binary.LittleEndian.PutUint32(px[0:4], math.Float32bits(r))
		binary.LittleEndian.PutUint32(px[4:8], math.Float32bits(g))
		binary.LittleEndian.PutUint32(px[8:12], math.Float32bits(b))
	}
}

// convAt computes one output element of a same-padded convolution over
// src's srcC channels, reading weight's input-channel axis starting at
// weightChanBase (used by concat-conv to address the second half of a
// combined weight tensor).
func convAt(src tensor.Tensor, weightChanBase, srcC, H, W int, weight tensor.Tensor, oc, y, x, kh, kw int) float32 {
	padH, padW := kh/2, kw/2
	var sum float32
	for ic := 0; ic < srcC; ic++ {
		for dy := 0; dy < kh; dy++ {
			sy := y - padH + dy
			if sy < 0 || sy >= H {
				continue
			}
			for dx := 0; dx < kw; dx++ {
				sx := x - padW + dx
				if sx < 0 || sx >= W {
					continue
				}
				sum += src.GetActivation(ic, sy, sx) * weight.GetWeight(oc, weightChanBase+ic, dy, dx)
			}
		}
	}
	return sum
}

func runConv(op engine.ConvOp) error {
	src, dst, weight, bias := op.Src(), op.Dst(), op.Weight(), op.Bias()
	H, W := src.Desc.H(), src.Desc.W()
	kh, kw := weight.Desc.H(), weight.Desc.W()
	srcC := src.Desc.C()
	act := op.Activation()

	parallel.ForChannels(dst.Desc.C(), func(oc int) {
		b := bias.GetBias(oc)
		for y := 0; y < dst.Desc.H(); y++ {
			for x := 0; x < dst.Desc.W(); x++ {
				v := convAt(src, 0, srcC, H, W, weight, oc, y, x, kh, kw) + b
				dst.SetActivation(oc, y, x, applyActivation(v, act))
			}
		}
	}, parallelConfig)
	return nil
}

func runConcatConv(op engine.ConcatConvOp) error {
	src1, src2, dst, bias := op.Src1(), op.Src2(), op.Dst(), op.Bias()
	H, W := src1.Desc.H(), src1.Desc.W()
	c1, c2 := src1.Desc.C(), src2.Desc.C()
	act := op.Activation()

	parallel.ForChannels(dst.Desc.C(), func(oc int) {
		b := bias.GetBias(oc)
		for y := 0; y < H; y++ {
			for x := 0; x < W; x++ {
				var v float32
				if op.Split() {
					w1, w2 := op.Weight1(), op.Weight2()
					v = convAt(src1, 0, c1, H, W, w1, oc, y, x, w1.Desc.H(), w1.Desc.W())
					v += convAt(src2, 0, c2, H, W, w2, oc, y, x, w2.Desc.H(), w2.Desc.W())
				} else {
					w := op.Weight()
					v = convAt(src1, 0, c1, H, W, w, oc, y, x, w.Desc.H(), w.Desc.W())
					v += convAt(src2, src1.Desc.PaddedC(), c2, H, W, w, oc, y, x, w.Desc.H(), w.Desc.W())
				}
				dst.SetActivation(oc, y, x, applyActivation(v+b, act))
			}
		}
	}, parallelConfig)
	return nil
}

func runPool(op engine.PoolOp) error {
	src, dst := op.Src(), op.Dst()
	H, W := src.Desc.H(), src.Desc.W()
	for c := 0; c < dst.Desc.C(); c++ {
		for y := 0; y < dst.Desc.H(); y++ {
			for x := 0; x < dst.Desc.W(); x++ {
				max := float32(math.Inf(-1))
				for dy := 0; dy < 2; dy++ {
					sy := y*2 + dy
					if sy >= H {
						continue
					}
					for dx := 0; dx < 2; dx++ {
						sx := x*2 + dx
						if sx >= W {
							continue
						}
						if v := src.GetActivation(c, sy, sx); v > max {
							max = v
						}
					}
				}
				dst.SetActivation(c, y, x, max)
			}
		}
	}
	return nil
}

func runUpsample(op engine.UpsampleOp) error {
	src, dst := op.Src(), op.Dst()
	for c := 0; c < dst.Desc.C(); c++ {
		for y := 0; y < dst.Desc.H(); y++ {
			for x := 0; x < dst.Desc.W(); x++ {
				dst.SetActivation(c, y, x, src.GetActivation(c, y/2, x/2))
			}
		}
	}
	return nil
}

type identityTransfer struct{}

func (identityTransfer) Forward(v float32) float32 { return v }
func (identityTransfer) Inverse(v float32) float32 { return v }

// copyImageIntoTensor reads rect from img and writes it into dst's
// activation tensor starting at channel chanBase, offset by (dstOffX,
// dstOffY). snorm maps [0,1] inputs into [-1,1] before the transfer
// function runs; runInputProcess sets it only for the normal input.
func copyImageIntoTensor(img imagebuf.Image, rect imagebuf.Rect, dst tensor.Tensor, dstOffX, dstOffY, chanBase int, transfer engine.TransferFunc, snorm bool) {
	for y := 0; y < rect.Height; y++ {
		for x := 0; x < rect.Width; x++ {
			r, g, b := readPixel(img, rect.X+x, rect.Y+y)
			if snorm {
				r, g, b = r*2-1, g*2-1, b*2-1
			}
			dst.SetActivation(chanBase+0, dstOffY+y, dstOffX+x, transfer.Forward(r))
			dst.SetActivation(chanBase+1, dstOffY+y, dstOffX+x, transfer.Forward(g))
			dst.SetActivation(chanBase+2, dstOffY+y, dstOffX+x, transfer.Forward(b))
		}
	}
}

func runInputProcess(op engine.InputProcessOp) error {
	dst := op.Dst()
	rect := op.SrcRect()
	dstOffX, dstOffY := op.DstOffset()
	transfer := op.Transfer()

	chanBase := 0
	if color, ok := op.Color(); ok {
		copyImageIntoTensor(color, rect, dst, dstOffX, dstOffY, chanBase, transfer, false)
		chanBase += 3
	}
	if albedo, ok := op.Albedo(); ok {
		copyImageIntoTensor(albedo, rect, dst, dstOffX, dstOffY, chanBase, identityTransfer{}, false)
		chanBase += 3
	}
	if normal, ok := op.Normal(); ok {
		copyImageIntoTensor(normal, rect, dst, dstOffX, dstOffY, chanBase, identityTransfer{}, op.SNorm())
		chanBase += 3
	}
	return nil
}

func runOutputProcess(op engine.OutputProcessOp) error {
	src := op.Src()
	dst := op.Dst()
	rect := op.DstRect()
	srcOffX, srcOffY := op.SrcOffset()
	transfer := op.Transfer()

	for y := 0; y < rect.Height; y++ {
		for x := 0; x < rect.Width; x++ {
			r := transfer.Inverse(src.GetActivation(0, srcOffY+y, srcOffX+x))
			g := transfer.Inverse(src.GetActivation(1, srcOffY+y, srcOffX+x))
			b := transfer.Inverse(src.GetActivation(2, srcOffY+y, srcOffX+x))
			if op.SNorm() {
				r, g, b = (r+1)*0.5, (g+1)*0.5, (b+1)*0.5
			}
			writePixel(dst, rect.X+x, rect.Y+y, r, g, b)
		}
	}
	return nil
}

// runAutoexposure computes a simple key-value exposure scale from the
// log-average luminance of the color image, matching OIDN's approach
// in spirit without reproducing its exact histogram-percentile logic.
func runAutoexposure(op engine.AutoexposureOp) error {
	img := op.Src()
	var sumLog float64
	var n int
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := readPixel(img, x, y)
			lum := 0.2126*r + 0.7152*g + 0.0722*b
			if lum > 1e-4 {
				sumLog += math.Log(float64(lum))
				n++
			}
		}
	}
	if n == 0 {
		op.SetResult(1)
		return nil
	}
	avgLog := sumLog / float64(n)
	const key = 0.18
	scale := key / math.Exp(avgLog)
	op.SetResult(float32(scale))
	return nil
}

func runImageCopy(op engine.ImageCopyOp) error {
	src, dst := op.Src(), op.Dst()
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			copy(dst.Pixel(x, y), src.Pixel(x, y))
		}
	}
	return nil
}
