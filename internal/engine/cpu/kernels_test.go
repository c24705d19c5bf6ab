package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/tensor"
)

func TestApplyActivationClampsNegativesUnderReLU(t *testing.T) {
	require.Equal(t, float32(0), applyActivation(-1, engine.ActivationReLU))
	require.Equal(t, float32(2), applyActivation(2, engine.ActivationReLU))
	require.Equal(t, float32(-3), applyActivation(-3, engine.ActivationNone))
}

func TestPixelRoundTripFloat3(t *testing.T) {
	img := imagebuf.New(make([]byte, imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, 1, 1)
	writePixel(img, 0, 0, 0.25, -0.5, 1.75)
	r, g, b := readPixel(img, 0, 0)
	require.InDelta(t, 0.25, r, 1e-6)
	require.InDelta(t, -0.5, g, 1e-6)
	require.InDelta(t, 1.75, b, 1e-6)
}

func TestPixelRoundTripHalf3(t *testing.T) {
	img := imagebuf.New(make([]byte, imagebuf.Half3.BytesPerPixel()), imagebuf.Half3, 1, 1)
	writePixel(img, 0, 0, 0.25, -0.5, 1.75)
	r, g, b := readPixel(img, 0, 0)
	require.InDelta(t, 0.25, r, 1e-3)
	require.InDelta(t, -0.5, g, 1e-3)
	require.InDelta(t, 1.75, b, 1e-3)
}

func activationTensor(c, h, w int) tensor.Tensor {
	desc := tensor.NewActivationDesc(c, h, w, c, tensor.CHW, tensor.Float)
	return tensor.View(desc, make([]byte, desc.AlignedByteSize()), 0)
}

type fakePoolOp struct {
	src, dst tensor.Tensor
}

func (f fakePoolOp) Name() string         { return "pool" }
func (f fakePoolOp) Src() tensor.Tensor   { return f.src }
func (f fakePoolOp) Dst() tensor.Tensor   { return f.dst }

func TestRunPoolTakesMaxOver2x2Window(t *testing.T) {
	src := activationTensor(1, 2, 2)
	src.SetActivation(0, 0, 0, 1)
	src.SetActivation(0, 0, 1, 5)
	src.SetActivation(0, 1, 0, 3)
	src.SetActivation(0, 1, 1, 2)
	dst := activationTensor(1, 1, 1)

	require.NoError(t, runPool(fakePoolOp{src: src, dst: dst}))
	require.Equal(t, float32(5), dst.GetActivation(0, 0, 0))
}

type fakeUpsampleOp struct {
	src, dst tensor.Tensor
}

func (f fakeUpsampleOp) Name() string       { return "upsample" }
func (f fakeUpsampleOp) Src() tensor.Tensor { return f.src }
func (f fakeUpsampleOp) Dst() tensor.Tensor { return f.dst }

func TestRunUpsampleReplicatesEachSourcePixel(t *testing.T) {
	src := activationTensor(1, 1, 1)
	src.SetActivation(0, 0, 0, 7)
	dst := activationTensor(1, 2, 2)

	require.NoError(t, runUpsample(fakeUpsampleOp{src: src, dst: dst}))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			require.Equal(t, float32(7), dst.GetActivation(0, y, x))
		}
	}
}

type fakeImageCopyOp struct {
	src, dst imagebuf.Image
}

func (f fakeImageCopyOp) Name() string          { return "imagecopy" }
func (f fakeImageCopyOp) Src() imagebuf.Image   { return f.src }
func (f fakeImageCopyOp) Dst() imagebuf.Image   { return f.dst }

func TestRunImageCopyCopiesEveryPixel(t *testing.T) {
	src := imagebuf.New(make([]byte, 2*2*imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			writePixel(src, x, y, float32(x), float32(y), 1)
		}
	}
	dst := imagebuf.New(make([]byte, 2*2*imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, 2, 2)

	require.NoError(t, runImageCopy(fakeImageCopyOp{src: src, dst: dst}))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b := readPixel(dst, x, y)
			require.Equal(t, float32(x), r)
			require.Equal(t, float32(y), g)
			require.Equal(t, float32(1), b)
		}
	}
}

func TestCopyImageIntoTensorAppliesSNormMapping(t *testing.T) {
	img := imagebuf.New(make([]byte, imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, 1, 1)
	writePixel(img, 0, 0, 0, 0.5, 1)
	dst := activationTensor(3, 1, 1)

	copyImageIntoTensor(img, imagebuf.Rect{X: 0, Y: 0, Width: 1, Height: 1}, dst, 0, 0, 0, identityTransfer{}, true)

	require.InDelta(t, -1, dst.GetActivation(0, 0, 0), 1e-6)
	require.InDelta(t, 0, dst.GetActivation(1, 0, 0), 1e-6)
	require.InDelta(t, 1, dst.GetActivation(2, 0, 0), 1e-6)
}
