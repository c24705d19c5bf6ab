package filter

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/denoise/device"
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/engine/cpu"
	"github.com/lumenforge/denoise/internal/tensor"
)

// fakeBlob is an in-memory weights.Blob over a fixed set of zeroed
// weight/bias tensors, used to exercise the orchestrator end to end
// without a real trained network.
type fakeBlob map[string]tensor.Tensor

func (b fakeBlob) Get(name string) (tensor.Tensor, bool) {
	t, ok := b[name]
	return t, ok
}

func zeroWeight(o, i, kh, kw int) tensor.Tensor {
	desc := tensor.NewWeightDesc(o, i, kh, kw, o, i, tensor.OIHW, tensor.Half)
	return tensor.View(desc, make([]byte, desc.AlignedByteSize()), 0)
}

func zeroBias(x int) tensor.Tensor {
	desc := tensor.NewBiasDesc(x, x, tensor.Half)
	return tensor.View(desc, make([]byte, desc.AlignedByteSize()), 0)
}

// builtinNetworkBlob builds a fakeBlob with correctly-shaped zeroed
// weights/biases for every op in the fixed U-Net topology, given the
// logical input-channel count the input process produces.
func builtinNetworkBlob(inputC int) fakeBlob {
	layers := []struct {
		name    string
		outC    int
		inC     int
	}{
		{"enc_conv0", 32, inputC},
		{"enc_conv1", 32, 32},
		{"enc_conv2", 48, 32},
		{"enc_conv3", 64, 48},
		{"enc_conv4", 80, 64},
		{"enc_conv5a", 96, 80},
		{"enc_conv5b", 96, 96},
		{"dec_conv4a", 112, 96 + 64},
		{"dec_conv4b", 112, 112},
		{"dec_conv3a", 96, 112 + 48},
		{"dec_conv3b", 96, 96},
		{"dec_conv2a", 64, 96 + 32},
		{"dec_conv2b", 64, 64},
		{"dec_conv1a", 64, 64 + inputC},
		{"dec_conv1b", 32, 64},
		{"dec_conv0", 3, 32},
	}
	blob := fakeBlob{}
	for _, l := range layers {
		blob[l.name+".weight"] = zeroWeight(l.outC, l.inC, 3, 3)
		blob[l.name+".bias"] = zeroBias(l.outC)
	}
	return blob
}

func newTestOrchestrator(t *testing.T, numEngines int) (*Orchestrator, engine.Engine) {
	t.Helper()
	eng := cpu.New()
	o := New(eng, numEngines, 1, 1, ^uint64(0), device.NopLog{})
	o.SetWeights(builtinNetworkBlob(3))
	return o, eng
}

func solidColorImage(w, h int, r, g, b float32) imagebuf.Image {
	img := imagebuf.New(make([]byte, w*h*imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.Pixel(x, y)
			putFloat32(px[0:4], r)
			putFloat32(px[4:8], g)
			putFloat32(px[8:12], b)
		}
	}
	return img
}

func newOutputImage(w, h int) imagebuf.Image {
	return imagebuf.New(make([]byte, w*h*imagebuf.Float3.BytesPerPixel()), imagebuf.Float3, w, h)
}

func TestExecuteZeroWeightsProducesZeroOutput(t *testing.T) {
	o, _ := newTestOrchestrator(t, 1)
	color := solidColorImage(8, 8, 0.5, 0.25, 0.75)
	output := newOutputImage(8, 8)

	o.SetColor(color, true)
	o.SetOutput(output, true)

	require.NoError(t, o.Commit())
	require.NoError(t, o.Execute(context.Background(), Sync, nil))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			px := output.Pixel(x, y)
			require.InDelta(t, 0, getFloat32(px[0:4]), 1e-6)
			require.InDelta(t, 0, getFloat32(px[4:8]), 1e-6)
			require.InDelta(t, 0, getFloat32(px[8:12]), 1e-6)
		}
	}
}

func TestCommitDetectsInplaceExecution(t *testing.T) {
	o, _ := newTestOrchestrator(t, 1)
	color := solidColorImage(8, 8, 0.1, 0.1, 0.1)

	o.SetColor(color, true)
	o.SetOutput(color, true)

	require.NoError(t, o.Commit())
	require.True(t, o.inplace)
	require.True(t, o.hasOutputTemp)
}

func TestCommitRejectsMissingOutput(t *testing.T) {
	o, _ := newTestOrchestrator(t, 1)
	o.SetColor(solidColorImage(4, 4, 0, 0, 0), true)
	require.Error(t, o.Commit())
}

func TestExecuteTiledMultiEngineSucceeds(t *testing.T) {
	o, _ := newTestOrchestrator(t, 2)
	o.overlap = 2
	o.alignment = 2
	o.maxMemory = 4096 // force subdivision into several small tiles

	color := solidColorImage(16, 16, 1, 1, 1)
	output := newOutputImage(16, 16)
	o.SetColor(color, true)
	o.SetOutput(output, true)

	require.NoError(t, o.Commit())
	require.Greater(t, o.tiles.TileCountH*o.tiles.TileCountW, 1)
	require.NoError(t, o.Execute(context.Background(), Sync, nil))
}

func putFloat32(dst []byte, v float32) {
	bits := math.Float32bits(v)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}

func getFloat32(src []byte) float32 {
	bits := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24
	return math.Float32frombits(bits)
}
