package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/denoise/internal/tensor"
)

func rawOIHWHalf(o, i, h, w int) tensor.Tensor {
	desc := tensor.NewWeightDesc(o, i, h, w, o, i, tensor.OIHW, tensor.Half)
	buf := make([]byte, desc.AlignedByteSize())
	return tensor.View(desc, buf, 0)
}

func TestRepackWeightRoundTrip(t *testing.T) {
	layouts := []tensor.Layout{tensor.OIHW, tensor.OHWI, tensor.OIhw8i8o, tensor.OIhw16i16o, tensor.OIhw2o8i8o2i, tensor.OIhw8i16o2i}

	const O, I, H, W = 3, 5, 2, 2
	src := rawOIHWHalf(O, I, H, W)
	for o := 0; o < O; o++ {
		for i := 0; i < I; i++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					src.SetWeight(o, i, h, w, float32(o*100+i*10+h-w))
				}
			}
		}
	}

	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			const paddedO, paddedI = 16, 16
			desc := tensor.NewWeightDesc(O, I, H, W, paddedO, paddedI, layout, tensor.Half)
			buf := make([]byte, desc.AlignedByteSize())
			dst := tensor.View(desc, buf, 0)

			require.NoError(t, RepackWeight(src, 0, I, dst, 0, true))

			for o := 0; o < paddedO; o++ {
				for i := 0; i < paddedI; i++ {
					for h := 0; h < H; h++ {
						for w := 0; w < W; w++ {
							got := dst.GetWeight(o, i, h, w)
							if o < O && i < I {
								require.InDelta(t, float64(src.GetWeight(o, i, h, w)), float64(got), 1e-2)
							} else {
								require.Equal(t, float32(0), got)
							}
						}
					}
				}
			}
		})
	}
}

func TestRepackWeightTwoSlicesComposeWithoutOverwrite(t *testing.T) {
	const O, H, W = 2, 1, 1
	src1 := rawOIHWHalf(O, 3, H, W)
	src2 := rawOIHWHalf(O, 4, H, W)
	for o := 0; o < O; o++ {
		for i := 0; i < 3; i++ {
			src1.SetWeight(o, i, 0, 0, float32(100+i))
		}
		for i := 0; i < 4; i++ {
			src2.SetWeight(o, i, 0, 0, float32(200+i))
		}
	}

	const paddedO, paddedI = 16, 16
	desc := tensor.NewWeightDesc(O, 7, H, W, paddedO, paddedI, tensor.OIHW, tensor.Half)
	buf := make([]byte, desc.AlignedByteSize())
	dst := tensor.View(desc, buf, 0)

	require.NoError(t, RepackWeight(src1, 0, 3, dst, 0, true))
	require.NoError(t, RepackWeight(src2, 0, 4, dst, 3, false))

	for o := 0; o < O; o++ {
		for i := 0; i < 3; i++ {
			require.Equal(t, float32(100+i), dst.GetWeight(o, i, 0, 0))
		}
		for i := 0; i < 4; i++ {
			require.Equal(t, float32(200+i), dst.GetWeight(o, i+3, 0, 0))
		}
	}
}

func TestRepackBiasRoundTripAndPad(t *testing.T) {
	srcDesc := tensor.NewBiasDesc(3, 3, tensor.Half)
	srcBuf := make([]byte, srcDesc.AlignedByteSize())
	src := tensor.View(srcDesc, srcBuf, 0)
	src.SetBias(0, 1)
	src.SetBias(1, 2)
	src.SetBias(2, 3)

	dstDesc := tensor.NewBiasDesc(3, 8, tensor.Float)
	dstBuf := make([]byte, dstDesc.AlignedByteSize())
	dst := tensor.View(dstDesc, dstBuf, 0)

	require.NoError(t, RepackBias(src, dst))
	require.Equal(t, float32(1), dst.GetBias(0))
	require.Equal(t, float32(2), dst.GetBias(1))
	require.Equal(t, float32(3), dst.GetBias(2))
	for x := 3; x < 8; x++ {
		require.Equal(t, float32(0), dst.GetBias(x))
	}
}

func TestRepackWeightRejectsUnsupportedCombination(t *testing.T) {
	src := rawOIHWHalf(2, 2, 1, 1)
	src.Desc.DataType = tensor.Float // float source is never a supported src type
	desc := tensor.NewWeightDesc(2, 2, 1, 1, 2, 2, tensor.OIHW, tensor.Half)
	buf := make([]byte, desc.AlignedByteSize())
	dst := tensor.View(desc, buf, 0)

	err := RepackWeight(src, 0, 2, dst, 0, true)
	require.Error(t, err)
}
