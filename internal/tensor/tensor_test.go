package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightLayoutRoundTrip(t *testing.T) {
	layouts := []Layout{OIHW, OHWI, OIhw8i8o, OIhw16i16o, OIhw2o8i8o2i, OIhw8i16o2i}

	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			const paddedO, paddedI, H, W = 16, 16, 2, 3
			desc := TensorDesc{
				Dims:       Dims{paddedO, paddedI, H, W},
				PaddedDims: Dims{paddedO, paddedI, H, W},
				Layout:     layout,
				DataType:   Float,
			}
			buf := make([]byte, desc.AlignedByteSize())
			tt := View(desc, buf, 0)

			seen := map[[4]int]bool{}
			for o := 0; o < paddedO; o++ {
				for i := 0; i < paddedI; i++ {
					for h := 0; h < H; h++ {
						for w := 0; w < W; w++ {
							v := float32(o*1000 + i*100 + h*10 + w)
							tt.SetWeight(o, i, h, w, v)
							seen[[4]int{o, i, h, w}] = true
						}
					}
				}
			}
			for o := 0; o < paddedO; o++ {
				for i := 0; i < paddedI; i++ {
					for h := 0; h < H; h++ {
						for w := 0; w < W; w++ {
							want := float32(o*1000 + i*100 + h*10 + w)
							require.Equal(t, want, tt.GetWeight(o, i, h, w), "o=%d i=%d h=%d w=%d", o, i, h, w)
						}
					}
				}
			}
		})
	}
}

func TestActivationLayoutRoundTrip(t *testing.T) {
	layouts := []Layout{CHW, HWC, Chw16c}
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			desc := NewActivationDesc(16, 2, 3, 16, layout, Float)
			buf := make([]byte, desc.AlignedByteSize())
			tt := View(desc, buf, 0)

			for c := 0; c < 16; c++ {
				for h := 0; h < 2; h++ {
					for w := 0; w < 3; w++ {
						tt.SetActivation(c, h, w, float32(c*100+h*10+w))
					}
				}
			}
			for c := 0; c < 16; c++ {
				for h := 0; h < 2; h++ {
					for w := 0; w < 3; w++ {
						require.Equal(t, float32(c*100+h*10+w), tt.GetActivation(c, h, w))
					}
				}
			}
		})
	}
}

func TestHalfFloatConversionPreservesIntegers(t *testing.T) {
	desc := NewBiasDesc(4, 4, Half)
	buf := make([]byte, desc.AlignedByteSize())
	tt := View(desc, buf, 0)
	tt.SetBias(0, 1.5)
	tt.SetBias(1, -2.25)
	require.InDelta(t, 1.5, tt.GetBias(0), 1e-3)
	require.InDelta(t, -2.25, tt.GetBias(1), 1e-3)
}

func TestAlignedByteSizeRoundsUp(t *testing.T) {
	desc := NewBiasDesc(1, 1, Float)
	require.Equal(t, uint64(BufferAlignment), desc.AlignedByteSize())
}
