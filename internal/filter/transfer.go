package filter

import (
	"math"

	"github.com/lumenforge/denoise/engine"
)

// linearTransfer scales a linear value by a fixed exposure factor. It
// covers both the plain LDR case (scale == 1) and the HDR case, where
// scale is either the user-supplied inputScale or the value computed
// by autoexposure.
type linearTransfer struct{ scale float32 }

func (t linearTransfer) Forward(v float32) float32 { return v * t.scale }
func (t linearTransfer) Inverse(v float32) float32 {
	if t.scale == 0 {
		return 0
	}
	return v / t.scale
}

// srgbTransfer linearizes an sRGB-encoded LDR input before exposure
// scaling, and re-encodes on the way out.
type srgbTransfer struct{ scale float32 }

func (t srgbTransfer) Forward(v float32) float32 { return srgbToLinear(v) * t.scale }
func (t srgbTransfer) Inverse(v float32) float32 {
	scaled := v
	if t.scale != 0 {
		scaled = v / t.scale
	}
	return linearToSrgb(scaled)
}

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow(float64(v+0.055)/1.055, 2.4))
}

func linearToSrgb(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

// newTransferFunc picks the TransferFunc for the color channel,
// mutually exclusive per srgb/hdr/directional as validated at commit
// time: directional color is already linear-like and uses no encoding,
// hdr and plain LDR share the scale-only path, srgb gets the encode
// step.
func newTransferFunc(srgb bool, scale float32) engine.TransferFunc {
	if srgb {
		return srgbTransfer{scale: scale}
	}
	return linearTransfer{scale: scale}
}
