package tensor

import "github.com/x448/float16"

// HalfToFloat converts a half-precision bit pattern to float32.
func HalfToFloat(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// FloatToHalf converts a float32 value to a half-precision bit pattern.
// Values outside the representable range saturate to +/-Inf, matching
// the hardware rounding behavior the reference engine is standing in for.
func FloatToHalf(v float32) uint16 {
	return float16.Fromfloat32(v).Bits()
}
