// Package tensor implements the tensor descriptor and memory-layout model
// shared by the execution graph, the weight repacker and the reference
// engine: immutable TensorDesc values, and Tensor views over a
// caller-owned backing buffer.
package tensor

import "fmt"

// DataType is the element type of a tensor.
type DataType int

// Supported element types. The repacker and the reference engine only
// ever produce or consume these two.
const (
	Float DataType = iota // 32-bit IEEE-754 float
	Half                  // 16-bit IEEE-754 float
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float:
		return 4
	case Half:
		return 2
	default:
		panic(fmt.Sprintf("tensor: unknown data type %d", int(dt)))
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float:
		return "float"
	case Half:
		return "half"
	default:
		return "unknown"
	}
}

// Layout tags the physical arrangement of a tensor's elements.
type Layout int

const (
	// Canonical unblocked layouts.
	OIHW Layout = iota // weight: [O, I, H, W], row-major
	CHW                // activation: [C, H, W], row-major
	X                  // 1D: [X] (bias)
	HWC                // activation: [H, W, C], row-major

	// Blocked layouts used by vectorized backends. Channel axes are
	// grouped into blocks of a backend-specific size (BlockC).
	Chw16c       // activation: [C/16, H, W, 16]
	OIhw8i8o     // weight: [O/8, I/8, H, W, 8i, 8o]
	OIhw16i16o   // weight: [O/16, I/16, H, W, 16i, 16o]
	OIhw2o8i8o2i // weight: [O/16, I/16, H, W, 2o, 8i, 8o, 2i]
	OIhw8i16o2i  // weight: [O/16, I/16, H, W, 8i, 16o, 2i]
	OHWI         // weight: [O, H, W, I], row-major
)

func (l Layout) String() string {
	switch l {
	case OIHW:
		return "oihw"
	case CHW:
		return "chw"
	case X:
		return "x"
	case HWC:
		return "hwc"
	case Chw16c:
		return "Chw16c"
	case OIhw8i8o:
		return "OIhw8i8o"
	case OIhw16i16o:
		return "OIhw16i16o"
	case OIhw2o8i8o2i:
		return "OIhw2o8i8o2i"
	case OIhw8i16o2i:
		return "OIhw8i16o2i"
	case OHWI:
		return "ohwi"
	default:
		return "unknown"
	}
}

// IsWeightLayout reports whether l is a layout used for convolution
// weights (rank 4, O/I channel axes) rather than activations or bias.
func (l Layout) IsWeightLayout() bool {
	switch l {
	case OIHW, OIhw8i8o, OIhw16i16o, OIhw2o8i8o2i, OIhw8i16o2i, OHWI:
		return true
	default:
		return false
	}
}
