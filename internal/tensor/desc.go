package tensor

import (
	"fmt"

	"github.com/lumenforge/denoise/internal/util"
)

// BufferAlignment is the byte granularity every tensor's aligned size is
// rounded up to, matching the allocation granularity the reference
// engine's scratch buffer is carved from.
const BufferAlignment = 64

// Dims holds a tensor's logical extents, interpreted by Layout's rank:
// rank 4 (weight layouts)     -> [O, I, H, W]
// rank 3 (CHW/HWC activation) -> [C, H, W]
// rank 1 (bias)               -> [X]
type Dims []int

// Clone returns an independent copy of d.
func (d Dims) Clone() Dims {
	c := make(Dims, len(d))
	copy(c, d)
	return c
}

func (d Dims) numElements() uint64 {
	n := uint64(1)
	for _, v := range d {
		n *= uint64(v)
	}
	return n
}

// TensorDesc is an immutable tensor descriptor: logical dimensions,
// padded dimensions (channel axes padded to the backend's block size),
// a layout tag and an element data type.
type TensorDesc struct {
	Dims       Dims
	PaddedDims Dims
	Layout     Layout
	DataType   DataType
}

// NewWeightDesc builds a descriptor for a convolution weight tensor in
// the given (O, I, H, W)-rank layout, with channel axes padded to
// paddedO/paddedI.
func NewWeightDesc(o, i, h, w, paddedO, paddedI int, layout Layout, dtype DataType) TensorDesc {
	if !layout.IsWeightLayout() {
		panic(fmt.Sprintf("tensor: layout %s is not a weight layout", layout))
	}
	return TensorDesc{
		Dims:       Dims{o, i, h, w},
		PaddedDims: Dims{paddedO, paddedI, h, w},
		Layout:     layout,
		DataType:   dtype,
	}
}

// NewActivationDesc builds a descriptor for a CHW/HWC/Chw16c activation
// tensor, with the channel axis padded to paddedC.
func NewActivationDesc(c, h, w, paddedC int, layout Layout, dtype DataType) TensorDesc {
	switch layout {
	case CHW, HWC, Chw16c:
	default:
		panic(fmt.Sprintf("tensor: layout %s is not an activation layout", layout))
	}
	return TensorDesc{
		Dims:       Dims{c, h, w},
		PaddedDims: Dims{paddedC, h, w},
		Layout:     layout,
		DataType:   dtype,
	}
}

// NewBiasDesc builds a descriptor for a 1D bias tensor padded to
// paddedX elements.
func NewBiasDesc(x, paddedX int, dtype DataType) TensorDesc {
	return TensorDesc{
		Dims:       Dims{x},
		PaddedDims: Dims{paddedX},
		Layout:     X,
		DataType:   dtype,
	}
}

// Rank returns the number of logical dimensions (1, 3 or 4).
func (d TensorDesc) Rank() int { return len(d.Dims) }

// O returns the logical output-channel count of a rank-4 descriptor.
func (d TensorDesc) O() int { return d.Dims[0] }

// I returns the logical input-channel count of a rank-4 descriptor.
func (d TensorDesc) I() int { return d.Dims[1] }

// H returns the logical height of a rank-3 or rank-4 descriptor.
func (d TensorDesc) H() int {
	if d.Rank() == 4 {
		return d.Dims[2]
	}
	return d.Dims[1]
}

// W returns the logical width of a rank-3 or rank-4 descriptor.
func (d TensorDesc) W() int {
	if d.Rank() == 4 {
		return d.Dims[3]
	}
	return d.Dims[2]
}

// C returns the logical channel count of a rank-3 activation descriptor.
func (d TensorDesc) C() int { return d.Dims[0] }

// X returns the logical length of a rank-1 bias descriptor.
func (d TensorDesc) X() int { return d.Dims[0] }

// PaddedO returns the padded output-channel count of a rank-4 descriptor.
func (d TensorDesc) PaddedO() int { return d.PaddedDims[0] }

// PaddedI returns the padded input-channel count of a rank-4 descriptor.
func (d TensorDesc) PaddedI() int { return d.PaddedDims[1] }

// PaddedC returns the padded channel count of a rank-3 activation descriptor.
func (d TensorDesc) PaddedC() int { return d.PaddedDims[0] }

// PaddedX returns the padded length of a rank-1 bias descriptor.
func (d TensorDesc) PaddedX() int { return d.PaddedDims[0] }

// NumElements returns the number of logical (unpadded) elements.
func (d TensorDesc) NumElements() uint64 { return d.Dims.numElements() }

// NumPaddedElements returns the number of padded elements actually
// occupying storage.
func (d TensorDesc) NumPaddedElements() uint64 { return d.PaddedDims.numElements() }

// ByteSize returns the unaligned storage size in bytes.
func (d TensorDesc) ByteSize() uint64 {
	return d.NumPaddedElements() * uint64(d.DataType.Size())
}

// AlignedByteSize returns ByteSize rounded up to BufferAlignment, the
// size a TensorAlloc reserves for this descriptor.
func (d TensorDesc) AlignedByteSize() uint64 {
	size := d.ByteSize()
	return uint64(util.RoundUp(int(size), BufferAlignment))
}
