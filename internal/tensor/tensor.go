package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tensor is a view into a region of a caller-owned backing buffer: a
// TensorDesc plus a byte offset. Tensors never own storage; storage is
// owned by whatever allocated the buffer (the reference engine's
// scratch buffer, or a weight blob's constant region).
type Tensor struct {
	Desc   TensorDesc
	Buffer []byte
	Offset uint64
}

// View constructs a Tensor over buf at the given byte offset. It panics
// if the descriptor's aligned size does not fit inside buf.
func View(desc TensorDesc, buf []byte, offset uint64) Tensor {
	if offset+desc.AlignedByteSize() > uint64(len(buf)) {
		panic(fmt.Sprintf("tensor: view [%d, %d) out of bounds for buffer of length %d",
			offset, offset+desc.AlignedByteSize(), len(buf)))
	}
	return Tensor{Desc: desc, Buffer: buf, Offset: offset}
}

// Bytes returns the tensor's backing region.
func (t Tensor) Bytes() []byte {
	return t.Buffer[t.Offset : t.Offset+t.Desc.ByteSize()]
}

func (t Tensor) elemOffset(elemIdx uint64) uint64 {
	return t.Offset + elemIdx*uint64(t.Desc.DataType.Size())
}

func (t Tensor) readFloat(elemIdx uint64) float32 {
	off := t.elemOffset(elemIdx)
	switch t.Desc.DataType {
	case Float:
		return math.Float32frombits(binary.LittleEndian.Uint32(t.Buffer[off:]))
	case Half:
		return HalfToFloat(binary.LittleEndian.Uint16(t.Buffer[off:]))
	default:
		panic("tensor: unknown data type")
	}
}

func (t Tensor) writeFloat(elemIdx uint64, v float32) {
	off := t.elemOffset(elemIdx)
	switch t.Desc.DataType {
	case Float:
		binary.LittleEndian.PutUint32(t.Buffer[off:], math.Float32bits(v))
	case Half:
		binary.LittleEndian.PutUint16(t.Buffer[off:], FloatToHalf(v))
	default:
		panic("tensor: unknown data type")
	}
}

// weightElemIndex computes the flat (padded) element index of logical
// coordinate (o, i, h, w) under the given weight layout.
func weightElemIndex(layout Layout, o, i, h, w, paddedI, H, W int) uint64 {
	switch layout {
	case OIHW:
		return idx4(o, i, h, w, paddedI, H, W)
	case OHWI:
		return idx4(o, h, w, i, H, W, paddedI)
	case OIhw8i8o:
		return blockedOI(o, i, h, w, paddedI, H, W, 8, 8)
	case OIhw16i16o:
		return blockedOI(o, i, h, w, paddedI, H, W, 16, 16)
	case OIhw2o8i8o2i:
		// Nesting (outer->inner) after (Oouter, Iouter, h, w): o2(2), i8(8), o8(8), i2(2).
		oOuter, o2, o8 := o/16, (o/8)%2, o%8
		iOuter, i8, i2 := i/16, (i/2)%8, i%2
		outer := idx4(oOuter, iOuter, h, w, paddedI/16, H, W)
		inner := uint64(((o2*8+i8)*8+o8)*2 + i2)
		return outer*256 + inner
	case OIhw8i16o2i:
		// Nesting (outer->inner) after (Oouter, Iouter, h, w): i8(8), o16(16), i2(2).
		oOuter, o16 := o/16, o%16
		iOuter, i8, i2 := i/16, (i/2)%8, i%2
		outer := idx4(oOuter, iOuter, h, w, paddedI/16, H, W)
		inner := uint64((i8*16+o16)*2 + i2)
		return outer*256 + inner
	default:
		panic(fmt.Sprintf("tensor: unsupported weight layout %s", layout))
	}
}

// idx4 computes the flat row-major index of (a, b, c, d) given the
// trailing three dimension extents.
func idx4(a, b, c, d, bDim, cDim, dDim int) uint64 {
	return uint64((((a*bDim)+b)*cDim+c)*dDim + d)
}

// blockedOI handles the blocked weight layouts with a single block each
// for O and I (OIhw8i8o, OIhw16i16o): outer dims (O/blockO, I/blockI, H,
// W) followed by the inner (blockI, blockO) pair.
func blockedOI(o, i, h, w, paddedI, H, W, blockO, blockI int) uint64 {
	ob, oi := o/blockO, o%blockO
	ib, ii := i/blockI, i%blockI
	outer := idx4(ob, ib, h, w, paddedI/blockI, H, W)
	return outer*uint64(blockO*blockI) + uint64(ii*blockO+oi)
}

// GetWeight reads the logical element at (o, i, h, w) from a rank-4
// weight tensor, converting from the tensor's element type to float32.
func (t Tensor) GetWeight(o, i, h, w int) float32 {
	idx := weightElemIndex(t.Desc.Layout, o, i, h, w, t.Desc.PaddedI(), t.Desc.H(), t.Desc.W())
	return t.readFloat(idx)
}

// SetWeight writes v to the logical element at (o, i, h, w) of a rank-4
// weight tensor, converting to the tensor's element type.
func (t Tensor) SetWeight(o, i, h, w int, v float32) {
	idx := weightElemIndex(t.Desc.Layout, o, i, h, w, t.Desc.PaddedI(), t.Desc.H(), t.Desc.W())
	t.writeFloat(idx, v)
}

// GetBias reads the logical element at index x from a rank-1 bias tensor.
func (t Tensor) GetBias(x int) float32 {
	return t.readFloat(uint64(x))
}

// SetBias writes v to the logical element at index x of a rank-1 bias
// tensor.
func (t Tensor) SetBias(x int, v float32) {
	t.writeFloat(uint64(x), v)
}

// activationElemIndex computes the flat (padded) element index of
// logical coordinate (c, h, w) under the given activation layout.
func activationElemIndex(layout Layout, c, h, w, paddedC, H, W int) uint64 {
	switch layout {
	case CHW:
		return uint64((c*H+h)*W + w)
	case HWC:
		return uint64((h*W+w)*paddedC + c)
	case Chw16c:
		cb, ci := c/16, c%16
		return uint64(((cb*H+h)*W+w)*16 + ci)
	default:
		panic(fmt.Sprintf("tensor: unsupported activation layout %s", layout))
	}
}

// GetActivation reads the logical element at (c, h, w) from a rank-3
// CHW/HWC/Chw16c activation tensor.
func (t Tensor) GetActivation(c, h, w int) float32 {
	return t.readFloat(activationElemIndex(t.Desc.Layout, c, h, w, t.Desc.PaddedC(), t.Desc.H(), t.Desc.W()))
}

// SetActivation writes v to the logical element at (c, h, w) of a rank-3
// CHW/HWC/Chw16c activation tensor.
func (t Tensor) SetActivation(c, h, w int, v float32) {
	idx := activationElemIndex(t.Desc.Layout, c, h, w, t.Desc.PaddedC(), t.Desc.H(), t.Desc.W())
	t.writeFloat(idx, v)
}
