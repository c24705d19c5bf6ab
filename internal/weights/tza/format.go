// Package tza implements a simplified, genuinely-parsed binary weight
// container for convolution weight/bias tensors: a magic header
// followed by repeated tagged records, each naming a tensor and giving
// its rank, dimensions, data type and raw element bytes. Layout is not
// stored: rank-4 records are read as oihw weights, rank-1 as x biases.
//
// This is not a port of any industry weight-blob format; it exists so
// the graph builder has a real file to load from instead of only an
// in-memory fake weights.Blob.
package tza

import "fmt"

// MagicBytes identifies a tza weight container.
const MagicBytes = "TZA1"

// FormatVersion is the only version this package writes or reads.
const FormatVersion uint32 = 1

// recordRank enumerates the tensor ranks a record may carry.
type recordRank uint8

const (
	rankBias   recordRank = 1 // [X]
	rankWeight recordRank = 4 // [O, I, H, W]
)

// recordDType mirrors tensor.DataType for the on-disk encoding, kept
// independent of the in-memory enum so the wire format doesn't shift if
// tensor.DataType ever grows new members.
type recordDType uint8

const (
	dtypeFloat recordDType = 0
	dtypeHalf  recordDType = 1
)

func (d recordDType) elemSize() int {
	switch d {
	case dtypeFloat:
		return 4
	case dtypeHalf:
		return 2
	default:
		panic(fmt.Sprintf("tza: unknown record dtype %d", int(d)))
	}
}
