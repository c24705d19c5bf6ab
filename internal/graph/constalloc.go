package graph

import "github.com/lumenforge/denoise/internal/tensor"

// constAlloc is a weight/bias allocation: unlike a TensorAlloc it has
// no time-bounded lifetime (it is read by every tile execution for the
// life of the graph), so it is simply appended to a dedicated const
// region with no best-fit planning.
type constAlloc struct {
	Desc   tensor.TensorDesc
	Offset uint64
	Tensor tensor.Tensor
}

// newConstAlloc appends a fresh constant allocation and returns its
// index, growing constByteSize by the descriptor's aligned size.
func (g *Graph) newConstAlloc(desc tensor.TensorDesc) int {
	g.consts = append(g.consts, constAlloc{Desc: desc, Offset: g.constByteSize})
	g.constByteSize += desc.AlignedByteSize()
	return len(g.consts) - 1
}
