package graph

import (
	"github.com/lumenforge/denoise/internal/errs"
	"github.com/lumenforge/denoise/internal/tensor"
)

// lazyInitKind tags which variant of lazyInit a value holds. Modeling
// the builder's deferred bindings as a tagged-variant slice (rather
// than captured closures) keeps Graph free of function values and
// makes the init sequence inspectable by tests.
type lazyInitKind int

const (
	bindSrc lazyInitKind = iota
	bindSrc2
	bindDst
	repackWeight  // repacks into a const tensor, then calls Op.SetWeight
	repackWeight1 // repacks into a const tensor, then calls ConcatConv.SetWeight1
	repackWeight2 // repacks into a const tensor, then calls ConcatConv.SetWeight2
	repackBias    // repacks into a const tensor, then calls Op.SetBias
)

// lazyInit is one deferred binding, applied by the finalizer once the
// scratch and const buffers exist and every allocation has a
// materialized tensor. Only the fields relevant to Kind are populated.
type lazyInit struct {
	Kind lazyInitKind
	Op   Op

	// bindSrc / bindSrc2 / bindDst: the arena index to read the
	// materialized (scratch) tensor from.
	AllocIdx int

	// repackWeight* / repackBias: the raw source slice and the const
	// allocation index to repack into.
	SrcTensor tensor.Tensor
	SrcBeginI int
	SrcI      int
	ConstIdx  int
	DstBeginI int
	ZeroPad   bool
}

// applyLazyInits runs every recorded lazy initializer in insertion
// order, binding sources/destinations and repacking weights/biases into
// the freshly materialized constant tensors.
func applyLazyInits(inits []lazyInit, allocs *arena, consts []constAlloc) error {
	for _, li := range inits {
		switch li.Kind {
		case bindSrc:
			li.Op.SetSrc(allocs.get(li.AllocIdx).Tensor)
		case bindSrc2:
			if cc, ok := li.Op.(*ConcatConv); ok {
				cc.src2 = allocs.get(li.AllocIdx).Tensor
			}
		case bindDst:
			li.Op.SetDst(allocs.get(li.AllocIdx).Tensor)
		case repackWeight:
			dst := consts[li.ConstIdx].Tensor
			if err := RepackWeight(li.SrcTensor, li.SrcBeginI, li.SrcI, dst, li.DstBeginI, li.ZeroPad); err != nil {
				return errs.Wrap(errs.InvalidArgument, err, "repacking weight for op %q", li.Op.Name())
			}
			li.Op.SetWeight(dst)
		case repackWeight1, repackWeight2:
			dst := consts[li.ConstIdx].Tensor
			if err := RepackWeight(li.SrcTensor, li.SrcBeginI, li.SrcI, dst, li.DstBeginI, li.ZeroPad); err != nil {
				return errs.Wrap(errs.InvalidArgument, err, "repacking weight for op %q", li.Op.Name())
			}
			cc, ok := li.Op.(*ConcatConv)
			if !ok {
				return errs.New(errs.LogicError, "repackWeight1/2 target is not a ConcatConv")
			}
			if li.Kind == repackWeight1 {
				cc.SetWeight1(dst)
			} else {
				cc.SetWeight2(dst)
			}
		case repackBias:
			dst := consts[li.ConstIdx].Tensor
			if err := RepackBias(li.SrcTensor, dst); err != nil {
				return errs.Wrap(errs.InvalidArgument, err, "repacking bias for op %q", li.Op.Name())
			}
			li.Op.SetBias(dst)
		}
	}
	return nil
}
