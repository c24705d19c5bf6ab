// Package graph implements the execution-graph builder, memory
// planner and finalizer/runner: the operator DAG, tensor-descriptor
// derivation, weight/bias repacking, and the offset-assignment
// algorithm that lays out every transient tensor inside a single
// scratch buffer.
package graph

import (
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/internal/errs"
	"github.com/lumenforge/denoise/internal/tensor"
	"github.com/lumenforge/denoise/internal/util"
	"github.com/lumenforge/denoise/weights"
)

// State is one of the graph's four lifecycle states. Transitions are
// one-way until Clear resets to Building.
type State int

const (
	Building State = iota
	Planned
	Finalized
	Cleared
)

// Graph is the execution-graph builder, planner, finalizer and runner
// for one instance's worth of ops (one per compute engine).
type Graph struct {
	eng     engine.Engine
	weights weights.Blob

	state State
	ops   []Op

	allocs   arena
	dstAlloc map[Op]int // op -> index of its destination TensorAlloc

	consts        []constAlloc
	constByteSize uint64

	lazyInits []lazyInit

	dirty         bool
	highWaterMark uint64
	maxOpScratch  uint64

	scratch engine.Buffer
}

// New constructs an empty Graph reading weights from blob and bound to
// eng's preferred layouts and capabilities.
func New(eng engine.Engine, blob weights.Blob) *Graph {
	return &Graph{eng: eng, weights: blob, dstAlloc: map[Op]int{}}
}

// State reports the graph's current lifecycle state.
func (g *Graph) State() State { return g.state }

// Ops returns the op sequence in insertion order.
func (g *Graph) Ops() []Op { return g.ops }

func (g *Graph) requireBuilding(what string) error {
	if g.state != Building && g.state != Planned {
		return errs.New(errs.LogicError, "%s: graph is not building (state=%d)", what, g.state)
	}
	return nil
}

func (g *Graph) appendOp(op Op) {
	g.ops = append(g.ops, op)
	g.dirty = true
	g.state = Building
}

// extendSource looks up srcOp's destination allocation, extends its
// lifetime to cover the new op, and returns its index.
func (g *Graph) extendSource(srcOp Op, opID int) (int, error) {
	idx, ok := g.dstAlloc[srcOp]
	if !ok {
		return 0, errs.New(errs.LogicError, "source op %q has no destination allocation", srcOp.Name())
	}
	a := g.allocs.get(idx)
	if opID > a.LastOpID {
		a.LastOpID = opID
	}
	return idx, nil
}

// AddInputProcess creates a source-less op whose destination TensorDesc
// is derived from the logical input channel count (c) and spatial
// dimensions (h, w) using the engine's preferred activation layout.
func (g *Graph) AddInputProcess(name string, c, h, w int, alignment int, transfer engine.TransferFunc, hdr, snorm bool) (*InputProcess, error) {
	if err := g.requireBuilding("addInputProcess"); err != nil {
		return nil, err
	}
	paddedC := util.RoundUp(c, g.eng.BlockC())
	dstDesc := tensor.NewActivationDesc(c, h, w, paddedC, g.eng.PreferredActivationLayout(), g.eng.DataType())

	op := newInputProcess(name, dstDesc, transfer, hdr, snorm)
	opID := len(g.ops)
	g.appendOp(op)
	g.dstAlloc[op] = g.allocs.newAlloc(dstDesc, opID)
	g.lazyInits = append(g.lazyInits, lazyInit{Kind: bindDst, Op: op, AllocIdx: g.dstAlloc[op]})
	return op, nil
}

// AddOutputProcess creates the terminal op consuming srcOp's output; it
// has no destination TensorAlloc.
func (g *Graph) AddOutputProcess(name string, srcOp Op, transfer engine.TransferFunc, hdr, snorm bool) (*OutputProcess, error) {
	if err := g.requireBuilding("addOutputProcess"); err != nil {
		return nil, err
	}
	op := newOutputProcess(name, transfer, hdr, snorm)
	opID := len(g.ops)
	g.appendOp(op)
	srcIdx, err := g.extendSource(srcOp, opID)
	if err != nil {
		return nil, err
	}
	g.lazyInits = append(g.lazyInits, lazyInit{Kind: bindSrc, Op: op, AllocIdx: srcIdx})
	return op, nil
}

// convDstSpatial returns the destination spatial size after applying
// post to a source of size (h, w).
func convDstSpatial(h, w int, post engine.PostOp) (int, int) {
	switch post {
	case engine.PostPool:
		return util.CeilDiv(h, 2), util.CeilDiv(w, 2)
	case engine.PostUpsample:
		return h * 2, w * 2
	default:
		return h, w
	}
}

// AddConv reads weight/bias for name from the weight map and adds a
// convolution producing outC output channels, with the given
// activation and optionally fused post-op. If the engine cannot fuse
// post, the unfused two-op sequence ("name", "name_pool"/"name_upsample")
// is synthesized instead and the second op is returned.
func (g *Graph) AddConv(name string, srcOp Op, outC int, act engine.Activation, post engine.PostOp) (Op, error) {
	if err := g.requireBuilding("addConv"); err != nil {
		return nil, err
	}
	if post != engine.PostNone && !g.eng.IsConvSupported(post) {
		convOp, err := g.AddConv(name, srcOp, outC, act, engine.PostNone)
		if err != nil {
			return nil, err
		}
		switch post {
		case engine.PostPool:
			return g.AddPool(name+"_pool", convOp)
		case engine.PostUpsample:
			return g.AddUpsample(name+"_upsample", convOp)
		}
	}

	srcDesc, ok := srcOp.DstDesc()
	if !ok {
		return nil, errs.New(errs.InvalidOperation, "addConv %q: source op %q has no destination", name, srcOp.Name())
	}
	rawWeight, err := g.lookupWeight(name+".weight", 4)
	if err != nil {
		return nil, err
	}
	rawBias, err := g.lookupWeight(name+".bias", 1)
	if err != nil {
		return nil, err
	}

	paddedO := util.RoundUp(outC, g.eng.BlockC())
	paddedI := srcDesc.PaddedC()
	dstH, dstW := convDstSpatial(srcDesc.H(), srcDesc.W(), post)

	weightDesc := tensor.NewWeightDesc(outC, srcDesc.C(), rawWeight.Desc.H(), rawWeight.Desc.W(), paddedO, paddedI, g.eng.PreferredWeightLayout(), g.eng.DataType())
	biasDesc := tensor.NewBiasDesc(outC, paddedO, g.eng.DataType())
	dstDesc := tensor.NewActivationDesc(outC, dstH, dstW, paddedO, g.eng.PreferredActivationLayout(), g.eng.DataType())

	op := newConv(name, dstDesc, act, post)
	opID := len(g.ops)
	g.appendOp(op)

	srcIdx, err := g.extendSource(srcOp, opID)
	if err != nil {
		return nil, err
	}
	g.dstAlloc[op] = g.allocs.newAlloc(dstDesc, opID)

	weightIdx := g.newConstAlloc(weightDesc)
	biasIdx := g.newConstAlloc(biasDesc)

	g.lazyInits = append(g.lazyInits,
		lazyInit{Kind: bindSrc, Op: op, AllocIdx: srcIdx},
		lazyInit{Kind: bindDst, Op: op, AllocIdx: g.dstAlloc[op]},
		lazyInit{Kind: repackWeight, Op: op, SrcTensor: rawWeight, SrcBeginI: 0, SrcI: srcDesc.C(), ConstIdx: weightIdx, DstBeginI: 0, ZeroPad: true},
		lazyInit{Kind: repackBias, Op: op, SrcTensor: rawBias, ConstIdx: biasIdx},
	)
	return op, nil
}

// AddConcatConv reads weight/bias for name and adds a convolution over
// the channel-concatenation of src1 and src2's outputs. For the hwc
// activation layout the two halves use independent weight sub-tensors;
// for the CHW family, src1 and src2 are chained adjacent in scratch and
// share one combined weight tensor.
func (g *Graph) AddConcatConv(name string, src1Op, src2Op Op, outC int, act engine.Activation) (*ConcatConv, error) {
	if err := g.requireBuilding("addConcatConv"); err != nil {
		return nil, err
	}
	src1Desc, ok := src1Op.DstDesc()
	if !ok {
		return nil, errs.New(errs.InvalidOperation, "addConcatConv %q: src1 has no destination", name)
	}
	src2Desc, ok := src2Op.DstDesc()
	if !ok {
		return nil, errs.New(errs.InvalidOperation, "addConcatConv %q: src2 has no destination", name)
	}
	rawWeight, err := g.lookupWeight(name+".weight", 4)
	if err != nil {
		return nil, err
	}
	rawBias, err := g.lookupWeight(name+".bias", 1)
	if err != nil {
		return nil, err
	}

	split := g.eng.PreferredActivationLayout() == tensor.HWC
	paddedO := util.RoundUp(outC, g.eng.BlockC())
	paddedI := src1Desc.PaddedC() + src2Desc.PaddedC()
	dstDesc := tensor.NewActivationDesc(outC, src1Desc.H(), src1Desc.W(), paddedO, g.eng.PreferredActivationLayout(), g.eng.DataType())

	op := newConcatConv(name, dstDesc, act, split)
	opID := len(g.ops)
	g.appendOp(op)

	src1Idx, err := g.extendSource(src1Op, opID)
	if err != nil {
		return nil, err
	}
	src2Idx, err := g.extendSource(src2Op, opID)
	if err != nil {
		return nil, err
	}
	g.dstAlloc[op] = g.allocs.newAlloc(dstDesc, opID)

	g.lazyInits = append(g.lazyInits,
		lazyInit{Kind: bindSrc, Op: op, AllocIdx: src1Idx},
		lazyInit{Kind: bindSrc2, Op: op, AllocIdx: src2Idx},
		lazyInit{Kind: bindDst, Op: op, AllocIdx: g.dstAlloc[op]},
		lazyInit{Kind: repackBias, Op: op, SrcTensor: rawBias, ConstIdx: g.newConstAlloc(tensor.NewBiasDesc(outC, paddedO, g.eng.DataType()))},
	)

	if split {
		w1Desc := tensor.NewWeightDesc(outC, src1Desc.C(), rawWeight.Desc.H(), rawWeight.Desc.W(), paddedO, src1Desc.PaddedC(), g.eng.PreferredWeightLayout(), g.eng.DataType())
		w2Desc := tensor.NewWeightDesc(outC, src2Desc.C(), rawWeight.Desc.H(), rawWeight.Desc.W(), paddedO, src2Desc.PaddedC(), g.eng.PreferredWeightLayout(), g.eng.DataType())
		g.lazyInits = append(g.lazyInits,
			lazyInit{Kind: repackWeight1, Op: op, SrcTensor: rawWeight, SrcBeginI: 0, SrcI: src1Desc.C(), ConstIdx: g.newConstAlloc(w1Desc), DstBeginI: 0, ZeroPad: true},
			lazyInit{Kind: repackWeight2, Op: op, SrcTensor: rawWeight, SrcBeginI: src1Desc.C(), SrcI: src2Desc.C(), ConstIdx: g.newConstAlloc(w2Desc), DstBeginI: 0, ZeroPad: true},
		)
	} else {
		if !g.allocs.chainable(src1Idx, src2Idx) {
			return nil, errs.New(errs.LogicError, "addConcatConv %q: src1/src2 cannot be chained", name)
		}
		g.allocs.link(src1Idx, src2Idx)
		wDesc := tensor.NewWeightDesc(outC, src1Desc.C()+src2Desc.C(), rawWeight.Desc.H(), rawWeight.Desc.W(), paddedO, paddedI, g.eng.PreferredWeightLayout(), g.eng.DataType())
		wIdx := g.newConstAlloc(wDesc)
		g.lazyInits = append(g.lazyInits,
			// The two channel slices repack into the same destination
			// tensor at different offsets: the first zeroes everything
			// outside its own slice, the second leaves the rest alone so
			// the first slice's writes survive.
			lazyInit{Kind: repackWeight, Op: op, SrcTensor: rawWeight, SrcBeginI: 0, SrcI: src1Desc.C(), ConstIdx: wIdx, DstBeginI: 0, ZeroPad: true},
			lazyInit{Kind: repackWeight, Op: op, SrcTensor: rawWeight, SrcBeginI: src1Desc.C(), SrcI: src2Desc.C(), ConstIdx: wIdx, DstBeginI: src1Desc.PaddedC(), ZeroPad: false},
		)
	}
	return op, nil
}

// AddPool adds a standalone pooling op.
func (g *Graph) AddPool(name string, srcOp Op) (*Pool, error) {
	if err := g.requireBuilding("addPool"); err != nil {
		return nil, err
	}
	srcDesc, ok := srcOp.DstDesc()
	if !ok {
		return nil, errs.New(errs.InvalidOperation, "addPool %q: source has no destination", name)
	}
	dstH, dstW := convDstSpatial(srcDesc.H(), srcDesc.W(), engine.PostPool)
	dstDesc := tensor.NewActivationDesc(srcDesc.C(), dstH, dstW, srcDesc.PaddedC(), srcDesc.Layout, srcDesc.DataType)

	op := newPool(name, dstDesc)
	opID := len(g.ops)
	g.appendOp(op)
	srcIdx, err := g.extendSource(srcOp, opID)
	if err != nil {
		return nil, err
	}
	g.dstAlloc[op] = g.allocs.newAlloc(dstDesc, opID)
	g.lazyInits = append(g.lazyInits,
		lazyInit{Kind: bindSrc, Op: op, AllocIdx: srcIdx},
		lazyInit{Kind: bindDst, Op: op, AllocIdx: g.dstAlloc[op]},
	)
	return op, nil
}

// AddUpsample adds a standalone upsampling op.
func (g *Graph) AddUpsample(name string, srcOp Op) (*Upsample, error) {
	if err := g.requireBuilding("addUpsample"); err != nil {
		return nil, err
	}
	srcDesc, ok := srcOp.DstDesc()
	if !ok {
		return nil, errs.New(errs.InvalidOperation, "addUpsample %q: source has no destination", name)
	}
	dstH, dstW := convDstSpatial(srcDesc.H(), srcDesc.W(), engine.PostUpsample)
	dstDesc := tensor.NewActivationDesc(srcDesc.C(), dstH, dstW, srcDesc.PaddedC(), srcDesc.Layout, srcDesc.DataType)

	op := newUpsample(name, dstDesc)
	opID := len(g.ops)
	g.appendOp(op)
	srcIdx, err := g.extendSource(srcOp, opID)
	if err != nil {
		return nil, err
	}
	g.dstAlloc[op] = g.allocs.newAlloc(dstDesc, opID)
	g.lazyInits = append(g.lazyInits,
		lazyInit{Kind: bindSrc, Op: op, AllocIdx: srcIdx},
		lazyInit{Kind: bindDst, Op: op, AllocIdx: g.dstAlloc[op]},
	)
	return op, nil
}

func (g *Graph) lookupWeight(name string, wantRank int) (tensor.Tensor, error) {
	t, ok := g.weights.Get(name)
	if !ok {
		return tensor.Tensor{}, errs.New(errs.InvalidArgument, "missing weight %q", name)
	}
	if t.Desc.Rank() != wantRank {
		return tensor.Tensor{}, errs.New(errs.InvalidArgument, "weight %q has rank %d, want %d", name, t.Desc.Rank(), wantRank)
	}
	return t, nil
}

// plan runs the memory planner if the graph is dirty, storing the
// resulting high-water mark and the max per-op scratch requirement.
func (g *Graph) plan() {
	if !g.dirty {
		return
	}
	g.highWaterMark = planAllocations(&g.allocs)
	var maxOpScratch uint64
	for _, op := range g.ops {
		if s := op.ScratchByteSize(); s > maxOpScratch {
			maxOpScratch = s
		}
	}
	g.maxOpScratch = maxOpScratch
	g.dirty = false
	g.state = Planned
}

// GetScratchAlignedSize re-plans if dirty and returns the total scratch
// byte size required: the transient high-water mark plus the maximum
// per-op scratch over all ops (op scratch sits at the base of the
// buffer, tensors above it).
func (g *Graph) GetScratchAlignedSize() uint64 {
	g.plan()
	return g.highWaterMark + g.maxOpScratch
}

// ConstByteSize returns the total byte size of every weight/bias
// allocation in this graph.
func (g *Graph) ConstByteSize() uint64 { return g.constByteSize }

// SetScratch registers the backing scratch buffer. It must be at least
// GetScratchAlignedSize() bytes.
func (g *Graph) SetScratch(buf engine.Buffer) error {
	if buf.Len() < g.GetScratchAlignedSize() {
		return errs.New(errs.InvalidArgument, "scratch buffer too small: have %d, need %d", buf.Len(), g.GetScratchAlignedSize())
	}
	g.scratch = buf
	return nil
}

// Finalize materializes every tensor on the scratch/const buffers, runs
// every lazy initializer, binds each op's scratch region, and calls its
// finalize hook. After this, the builder-only state (allocations, lazy
// inits, weight map) is released.
func (g *Graph) Finalize() error {
	if g.state == Finalized {
		return nil
	}
	g.plan()
	if g.scratch == nil {
		return errs.New(errs.InvalidOperation, "finalize: no scratch buffer set")
	}

	scratchBytes := g.scratch.Bytes()
	for i := range g.allocs.allocs {
		a := &g.allocs.allocs[i]
		a.Tensor = tensor.View(a.Desc, scratchBytes, g.maxOpScratch+a.ByteOffset)
	}

	constBytes := make([]byte, g.constByteSize)
	for i := range g.consts {
		c := &g.consts[i]
		c.Tensor = tensor.View(c.Desc, constBytes, c.Offset)
	}

	if err := applyLazyInits(g.lazyInits, &g.allocs, g.consts); err != nil {
		return err
	}

	for opID, op := range g.ops {
		if !op.IsSupported(g.eng) {
			return errs.New(errs.InvalidOperation, "op %q (id %d) is not supported by the engine", op.Name(), opID)
		}
		op.SetScratch(scratchBytes[:g.maxOpScratch])
		if err := op.Finalize(); err != nil {
			return errs.Wrap(errs.LogicError, err, "finalizing op %q", op.Name())
		}
	}

	g.allocs.reset()
	g.dstAlloc = nil
	g.lazyInits = nil
	g.weights = nil
	g.state = Finalized
	return nil
}

// WorkAmount returns the number of ops this graph submits per run, used
// by the orchestrator's progress accounting.
func (g *Graph) WorkAmount() int { return len(g.ops) }

// Run submits every op in insertion order, reporting one unit of work
// to progress after each submission.
func (g *Graph) Run(progress func()) error {
	for _, op := range g.ops {
		if err := op.Submit(g.eng); err != nil {
			return errs.Wrap(errs.InvalidOperation, err, "submitting op %q", op.Name())
		}
		if progress != nil {
			progress()
		}
	}
	return nil
}

// Clear drops all ops, allocations and scratch/const state and returns
// the graph to Building.
func (g *Graph) Clear() {
	g.ops = nil
	g.allocs.reset()
	g.dstAlloc = map[Op]int{}
	g.consts = nil
	g.constByteSize = 0
	g.lazyInits = nil
	g.dirty = false
	g.highWaterMark = 0
	g.maxOpScratch = 0
	g.scratch = nil
	g.state = Building
}
