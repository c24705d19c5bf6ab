package filter

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lumenforge/denoise/device"
	"github.com/lumenforge/denoise/engine"
	"github.com/lumenforge/denoise/imagebuf"
	"github.com/lumenforge/denoise/internal/errs"
	"github.com/lumenforge/denoise/internal/graph"
	"github.com/lumenforge/denoise/weights"
)

// SyncMode controls whether Execute waits for the backend to drain
// before returning.
type SyncMode int

const (
	Async SyncMode = iota
	Sync
)

// instance is one {graph, inputProcess, outputProcess} triple bound to
// a single compute engine.
type instance struct {
	graph         *graph.Graph
	inputProcess  *graph.InputProcess
	outputProcess *graph.OutputProcess
}

// Orchestrator is the filter state machine: commit, init, buildModel,
// execute. It owns one Instance per engine plus the shared transfer
// function, optional autoexposure/image-copy/outputTemp state, and the
// per-commit dirty flags.
type Orchestrator struct {
	eng        engine.Engine
	numEngines int
	alignment  int
	overlap    int
	maxMemory  uint64
	log        device.Log

	// Settable parameters (§6.2).
	weightsOverride weights.Blob
	hasColor        bool
	color           imagebuf.Image
	hasAlbedo       bool
	albedo          imagebuf.Image
	hasNormal       bool
	normal          imagebuf.Image
	hasOutput       bool
	output          imagebuf.Image
	inputScale      float32
	hdr             bool
	srgb            bool
	directional     bool
	cleanAux        bool

	// Commit-cycle flags.
	inplace    bool
	dirty      bool
	dirtyParam bool

	// Init/build state.
	instances     []instance
	transferFunc  engine.TransferFunc
	autoexposure  *graph.Autoexposure
	imageCopy     *graph.ImageCopy
	outputTemp    imagebuf.Image
	hasOutputTemp bool
	tiles         TileGrid
	snorm         bool
}

// New constructs an Orchestrator driving numEngines instances of eng.
func New(eng engine.Engine, numEngines, alignment, overlap int, maxMemoryByteSize uint64, log device.Log) *Orchestrator {
	if log == nil {
		log = device.NewStdLog()
	}
	return &Orchestrator{
		eng: eng, numEngines: numEngines, alignment: alignment, overlap: overlap,
		maxMemory: maxMemoryByteSize, log: log,
		inputScale: float32(math.NaN()),
		dirty:      true, dirtyParam: true,
	}
}

func (o *Orchestrator) markDirty() {
	o.dirty = true
	o.dirtyParam = true
}

// SetColor, SetAlbedo, SetNormal and SetOutput bind an Image param.
// Passing present=false clears the binding.
func (o *Orchestrator) SetColor(img imagebuf.Image, present bool) {
	o.color, o.hasColor = img, present
	o.markDirty()
}

func (o *Orchestrator) SetAlbedo(img imagebuf.Image, present bool) {
	o.albedo, o.hasAlbedo = img, present
	o.markDirty()
}

func (o *Orchestrator) SetNormal(img imagebuf.Image, present bool) {
	o.normal, o.hasNormal = img, present
	o.markDirty()
}

func (o *Orchestrator) SetOutput(img imagebuf.Image, present bool) {
	o.output, o.hasOutput = img, present
	o.markDirty()
}

// SetWeights installs a user-supplied weight blob, overriding the
// built-in selection.
func (o *Orchestrator) SetWeights(blob weights.Blob) {
	o.weightsOverride = blob
	o.markDirty()
}

// SetInputScale sets the exposure scale. NaN means "compute
// automatically via autoexposure when HDR, else 1".
func (o *Orchestrator) SetInputScale(v float32) {
	o.inputScale = v
	o.markDirty()
}

func (o *Orchestrator) SetHDR(v bool) {
	o.hdr = v
	o.markDirty()
}

func (o *Orchestrator) SetSRGB(v bool) {
	o.srgb = v
	o.markDirty()
}

func (o *Orchestrator) SetDirectional(v bool) {
	o.directional = v
	o.markDirty()
}

func (o *Orchestrator) SetCleanAux(v bool) {
	o.cleanAux = v
	o.markDirty()
}

// Commit recomputes in-place detection and, if any parameter changed
// since the last commit, rebuilds the execution graphs.
func (o *Orchestrator) Commit() error {
	newInplace := o.hasOutput && ((o.hasColor && o.output.Overlaps(o.color)) ||
		(o.hasAlbedo && o.output.Overlaps(o.albedo)) ||
		(o.hasNormal && o.output.Overlaps(o.normal)))
	if newInplace != o.inplace {
		o.inplace = newInplace
		o.dirtyParam = true
	}

	if o.dirtyParam {
		if err := o.init(); err != nil {
			return err
		}
		o.dirtyParam = false
	}
	o.dirty = false
	return nil
}

func (o *Orchestrator) cleanup() {
	o.instances = nil
	o.transferFunc = nil
	o.autoexposure = nil
	o.imageCopy = nil
	o.outputTemp = imagebuf.Image{}
	o.hasOutputTemp = false
}

func (o *Orchestrator) validate() error {
	if !o.hasOutput {
		return errs.New(errs.InvalidOperation, "commit: no output image set")
	}
	if !o.hasColor && !o.hasAlbedo && !o.hasNormal {
		return errs.New(errs.InvalidOperation, "commit: at least one of color/albedo/normal must be set")
	}
	if o.directional && (o.hdr || o.srgb) {
		return errs.New(errs.InvalidArgument, "commit: directional is mutually exclusive with hdr/srgb")
	}
	if o.hdr && o.srgb {
		return errs.New(errs.InvalidArgument, "commit: hdr and srgb are mutually exclusive")
	}

	format := o.output.Format
	w, h := o.output.Width, o.output.Height
	for _, img := range []struct {
		name    string
		present bool
		img     imagebuf.Image
	}{
		{"color", o.hasColor, o.color},
		{"albedo", o.hasAlbedo, o.albedo},
		{"normal", o.hasNormal, o.normal},
	} {
		if !img.present {
			continue
		}
		if img.img.Width != w || img.img.Height != h {
			return errs.New(errs.InvalidOperation, "commit: %s dimensions (%dx%d) do not match output (%dx%d)",
				img.name, img.img.Width, img.img.Height, w, h)
		}
		if img.img.Format != format {
			return errs.New(errs.InvalidOperation, "commit: %s format %v does not match output format %v mixing Float3/Half3 is not allowed",
				img.name, img.img.Format, format)
		}
	}
	return nil
}

func (o *Orchestrator) resetModel() {
	for _, inst := range o.instances {
		inst.graph.Clear()
	}
}

func (o *Orchestrator) init() error {
	o.cleanup()
	if err := o.validate(); err != nil {
		return err
	}

	blobName, err := SelectBlob(o.hasColor, o.hasAlbedo, o.hasNormal, o.hdr, o.directional, o.cleanAux)
	if err != nil {
		return err
	}
	blob := o.weightsOverride
	if blob == nil {
		return errs.New(errs.InvalidOperation,
			"commit: no weights supplied; built-in blob %q must be loaded and set via SetWeights", blobName)
	}

	o.instances = make([]instance, o.numEngines)
	for i := range o.instances {
		o.instances[i].graph = graph.New(o.eng, blob)
	}

	scale := o.inputScale
	if math.IsNaN(float64(scale)) {
		scale = 1
	}
	o.transferFunc = newTransferFunc(o.srgb, scale)

	h, w := o.output.Height, o.output.Width
	grid, err := PlanTiles(h, w, o.overlap, o.alignment, o.maxMemory, o.numEngines, o.buildModel)
	if err != nil {
		return err
	}
	o.tiles = grid
	return nil
}

// buildModel tries to build every instance's execution graph at the
// given tile size, bind scratch sized to fit budget, and finalize. It
// reports whether the attempt fit.
func (o *Orchestrator) buildModel(budget uint64, tileH, tileW int) bool {
	inputC := 0
	if o.hasColor {
		inputC += 3
	}
	if o.hasAlbedo {
		inputC += 3
	}
	if o.hasNormal {
		inputC += 3
	}
	o.snorm = o.directional || (!o.hasColor && o.hasNormal)

	for i := range o.instances {
		inst := &o.instances[i]
		inst.graph.Clear()

		ip, err := inst.graph.AddInputProcess("input", inputC, tileH, tileW, o.alignment, o.transferFunc, o.hdr, o.snorm)
		if err != nil {
			o.resetModel()
			return false
		}
		out, err := BuildNetwork(inst.graph, ip)
		if err != nil {
			o.resetModel()
			return false
		}
		op, err := inst.graph.AddOutputProcess("output", out, o.transferFunc, o.hdr, o.snorm)
		if err != nil {
			o.resetModel()
			return false
		}
		inst.inputProcess, inst.outputProcess = ip, op

		for _, graphOp := range inst.graph.Ops() {
			if !graphOp.IsSupported(o.eng) {
				o.resetModel()
				return false
			}
		}
	}

	graphScratch := o.instances[0].graph.GetScratchAlignedSize()
	constBytes := o.instances[0].graph.ConstByteSize()

	var outputTempBytes uint64
	if o.inplace {
		outputTempBytes = uint64(o.output.Height*o.output.RowStride) + uint64(o.output.Format.BytesPerPixel())
	}

	totalMemory := graphScratch + constBytes + outputTempBytes
	if o.numEngines > 1 {
		totalMemory += (graphScratch + constBytes) * uint64(o.numEngines-1)
	}
	if totalMemory > budget {
		o.resetModel()
		return false
	}

	for i := range o.instances {
		inst := &o.instances[i]
		size := graphScratch
		if i == 0 {
			size += outputTempBytes
		}
		buf := o.eng.NewScratchBuffer(size)
		if err := inst.graph.SetScratch(buf); err != nil {
			o.resetModel()
			return false
		}
		if err := inst.graph.Finalize(); err != nil {
			o.resetModel()
			return false
		}
		if i == 0 && o.inplace {
			o.outputTemp = imagebuf.New(buf.Bytes()[graphScratch:], o.output.Format, o.output.Width, o.output.Height)
			o.hasOutputTemp = true
		}
	}

	if o.hdr && math.IsNaN(float64(o.inputScale)) {
		o.autoexposure = graph.NewAutoexposure(o.color)
	}
	if o.hasOutputTemp {
		o.imageCopy = graph.NewImageCopy(o.outputTemp, o.output)
	}
	return true
}

// Execute runs the committed graphs against the bound images, one
// host task on engine 0 fanning tiles out round-robin across engines.
func (o *Orchestrator) Execute(ctx context.Context, syncMode SyncMode, progress func(done, total int) bool) error {
	if o.dirty {
		return errs.New(errs.InvalidOperation, "execute: called before commit")
	}
	h, w := o.output.Height, o.output.Width
	if h <= 0 || w <= 0 {
		return nil
	}

	scale := o.inputScale
	if math.IsNaN(float64(scale)) {
		if o.hdr {
			if err := o.autoexposure.Submit(o.eng); err != nil {
				return errs.Wrap(errs.InvalidOperation, err, "execute: autoexposure")
			}
			scale = o.autoexposure.Result()
		} else {
			scale = 1
		}
	}
	o.transferFunc = newTransferFunc(o.srgb, scale)
	for i := range o.instances {
		o.instances[i].inputProcess.SetTransfer(o.transferFunc)
		o.instances[i].outputProcess.SetTransfer(o.transferFunc)
	}

	outputTarget := o.output
	if o.hasOutputTemp {
		outputTarget = o.outputTemp
	}

	total := o.tiles.TileCountH * o.tiles.TileCountW * o.instances[0].graph.WorkAmount()
	var done atomic.Int64
	var aborted atomic.Bool
	reportTile := func() {
		n := int(done.Add(1))
		if progress != nil && !progress(n, total) {
			aborted.Store(true)
		}
	}

	tileCount := o.tiles.TileCountH * o.tiles.TileCountW
	submit := func(idx int) error {
		row, col := idx/o.tiles.TileCountW, idx%o.tiles.TileCountW
		win := TileAt(row, col, h, w, o.tiles.TileH, o.tiles.TileW, o.overlap, o.alignment, o.tiles.TileCountH, o.tiles.TileCountW)

		inst := &o.instances[idx%o.numEngines]
		inst.inputProcess.SetTile(o.color, o.hasAlbedo, o.albedo, o.hasNormal, o.normal,
			imagebuf.Rect{X: win.SrcRect.X, Y: win.SrcRect.Y, Width: win.SrcRect.Width, Height: win.SrcRect.Height},
			win.DstOffsetX, win.DstOffsetY)
		inst.outputProcess.SetTile(outputTarget, win.SrcOffsetX, win.SrcOffsetY,
			imagebuf.Rect{X: win.DstRect.X, Y: win.DstRect.Y, Width: win.DstRect.Width, Height: win.DstRect.Height})

		return inst.graph.Run(reportTile)
	}

	if o.numEngines <= 1 {
		for idx := 0; idx < tileCount; idx++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if aborted.Load() {
				break
			}
			if err := submit(idx); err != nil {
				return err
			}
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		for eng := 0; eng < o.numEngines; eng++ {
			eng := eng
			g.Go(func() error {
				for idx := eng; idx < tileCount; idx += o.numEngines {
					if err := ctx.Err(); err != nil {
						return err
					}
					if aborted.Load() {
						return nil
					}
					if err := submit(idx); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if o.hasOutputTemp {
		if err := o.imageCopy.Submit(o.eng); err != nil {
			return errs.Wrap(errs.InvalidOperation, err, "execute: output copy")
		}
	}
	_ = syncMode // the reference engine executes synchronously already
	return nil
}
