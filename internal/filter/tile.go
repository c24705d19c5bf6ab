package filter

import (
	"github.com/lumenforge/denoise/internal/errs"
	"github.com/lumenforge/denoise/internal/util"
)

// TileGrid is the result of the tile planner: the internal tile buffer
// size and the grid of tiles that actually covers the image.
type TileGrid struct {
	TileH, TileW           int
	TileCountH, TileCountW int
}

const maxSubdivisionSteps = 10_000

// PlanTiles searches for a tile size the build function accepts within
// maxMemoryByteSize, subdividing one axis at a time starting from a
// single tile covering the whole image and stopping at the first
// (largest) size that fits with a tile count divisible by numEngines. buildModel is
// called with the byte budget and the (tileH, tileW) to try; it
// reports whether the model fit at that size.
func PlanTiles(h, w, overlap, alignment int, maxMemoryByteSize uint64, numEngines int, buildModel func(budget uint64, tileH, tileW int) bool) (TileGrid, error) {
	minTileSize := 3 * overlap

	tileH := util.RoundUp(h, alignment)
	tileW := util.RoundUp(w, alignment)
	tileCountH, tileCountW := 1, 1

	for step := 0; ; step++ {
		if step > maxSubdivisionSteps {
			return TileGrid{}, errs.New(errs.ModelBuildError, "tile planner: exceeded subdivision budget")
		}

		ok := buildModel(maxMemoryByteSize, tileH, tileW)
		if ok && (tileCountH*tileCountW)%numEngines == 0 {
			break
		}

		switch {
		case tileH > minTileSize && tileH > tileW:
			tileCountH++
			tileH = max(util.RoundUp(util.CeilDiv(h-2*overlap, tileCountH), alignment)+2*overlap, minTileSize)
		case tileW > minTileSize:
			tileCountW++
			tileW = max(util.RoundUp(util.CeilDiv(w-2*overlap, tileCountW), alignment)+2*overlap, minTileSize)
		default:
			if !buildModel(infiniteBudget, tileH, tileW) {
				return TileGrid{}, errs.New(errs.ModelBuildError, "tile planner: model does not fit even at unbounded budget")
			}
			return finalGrid(h, w, tileH, tileW, overlap), nil
		}
	}
	return finalGrid(h, w, tileH, tileW, overlap), nil
}

// finalGrid computes the tile counts that actually cover the image at
// the chosen tile size, per the planner's closing step.
func finalGrid(h, w, tileH, tileW, overlap int) TileGrid {
	finalTileCountH := 1
	if h > tileH {
		finalTileCountH = util.CeilDiv(h-2*overlap, tileH-2*overlap)
	}
	finalTileCountW := 1
	if w > tileW {
		finalTileCountW = util.CeilDiv(w-2*overlap, tileW-2*overlap)
	}

	return TileGrid{TileH: tileH, TileW: tileW, TileCountH: finalTileCountH, TileCountW: finalTileCountW}
}

const infiniteBudget = ^uint64(0)

// Rect is an axis-aligned tile rectangle in image space.
type Rect struct {
	X, Y          int
	Width, Height int
}

// TileWindow describes one tile's source/destination windows, derived
// from its (row, col) position in the final tile grid.
type TileWindow struct {
	SrcRect                Rect
	DstOffsetX, DstOffsetY int // internal-buffer offset for the input process
	SrcOffsetX, SrcOffsetY int // internal-buffer offset for the output process
	DstRect                Rect
}

// TileAt computes the source and destination windows for tile (row,
// col) of a grid with the given image size, tile size, overlap and
// alignment, per the orchestrator's per-tile geometry rules.
func TileAt(row, col, h, w, tileH, tileW, overlap, alignment, tileCountH, tileCountW int) TileWindow {
	y := row * (tileH - 2*overlap)
	x := col * (tileW - 2*overlap)

	overlapBeginH, overlapEndH := 0, 0
	if row > 0 {
		overlapBeginH = overlap
	}
	if row < tileCountH-1 {
		overlapEndH = overlap
	}
	overlapBeginW, overlapEndW := 0, 0
	if col > 0 {
		overlapBeginW = overlap
	}
	if col < tileCountW-1 {
		overlapEndW = overlap
	}

	tileH1 := min(h-y, tileH)
	tileW1 := min(w-x, tileW)
	tileH2 := tileH1 - overlapBeginH - overlapEndH
	tileW2 := tileW1 - overlapBeginW - overlapEndW

	alignOffsetH := tileH - util.RoundUp(tileH1, alignment)
	alignOffsetW := tileW - util.RoundUp(tileW1, alignment)

	return TileWindow{
		SrcRect:    Rect{X: x, Y: y, Width: tileW1, Height: tileH1},
		DstOffsetX: alignOffsetW, DstOffsetY: alignOffsetH,
		SrcOffsetX: alignOffsetW + overlapBeginW, SrcOffsetY: alignOffsetH + overlapBeginH,
		DstRect: Rect{X: x + overlapBeginW, Y: y + overlapBeginH, Width: tileW2, Height: tileH2},
	}
}
