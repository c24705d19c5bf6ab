package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanTilesSingleTileWhenBudgetIsUnbounded(t *testing.T) {
	grid, err := PlanTiles(1024, 1024, 16, 32, infiniteBudget, 1, func(budget uint64, tileH, tileW int) bool {
		return true
	})
	require.NoError(t, err)
	require.Equal(t, 1, grid.TileCountH)
	require.Equal(t, 1, grid.TileCountW)
}

// TestPlanTilesSubdividesToFitBudgetAndEngines mirrors a 1024x1024 image
// with overlap 16 and alignment 32 split across 2 engines: the planner
// must keep subdividing until the tile fits within a 512x512 bound and
// the resulting grid divides evenly across both engines.
func TestPlanTilesSubdividesToFitBudgetAndEngines(t *testing.T) {
	grid, err := PlanTiles(1024, 1024, 16, 32, 1<<62, 2, func(budget uint64, tileH, tileW int) bool {
		return tileH <= 512 && tileW <= 512
	})
	require.NoError(t, err)
	require.LessOrEqual(t, grid.TileH, 512)
	require.LessOrEqual(t, grid.TileW, 512)
	require.Greater(t, grid.TileCountH*grid.TileCountW, 1)
	require.Zero(t, (grid.TileCountH*grid.TileCountW)%2)
}

func TestPlanTilesFallsBackToMinimumSizeWhenNothingFits(t *testing.T) {
	overlap := 16
	grid, err := PlanTiles(256, 256, overlap, 16, 1<<62, 1, func(budget uint64, tileH, tileW int) bool {
		return tileH <= 3*overlap && tileW <= 3*overlap
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, grid.TileH, 3*overlap)
	require.GreaterOrEqual(t, grid.TileW, 3*overlap)
}

func TestPlanTilesRejectsModelThatNeverFits(t *testing.T) {
	_, err := PlanTiles(256, 256, 16, 16, 1<<62, 1, func(budget uint64, tileH, tileW int) bool {
		return false
	})
	require.Error(t, err)
}

// TestTileAtCoversWholeImageWithoutOverlap checks that the union of
// every tile's destination rect over a grid exactly tiles the image,
// with no gaps and no overlaps.
func TestTileAtCoversWholeImageWithoutOverlap(t *testing.T) {
	h, w := 100, 100
	overlap, alignment := 8, 4
	tileCountH, tileCountW := 4, 4
	tileH := 40
	tileW := 40

	covered := make([][]bool, h)
	for i := range covered {
		covered[i] = make([]bool, w)
	}

	for row := 0; row < tileCountH; row++ {
		for col := 0; col < tileCountW; col++ {
			win := TileAt(row, col, h, w, tileH, tileW, overlap, alignment, tileCountH, tileCountW)
			for y := win.DstRect.Y; y < win.DstRect.Y+win.DstRect.Height; y++ {
				for x := win.DstRect.X; x < win.DstRect.X+win.DstRect.Width; x++ {
					require.False(t, covered[y][x], "pixel (%d,%d) covered by more than one tile", x, y)
					covered[y][x] = true
				}
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.True(t, covered[y][x], "pixel (%d,%d) not covered by any tile", x, y)
		}
	}
}

func TestTileAtFirstTileHasNoLeadingOverlap(t *testing.T) {
	win := TileAt(0, 0, 64, 64, 32, 32, 8, 8, 2, 2)
	require.Equal(t, 0, win.SrcRect.X)
	require.Equal(t, 0, win.SrcRect.Y)
	require.Equal(t, 0, win.DstRect.X)
	require.Equal(t, 0, win.DstRect.Y)
}
