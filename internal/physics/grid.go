package physics

import "math"

// SpatialGrid is a uniform grid for broad-phase collision detection.
// Rectangles are inserted by index into every cell they cover; a query
// reports each candidate index at most once.
//
// The world does not wrap: rectangles partly outside the grid are clamped
// to the border cells, so entities entering from above the top edge are
// still found.
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cols        int
	rows        int
	cells       []gridCell

	// Reusable dedupe marks for QueryRect, indexed by item.
	seen  []uint32
	stamp uint32
}

// gridCell stores the indices of objects that fall within a grid cell.
// The slice is reused between frames (reset to [:0]) to avoid allocations.
type gridCell struct {
	items []int
}

// NewSpatialGrid creates a spatial grid covering the given world dimensions.
func NewSpatialGrid(worldW, worldH, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil(worldW / cellSize))
	rows := int(math.Ceil(worldH / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]gridCell, cols*rows),
	}
}

// Clear removes all items from the grid without deallocating cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds the item index to every cell r covers.
func (g *SpatialGrid) Insert(r Rect, index int) {
	c0, r0 := g.posToCell(r.X, r.Y)
	c1, r1 := g.posToCell(r.Right(), r.Bottom())
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			idx := row*g.cols + col
			g.cells[idx].items = append(g.cells[idx].items, index)
		}
	}
	if index >= len(g.seen) {
		g.seen = append(g.seen, make([]uint32, index+1-len(g.seen))...)
	}
}

// QueryRect calls fn once for each item index sharing a cell with r.
// Order is unspecified. If fn returns true, iteration stops early.
func (g *SpatialGrid) QueryRect(r Rect, fn func(index int) bool) {
	g.stamp++
	if g.stamp == 0 {
		clear(g.seen)
		g.stamp = 1
	}

	c0, r0 := g.posToCell(r.X, r.Y)
	c1, r1 := g.posToCell(r.Right(), r.Bottom())
	for row := r0; row <= r1; row++ {
		rowOffset := row * g.cols
		for col := c0; col <= c1; col++ {
			for _, itemIdx := range g.cells[rowOffset+col].items {
				if g.seen[itemIdx] == g.stamp {
					continue
				}
				g.seen[itemIdx] = g.stamp
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// posToCell converts world coordinates to grid cell coordinates.
// Clamps to valid range to handle off-grid positions and floating point edges.
func (g *SpatialGrid) posToCell(x, y float64) (col, row int) {
	col = int(math.Floor(x * g.invCellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor(y * g.invCellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}
