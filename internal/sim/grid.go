package sim

// GridCellSize is about twice the largest creature radius.
const GridCellSize = 80.0

// Grid is a uniform broad-phase grid over the canvas. Entities are filed by
// center, so a query widens its box by the largest inserted radius and each
// entity is reported at most once.
type Grid struct {
	cols, rows int
	cells      [][]ID
	maxR       float64
}

// Reset sizes the grid for a w x h canvas and empties every cell, keeping
// allocated capacity when the size is unchanged.
func (g *Grid) Reset(w, h float64) {
	cols := int(w/GridCellSize) + 1
	rows := int(h/GridCellSize) + 1
	if cols != g.cols || rows != g.rows {
		g.cols, g.rows = cols, rows
		g.cells = make([][]ID, cols*rows)
	}
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.maxR = 0
}

func (g *Grid) cell(x, y float64) (int, int) {
	cx := int(x / GridCellSize)
	cy := int(y / GridCellSize)
	if x < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if y < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

// Insert files id under the cell containing pos.
func (g *Grid) Insert(pos Vec, radius float64, id ID) {
	if g.cols == 0 {
		return
	}
	cx, cy := g.cell(pos.X, pos.Y)
	idx := cy*g.cols + cx
	g.cells[idx] = append(g.cells[idx], id)
	if radius > g.maxR {
		g.maxR = radius
	}
}

// QueryBuf appends every id whose circle may overlap the circle (pos, r) to
// buf and returns the extended slice.
func (g *Grid) QueryBuf(pos Vec, r float64, buf []ID) []ID {
	if g.cols == 0 {
		return buf
	}
	r += g.maxR
	minCX, minCY := g.cell(pos.X-r, pos.Y-r)
	maxCX, maxCY := g.cell(pos.X+r, pos.Y+r)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}

// indexCreatures rebuilds the creature grid for the resolver.
func (s *State) indexCreatures() {
	s.grid.Reset(s.Tuning.Width, s.Tuning.Height)
	for _, id := range s.Creatures {
		if c := s.Get(id); c != nil && c.Alive() {
			s.grid.Insert(c.Pos, c.Radius, id)
		}
	}
}

// creaturesNear returns creature ids that may lie within r of pos, in a
// deterministic order. The returned slice is reused by the next call.
func (s *State) creaturesNear(pos Vec, r float64) []ID {
	s.gridBuf = s.grid.QueryBuf(pos, r, s.gridBuf[:0])
	return s.gridBuf
}
