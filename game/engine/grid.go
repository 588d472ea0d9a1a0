package engine

// Grid is an unordered collection of live tiles
type Grid []Tile

// TileSource creates tiles with fresh identities and random values
type TileSource interface {
	NewTile(row, col int) Tile
}

// GenerateInitialGrid fills the bottom InitialRows rows, one tile per column
func GenerateInitialGrid(config *GameConfig, src TileSource) Grid {
	grid := make(Grid, 0, config.InitialRows*config.Cols)
	for r := config.Rows - config.InitialRows; r < config.Rows; r++ {
		for c := 0; c < config.Cols; c++ {
			grid = append(grid, src.NewTile(r, c))
		}
	}
	return grid
}

// InjectRow shifts every tile up one row and appends a fresh bottom row.
// If any tile already sits in row 0 it reports overflow and returns the grid untouched.
func InjectRow(grid Grid, config *GameConfig, src TileSource) (Grid, bool) {
	if grid.HasTileInRow(0) {
		return grid, true
	}

	next := make(Grid, 0, len(grid)+config.Cols)
	for _, t := range grid {
		t.Row--
		next = append(next, t)
	}
	for c := 0; c < config.Cols; c++ {
		next = append(next, src.NewTile(config.Rows-1, c))
	}
	return next, false
}

// RemoveTiles returns a new grid without the given ids. Survivors keep their positions.
func RemoveTiles(grid Grid, ids []string) Grid {
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	next := make(Grid, 0, len(grid))
	for _, t := range grid {
		if !remove[t.ID] {
			next = append(next, t)
		}
	}
	return next
}

// HasTileInRow reports whether any tile occupies the given row
func (g Grid) HasTileInRow(row int) bool {
	for _, t := range g {
		if t.Row == row {
			return true
		}
	}
	return false
}

// Find returns the tile with the given id
func (g Grid) Find(id string) (Tile, bool) {
	for _, t := range g {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

// At returns the tile at (row, col)
func (g Grid) At(row, col int) (Tile, bool) {
	for _, t := range g {
		if t.Row == row && t.Col == col {
			return t, true
		}
	}
	return Tile{}, false
}

// Select returns the tiles whose ids are in ids, in grid order. Unknown ids are skipped.
func (g Grid) Select(ids []string) []Tile {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var tiles []Tile
	for _, t := range g {
		if want[t.ID] {
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// Sum totals the values of the tiles whose ids are in ids
func (g Grid) Sum(ids []string) int {
	sum := 0
	for _, t := range g.Select(ids) {
		sum += t.Value
	}
	return sum
}

// Clone returns a copy that shares nothing with g
func (g Grid) Clone() Grid {
	if g == nil {
		return Grid{}
	}
	out := make(Grid, len(g))
	copy(out, g)
	return out
}

// Height returns the number of rows between the topmost tile and the bottom, 0 if empty
func (g Grid) Height(rows int) int {
	top := rows
	for _, t := range g {
		if t.Row < top {
			top = t.Row
		}
	}
	return rows - top
}
