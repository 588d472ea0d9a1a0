package engine

// NewTile creates a tile with a fresh identity and a uniformly drawn value.
// GameEngine is the TileSource used for every row it generates.
func (e *GameEngine) NewTile(row, col int) Tile {
	return Tile{
		ID:    e.newID(),
		Value: e.between(e.config.MinTileValue, e.config.MaxTileValue),
		Row:   row,
		Col:   col,
	}
}

// NextTarget returns the next sum goal. The grid is deliberately ignored,
// so a target may be unreachable.
func (e *GameEngine) NextTarget(grid Grid) int {
	if e.targetFunc != nil {
		return e.targetFunc(grid)
	}
	return e.between(e.config.MinTarget, e.config.MaxTarget)
}

// between draws uniformly from [lo, hi]
func (e *GameEngine) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}
