package engine

import (
	"fmt"
	"sort"
	"strings"
)

// FindCombinations lists up to limit sets of tile ids whose values sum exactly
// to target. Tiles are explored in row-major order so results are stable.
// A limit of 0 or less means no limit.
func FindCombinations(grid Grid, target, limit int) [][]string {
	if target <= 0 {
		return nil
	}

	tiles := grid.Clone()
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Row != tiles[j].Row {
			return tiles[i].Row < tiles[j].Row
		}
		return tiles[i].Col < tiles[j].Col
	})

	// reach[i][s]: some subset of tiles[i:] sums to s
	reach := make([][]bool, len(tiles)+1)
	reach[len(tiles)] = make([]bool, target+1)
	reach[len(tiles)][0] = true
	for i := len(tiles) - 1; i >= 0; i-- {
		reach[i] = append([]bool{}, reach[i+1]...)
		v := tiles[i].Value
		for s := target; s >= v && v > 0; s-- {
			if reach[i+1][s-v] {
				reach[i][s] = true
			}
		}
	}

	var results [][]string
	var path []string

	// Only branches that can still complete are entered
	var walk func(start, remaining int) bool
	walk = func(start, remaining int) bool {
		if remaining == 0 && len(path) > 0 {
			results = append(results, append([]string{}, path...))
			return limit > 0 && len(results) >= limit
		}
		for i := start; i < len(tiles); i++ {
			v := tiles[i].Value
			if v <= 0 || v > remaining || !reach[i+1][remaining-v] {
				continue
			}
			path = append(path, tiles[i].ID)
			done := walk(i+1, remaining-v)
			path = path[:len(path)-1]
			if done {
				return true
			}
		}
		return false
	}

	walk(0, target)
	return results
}

// BestCombination picks, among the first limit sets summing to target, the
// one whose topmost tile is nearest row 0, preferring larger sets on ties.
// It returns nil when no set matches.
func BestCombination(grid Grid, target, limit int) []string {
	var best []string
	bestTop := -1
	for _, ids := range FindCombinations(grid, target, limit) {
		top := -1
		for _, t := range grid.Select(ids) {
			if top < 0 || t.Row < top {
				top = t.Row
			}
		}
		if best == nil || top < bestTop || (top == bestTop && len(ids) > len(best)) {
			best, bestTop = ids, top
		}
	}
	return best
}

// CountTiles counts the tiles in each row, indexed by row
func CountTiles(grid Grid, rows int) []int {
	counts := make([]int, rows)
	for _, t := range grid {
		if t.Row >= 0 && t.Row < rows {
			counts[t.Row]++
		}
	}
	return counts
}

// RenderGrid draws the grid as text, one line per row. Empty cells are '.',
// selected tiles are wrapped in brackets.
func RenderGrid(state *GameState) []string {
	selected := make(map[string]bool, len(state.SelectedIDs))
	for _, id := range state.SelectedIDs {
		selected[id] = true
	}

	grid := Grid(state.Grid)
	lines := make([]string, 0, state.Rows)
	for r := 0; r < state.Rows; r++ {
		cells := make([]string, 0, state.Cols)
		for c := 0; c < state.Cols; c++ {
			t, ok := grid.At(r, c)
			switch {
			case !ok:
				cells = append(cells, " . ")
			case selected[t.ID]:
				cells = append(cells, fmt.Sprintf("[%d]", t.Value))
			default:
				cells = append(cells, fmt.Sprintf(" %d ", t.Value))
			}
		}
		lines = append(lines, fmt.Sprintf("%2d|%s|", r, strings.Join(cells, "")))
	}
	return lines
}

// DangerLevel classifies how close the stack is to the top row
func DangerLevel(state *GameState) string {
	height := Grid(state.Grid).Height(state.Rows)
	switch {
	case height >= state.Rows:
		return "CRITICAL: tiles in the top row, next injection ends the game"
	case height >= state.Rows-2:
		return "DANGER: stack is near the top"
	case height >= state.Rows/2:
		return "CAUTION: stack is over half height"
	default:
		return "SAFE"
	}
}
