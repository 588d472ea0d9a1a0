package main

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sumstack/game/engine"
)

func TestSimulateAlwaysMatchable(t *testing.T) {
	config := engine.DefaultConfig()
	config.MinTileValue, config.MaxTileValue = 5, 5
	config.MinTarget, config.MaxTarget = 10, 10

	ending, matches, score, reachable, err := simulate(config, rand.New(rand.NewSource(1)), 1000)
	require.NoError(t, err)

	// Every match removes two tiles and injects six, so the stack must overflow
	assert.Equal(t, EndingOverflow, ending)
	assert.True(t, reachable)
	assert.Greater(t, matches, 0)
	assert.Equal(t, matches*2*config.PointsPerTile, score)
}

func TestSimulateStuck(t *testing.T) {
	config := engine.DefaultConfig()
	config.MinTileValue, config.MaxTileValue = 2, 2
	config.MinTarget, config.MaxTarget = 3, 3

	ending, matches, score, reachable, err := simulate(config, rand.New(rand.NewSource(1)), 10)
	require.NoError(t, err)
	assert.Equal(t, EndingStuck, ending)
	assert.Zero(t, matches)
	assert.Zero(t, score)
	assert.False(t, reachable)
}

func TestSimulateCap(t *testing.T) {
	config := engine.DefaultConfig()
	config.MinTileValue, config.MaxTileValue = 5, 5
	config.MinTarget, config.MaxTarget = 10, 10

	ending, matches, _, _, err := simulate(config, rand.New(rand.NewSource(1)), 1)
	require.NoError(t, err)
	assert.Equal(t, EndingCap, ending)
	assert.Equal(t, 1, matches)
}

func TestAnalyzePresetIsDeterministic(t *testing.T) {
	config := engine.DefaultConfig()

	a, err := analyzePreset(config, 20, 42, 100)
	require.NoError(t, err)
	b, err := analyzePreset(config, 20, 42, 100)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 20, a.Endings[EndingOverflow]+a.Endings[EndingStuck]+a.Endings[EndingCap])
}

func TestWriteReportWarnsWhenOftenStuck(t *testing.T) {
	config := engine.DefaultConfig()
	report := Report{
		Name:    "Harsh",
		Games:   4,
		Endings: map[Ending]int{EndingStuck: 2, EndingOverflow: 2},
	}

	var buf bytes.Buffer
	writeReport(&buf, config, report)
	assert.Contains(t, buf.String(), "Endings: overflow=2 stuck=2 cap=0")
	assert.Contains(t, buf.String(), "WARNING")
}

func TestCommandRunsOnShippedPresets(t *testing.T) {
	var buf bytes.Buffer
	err := newCommand(&buf).Run(context.Background(), []string{
		"analyze", "--config-dir", filepath.Join("..", "..", "configs"), "--games", "3", "--max-matches", "20",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "=== Analyzing classic.json ===")
	assert.Contains(t, buf.String(), "=== Analyzing time-rush.yaml ===")
}
