package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/sumstack/game/engine"
)

// ValidationResult captures the outcome of validating a single preset file.
// Errors make the preset unusable; Warnings flag rules that load but play badly.
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateFile decodes and validates one preset
func ValidateFile(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read file: %v", err))
		return result
	}

	config, err := engine.DecodeGameConfig(path, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Warnings = presetWarnings(config)
	return result
}

// presetWarnings reports rules that are valid but make for a poor game
func presetWarnings(c *engine.GameConfig) []string {
	var warnings []string

	if c.MaxTarget < c.MinTileValue {
		warnings = append(warnings, fmt.Sprintf("max_target %d is below the smallest tile %d, no target can ever be matched", c.MaxTarget, c.MinTileValue))
	}
	if reachable := c.InitialRows * c.Cols * c.MaxTileValue; c.MinTarget > reachable {
		warnings = append(warnings, fmt.Sprintf("min_target %d exceeds the largest possible starting grid sum %d", c.MinTarget, reachable))
	}
	if c.TickMillis > c.TimeLimit*1000 {
		warnings = append(warnings, fmt.Sprintf("tick_interval_ms %d is longer than the %ds row budget", c.TickMillis, c.TimeLimit))
	}
	if c.Rows-c.InitialRows < 2 {
		warnings = append(warnings, fmt.Sprintf("only %d empty row(s) at start, the game may end after the first injection", c.Rows-c.InitialRows))
	}
	return warnings
}

// ValidateDir validates every preset in dir, sorted by file name. Files
// without a preset extension are ignored.
func ValidateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || configID(entry.Name()) == entry.Name() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	results := make([]ValidationResult, 0, len(names))
	for _, name := range names {
		results = append(results, ValidateFile(filepath.Join(dir, name)))
	}
	return results, nil
}

// WriteReport prints one block per result and a summary line. It returns the
// number of invalid presets.
func WriteReport(w io.Writer, results []ValidationResult) int {
	invalid := 0
	for _, r := range results {
		status := "OK"
		if !r.Valid {
			status = "INVALID"
			invalid++
		}
		fmt.Fprintf(w, "%-24s %s\n", r.File, status)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    error: %s\n", e)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", warn)
		}
	}
	fmt.Fprintf(w, "\n%d preset(s) checked, %d invalid\n", len(results), invalid)
	return invalid
}
