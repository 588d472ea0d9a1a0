package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid game configuration")

// DefaultConfig returns the classic rule set
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:          "classic",
		Description:   "6x10 grid, four starting rows, targets 10-25",
		Cols:          DefaultCols,
		Rows:          DefaultRows,
		InitialRows:   DefaultInitialRows,
		MinTileValue:  DefaultMinTileValue,
		MaxTileValue:  DefaultMaxTileValue,
		MinTarget:     DefaultMinTarget,
		MaxTarget:     DefaultMaxTarget,
		TimeLimit:     DefaultTimeLimit,
		TickMillis:    DefaultTickMillis,
		PointsPerTile: DefaultPointsPerTile,
	}
}

// TickInterval returns the TIME mode tick period
func (c *GameConfig) TickInterval() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Cols)
	}
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Rows)
	}
	// At least one empty row must remain so the first injection cannot overflow
	if config.InitialRows < 1 || config.InitialRows >= config.Rows {
		return fmt.Errorf("%w: initial_rows must be between 1 and %d, got %d", ErrInvalidConfig, config.Rows-1, config.InitialRows)
	}

	if config.MinTileValue < 1 || config.MaxTileValue > MaxTileValue || config.MinTileValue > config.MaxTileValue {
		return fmt.Errorf("%w: tile values must satisfy 1 <= min (%d) <= max (%d) <= %d",
			ErrInvalidConfig, config.MinTileValue, config.MaxTileValue, MaxTileValue)
	}
	if config.MinTarget < 1 || config.MinTarget > config.MaxTarget {
		return fmt.Errorf("%w: targets must satisfy 1 <= min (%d) <= max (%d)",
			ErrInvalidConfig, config.MinTarget, config.MaxTarget)
	}

	if config.TimeLimit < 1 || config.TimeLimit > MaxTimeLimit {
		return fmt.Errorf("%w: time_limit must be between 1 and %d, got %d", ErrInvalidConfig, MaxTimeLimit, config.TimeLimit)
	}
	if config.TickMillis < MinTickMillis {
		return fmt.Errorf("%w: tick_interval_ms must be at least %d, got %d", ErrInvalidConfig, MinTickMillis, config.TickMillis)
	}
	if config.PointsPerTile < 1 {
		return fmt.Errorf("%w: points_per_tile must be positive, got %d", ErrInvalidConfig, config.PointsPerTile)
	}

	return nil
}

// DecodeGameConfig parses a preset. The format is picked from the file extension;
// anything that is not .yaml or .yml is treated as JSON.
func DecodeGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config '%s': %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse json config '%s': %w", filename, err)
		}
	}
	return &config, nil
}

// LoadGameConfig loads and validates a game configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(filename, data)
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
