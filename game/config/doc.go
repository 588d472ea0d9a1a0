// Package config provides rule preset management for SumStack.
//
// The config package handles:
//   - Loading presets from JSON or YAML files
//   - Validation through engine.ValidateGameConfig
//   - Default preset selection
//   - Preset discovery and listing
//
// Configuration Format:
//
// A preset is one file in the configs directory. The file name without its
// extension is the config ID used to create sessions. Each preset defines the
// grid dimensions, the number of initial rows, the tile value and target
// ranges, the TIME mode countdown and the points awarded per selected tile on a match.
//
//	name: Time Rush
//	cols: 6
//	rows: 10
//	initial_rows: 4
//	min_tile_value: 1
//	max_tile_value: 9
//	min_target: 10
//	max_target: 25
//	time_limit: 6
//	tick_interval_ms: 1000
//	points_per_tile: 10
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("classic")
//
// The classic preset is the default. Without it the first valid preset is
// used, and with no valid presets at all the built-in engine defaults apply.
package config
