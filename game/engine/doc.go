// Package engine provides the core game logic for SumStack.
//
// SumStack is a grid puzzle: tiles carrying small integers sit in a fixed
// grid, and the player selects tiles whose values add up exactly to a target.
// A match clears the selected tiles and scores them. New rows are pushed in
// from the bottom, shifting every tile up one row; a push while any tile sits
// in the top row ends the game.
//
// Core Types:
//
// The Engine interface defines the contract for game operations and is
// implemented by GameEngine, a synchronous state machine that never blocks.
// GameState is the snapshot handed to callers. GameConfig holds the rules
// (dimensions, value and target ranges, countdown) and can be loaded from
// JSON or YAML. RecordTracker holds the best score shared by all sessions.
//
// Usage:
//
//	records := engine.NewRecordTracker(store)
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig(), records)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state, _ := gameEngine.Start(engine.ModeTime)
//	result := gameEngine.SelectTile(state.Grid[0].ID)
//
// Modes:
//
// In CLASSIC mode a row is injected after every match. In TIME mode matches
// never inject; instead the host calls Tick once per interval and a row is
// injected whenever the countdown runs out.
package engine
