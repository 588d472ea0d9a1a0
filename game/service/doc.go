// Package service provides the business logic layer for SumStack.
//
// The service package implements:
//   - Multi-session game management
//   - Countdown ownership for TIME mode
//   - Tile selection, single and bulk
//   - Configuration lookup
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages rule presets. Notifier receives every state change.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session has its own lock: commands and countdown
// ticks for one session run one at a time, each to completion, while
// different sessions proceed independently.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithRecords(records))
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithNotifier(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state, err := gameService.StartGame(ctx, info.ID, engine.ModeTime)
//	result, err := gameService.SelectTile(ctx, info.ID, state.Grid[0].ID)
//
// Countdown:
//
// StartGame in TIME mode starts a ticker.Source for the session. A tick is
// applied only if its generation is still current when it gets the session
// lock, so a tick racing with Reset, a restart or deletion is dropped.
package service
