// Package mcp exposes SumStack to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool is answered by calling the REST API
// and formatting the JSON response as text an agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - start_game: start a CLASSIC or TIME round
//   - game_state: rendered grid, tile ids, target, sum and score
//   - select_tile, select_tiles: toggle tiles by id
//   - find_combinations: tile sets on the grid that sum to the target
//   - reset_game: back to the menu
//   - high_score: best score across sessions
//   - list_configs: rule presets
//   - game_instructions: rules and strategy notes
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount client.HTTPHandler() at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	apiServer.Handle("/mcp", client.HTTPHandler())
package mcp
