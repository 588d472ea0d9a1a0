// Package api provides HTTP REST API handlers for SumStack.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session, body {"config_id": "time-rush"} (optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session and stop its countdown
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/start - Start a round, body {"mode": "CLASSIC|TIME"}
//   - POST /api/sessions/{id}/select - Toggle a tile, body {"tile_id": "..."}
//   - POST /api/sessions/{id}/select-many - Toggle tiles in order, body {"tile_ids": [...]}
//   - POST /api/sessions/{id}/reset - Back to the menu
//   - GET /api/highscore - Best score across all sessions
//
// Configuration:
//   - GET /api/configs - List rule presets
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs - Save a preset
//
// Other:
//   - GET /api/health - Liveness
//   - GET /ws?session=<id> - WebSocket push of every state change
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "session not found: zz99"}
//
// Unknown sessions and presets map to 404; malformed bodies, unknown modes,
// invalid presets and oversized bulk selections map to 400.
package api
