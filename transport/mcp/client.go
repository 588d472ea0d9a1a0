package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sumstack/game/engine"
	"github.com/wricardo/sumstack/game/service"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

// defaultCombinationLimit caps find_combinations when no limit is given
const defaultCombinationLimit = 10

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"SumStack",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`SumStack - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Select tiles whose values add up exactly to the target. Matched tiles are cleared and score
points. Rows of new tiles are pushed in from the bottom; the game ends when the stack
overflows the top row.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- start_game: start a round in CLASSIC or TIME mode
- game_state: grid, target, current sum and score
- select_tile / select_tiles: toggle tiles by id
- find_combinations: list tile sets that hit the current target
- reset_game: back to the menu
- high_score: best score across sessions
- list_configs: available rule presets
- game_instructions: full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with a rendered grid and tile ids",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a new round. TIME mode pushes a row whenever the countdown expires.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.ModeClassic), string(engine.ModeTime)},
					"description": "Game mode",
				},
			},
			Required: []string{"session_id", "mode"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_tile",
		Description: "Toggle a tile in or out of the current selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"tile_id": map[string]interface{}{
					"type":        "string",
					"description": "Tile id from game_state",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this tile (helps you reason about the sum)",
				},
			},
			Required: []string{"session_id", "tile_id"},
		},
	}, c.handleSelectTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_tiles",
		Description: fmt.Sprintf("Toggle several tiles in order (at most %d). Stops early if the game ends.", service.MaxBulkSelections),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"tile_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Tile ids to toggle",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the combination you are building",
				},
			},
			Required: []string{"session_id", "tile_ids"},
		},
	}, c.handleSelectTiles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_combinations",
		Description: "List sets of tiles on the current grid that sum exactly to the target",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"limit": map[string]interface{}{
					"type":        "number",
					"description": fmt.Sprintf("Maximum combinations to return (default %d)", defaultCombinationLimit),
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFindCombinations)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Return the session to the menu",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_score",
		Description: "Get the best score recorded across all sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHighScore)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and strategy notes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID, _ := arguments(request)["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\nNext: start_game with mode CLASSIC or TIME\n",
		session.ID, session.ConfigName)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		b.WriteString("- " + formatSessionInfo(s) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	mode, _ := args["mode"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/start"), map[string]string{"mode": mode}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game started\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleSelectTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	tileID, _ := args["tile_id"].(string)

	var result service.SelectResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select"), map[string]string{"tile_id": tileID}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(&result)), nil
}

func (c *Client) handleSelectTiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var tileIDs []string
	if raw, ok := args["tile_ids"].([]interface{}); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok {
				tileIDs = append(tileIDs, id)
			}
		}
	}
	if len(tileIDs) == 0 {
		return mcp.NewToolResultError("tile_ids must be a non-empty array of strings"), nil
	}

	var result service.BulkSelectResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/select-many"), map[string][]string{"tile_ids": tileIDs}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkSelectResult(&result)), nil
}

func (c *Client) handleFindCombinations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	limit := defaultCombinationLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCombinations(&state, limit)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := resp.Message
	if resp.State != nil {
		text += "\n\n" + formatGameState(resp.State)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleHighScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		HighScore int `json:"high_score"`
	}
	if err := c.apiCall(ctx, "GET", "/api/highscore", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("High score: %d", resp.HighScore)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No presets available"), nil
	}

	var b strings.Builder
	b.WriteString("Available presets:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %ds per row in TIME mode)", cfg.ConfigID, cfg.Name, cfg.Cols, cfg.Rows, cfg.TimeLimit)
		if cfg.Description != "" {
			b.WriteString(" - " + cfg.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `SumStack - Complete Instructions

GAME OBJECTIVE:
Clear numbered tiles by selecting sets whose values add up exactly to the target number.
Score as much as possible before the stack reaches the top of the grid.

GRID:
- Row 0 is the top. New rows enter at the bottom and push every tile up one row.
- If a push would move a tile above row 0, the game is over.
- game_state prints the grid; selected tiles are shown in [brackets], empty cells as '.'.
- Every tile has an id. Use the ids, not the values, when selecting.

SELECTING:
- select_tile toggles a tile. Selecting it again removes it from the selection.
- After each toggle the selection is summed:
  - sum < target: keep going
  - sum == target: the tiles are cleared, you score points per tile, a new target is drawn
  - sum > target: overshoot, the selection is dropped and you score nothing
- Selections only count while a round is PLAYING.

MODES:
- CLASSIC: every successful match pushes a new row in from the bottom.
- TIME: a countdown runs (see time_left). When it reaches zero a row is pushed and the
  countdown restarts. Matches do not push rows.

STRATEGY FOR AGENTS:
- Call find_combinations to list tile sets that hit the target.
- Prefer combinations that use tiles from the highest rows; they are closest to overflowing.
- Larger combinations score more (points are per tile), but take longer in TIME mode.
- Use select_tiles to submit a whole combination in one call.
- If a selection goes wrong, select the same tile again to drop it before overshooting.

TOOLS:
create_session, list_sessions, get_session, start_game, game_state, select_tile,
select_tiles, find_combinations, reset_game, high_score, list_configs, game_instructions`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	text := fmt.Sprintf("%s (config: %s, last access: %s)", session.ID, session.ConfigName, session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		text += fmt.Sprintf(" status=%s score=%d", session.GameState.Status, session.GameState.Score)
	}
	return text
}

func formatGameState(state *engine.GameState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s", state.Status)
	if state.Mode != "" {
		fmt.Fprintf(&b, "  Mode: %s", state.Mode)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Target: %d  Current sum: %d  Score: %d  High score: %d\n",
		state.Target, engine.Grid(state.Grid).Sum(state.SelectedIDs), state.Score, state.HighScore)
	if state.Mode == engine.ModeTime && state.Status == engine.StatusPlaying {
		fmt.Fprintf(&b, "Time left: %ds\n", state.TimeLeft)
	}
	fmt.Fprintf(&b, "Danger: %s\n\n", engine.DangerLevel(state))

	b.WriteString("Grid:\n")
	for _, line := range engine.RenderGrid(state) {
		b.WriteString(line + "\n")
	}

	if len(state.Grid) > 0 {
		b.WriteString("\nTiles (row,col value id):\n")
		for _, t := range sortedTiles(state.Grid) {
			fmt.Fprintf(&b, "  %d,%d %d %s\n", t.Row, t.Col, t.Value, t.ID)
		}
	}

	if len(state.SelectedIDs) > 0 {
		fmt.Fprintf(&b, "\nSelected: %s\n", strings.Join(state.SelectedIDs, ", "))
	}

	return b.String()
}

func sortedTiles(tiles []engine.Tile) []engine.Tile {
	out := engine.Grid(tiles).Clone()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func formatSelectResult(result *service.SelectResult) string {
	var b strings.Builder

	switch result.Outcome {
	case engine.OutcomeMatch:
		fmt.Fprintf(&b, "MATCH! %d == %d, +%d points\n", result.Sum, result.Target, result.ScoreDelta)
	case engine.OutcomeOvershoot:
		fmt.Fprintf(&b, "Overshoot: %d > %d, selection cleared\n", result.Sum, result.Target)
	case engine.OutcomeIgnored:
		b.WriteString("Ignored: no round in progress, call start_game first\n")
	default:
		fmt.Fprintf(&b, "Sum %d of %d (%d to go)\n", result.Sum, result.Target, result.Target-result.Sum)
	}

	if result.RowInjected {
		b.WriteString("A new row was pushed in\n")
	}
	if result.GameOver {
		b.WriteString("GAME OVER\n")
	}
	if result.NewRecord {
		b.WriteString("New high score!\n")
	}

	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatBulkSelectResult(result *service.BulkSelectResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Applied %d/%d selections, %d match(es), +%d points\n",
		result.Applied, result.Requested, result.Matches, result.ScoreDelta)
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on step %d: %s\n", result.StoppedOnStep, result.StoppedReason)
	}

	for _, step := range result.Steps {
		fmt.Fprintf(&b, "  %d. %s -> %s (sum %d/%d)", step.Idx, step.TileID, step.Outcome, step.Sum, step.Target)
		if step.ScoreDelta > 0 {
			fmt.Fprintf(&b, " +%d", step.ScoreDelta)
		}
		if step.RowInjected {
			b.WriteString(" [row pushed]")
		}
		b.WriteString("\n")
	}

	if result.GameOver {
		b.WriteString("GAME OVER\n")
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatCombinations(state *engine.GameState, limit int) string {
	if state.Status != engine.StatusPlaying {
		return fmt.Sprintf("No round in progress (status %s)", state.Status)
	}

	grid := engine.Grid(state.Grid)
	combos := engine.FindCombinations(grid, state.Target, limit)
	if len(combos) == 0 {
		return fmt.Sprintf("No combination of tiles sums to %d", state.Target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Combinations summing to %d (showing up to %d):\n", state.Target, limit)
	for i, ids := range combos {
		values := make([]string, len(ids))
		for j, t := range grid.Select(ids) {
			values[j] = fmt.Sprintf("%d", t.Value)
		}
		fmt.Fprintf(&b, "%d. %s  tile_ids=%s\n", i+1, strings.Join(values, "+"), strings.Join(ids, ","))
	}
	return b.String()
}
