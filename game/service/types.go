package service

import (
	"time"

	"github.com/wricardo/sumstack/game/engine"
)

// Event types reported in results and pushed to notifiers
const (
	EventStart       = "start"
	EventSelect      = "select"
	EventMatch       = "match"
	EventOvershoot   = "overshoot"
	EventRowInjected = "row_injected"
	EventGameOver    = "game_over"
	EventHighScore   = "high_score"
	EventReset       = "reset"
	EventTick        = "tick"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	TickerRunning  bool               `json:"ticker_running"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// SelectResult contains the result of a single tile toggle
type SelectResult struct {
	TileID      string            `json:"tile_id"`
	Outcome     engine.Outcome    `json:"outcome"`
	Sum         int               `json:"sum"`
	Target      int               `json:"target"`
	ScoreDelta  int               `json:"score_delta"`
	RowInjected bool              `json:"row_injected"`
	GameOver    bool              `json:"game_over"`
	NewRecord   bool              `json:"new_record"`
	Message     string            `json:"message"`
	GameState   *engine.GameState `json:"game_state"`
	Events      []GameEvent       `json:"events,omitempty"`
}

// BulkSelectResult contains the result of several toggles applied in order
type BulkSelectResult struct {
	Requested     int               `json:"requested"`
	Applied       int               `json:"applied"`
	Steps         []SelectStep      `json:"steps"`
	ScoreDelta    int               `json:"score_delta"`
	Matches       int               `json:"matches"`
	GameOver      bool              `json:"game_over"`
	StoppedReason string            `json:"stopped_reason,omitempty"`
	StoppedOnStep int               `json:"stopped_on_step,omitempty"` // 1-based
	GameState     *engine.GameState `json:"game_state"`
	Events        []GameEvent       `json:"events"`
}

// SelectStep is a compact record of one toggle in a bulk call
type SelectStep struct {
	Idx         int            `json:"idx"`
	TileID      string         `json:"tile_id"`
	Outcome     engine.Outcome `json:"outcome"`
	Sum         int            `json:"sum"`
	Target      int            `json:"target"`
	ScoreDelta  int            `json:"score_delta,omitempty"`
	RowInjected bool           `json:"row_injected,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // see Event* constants
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TileIDs   []string  `json:"tile_ids,omitempty"`
	Value     int       `json:"value,omitempty"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Cols        int    `json:"cols"`
	Rows        int    `json:"rows"`
	TimeLimit   int    `json:"time_limit"`
}
