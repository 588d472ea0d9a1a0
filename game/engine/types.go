package engine

// Mode selects how rows are injected during a session
type Mode string

const (
	ModeClassic Mode = "CLASSIC"
	ModeTime    Mode = "TIME"
)

// Valid reports whether m is one of the supported modes
func (m Mode) Valid() bool {
	return m == ModeClassic || m == ModeTime
}

// Status is the session lifecycle state
type Status string

const (
	StatusMenu     Status = "MENU"
	StatusPlaying  Status = "PLAYING"
	StatusGameOver Status = "GAMEOVER"
)

// Outcome is the result of evaluating the current selection
type Outcome string

const (
	OutcomeContinue  Outcome = "continue"
	OutcomeMatch     Outcome = "match"
	OutcomeOvershoot Outcome = "overshoot"
	// OutcomeIgnored is reported when a selection arrives outside PLAYING.
	OutcomeIgnored Outcome = "ignored"
)

const (
	// Default engine constants
	DefaultCols          = 6
	DefaultRows          = 10
	DefaultInitialRows   = 4
	DefaultMinTileValue  = 1
	DefaultMaxTileValue  = 9
	DefaultMinTarget     = 10
	DefaultMaxTarget     = 25
	DefaultTimeLimit     = 10
	DefaultTickMillis    = 1000
	DefaultPointsPerTile = 10

	// Validation constants
	MinGridSize   = 2
	MaxGridSize   = 50
	MaxTileValue  = 99
	MaxTimeLimit  = 3600
	MinTickMillis = 10

	// HighScoreKey is the fixed key the record is persisted under
	HighScoreKey = "sumstack_highscore"
)

// Tile is a single numbered unit occupying one grid cell
type Tile struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// GameConfig holds the grid dimensions and rule constants for a session
type GameConfig struct {
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description" yaml:"description"`
	Cols          int    `json:"cols" yaml:"cols"`
	Rows          int    `json:"rows" yaml:"rows"`
	InitialRows   int    `json:"initial_rows" yaml:"initial_rows"`
	MinTileValue  int    `json:"min_tile_value" yaml:"min_tile_value"`
	MaxTileValue  int    `json:"max_tile_value" yaml:"max_tile_value"`
	MinTarget     int    `json:"min_target" yaml:"min_target"`
	MaxTarget     int    `json:"max_target" yaml:"max_target"`
	TimeLimit     int    `json:"time_limit" yaml:"time_limit"`             // seconds per row in TIME mode
	TickMillis    int    `json:"tick_interval_ms" yaml:"tick_interval_ms"` // TIME mode tick period
	PointsPerTile int    `json:"points_per_tile" yaml:"points_per_tile"`
}

// GameState is the snapshot handed to rendering hosts
type GameState struct {
	Grid        []Tile   `json:"grid"`
	Target      int      `json:"target"`
	Score       int      `json:"score"`
	SelectedIDs []string `json:"selected_ids"`
	Status      Status   `json:"status"`
	Mode        Mode     `json:"mode"`
	TimeLeft    int      `json:"time_left"`
	HighScore   int      `json:"high_score"`
	ConfigName  string   `json:"config_name"`

	// Dimensions let hosts render without fetching the config
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// SelectionResult reports what a single toggle did
type SelectionResult struct {
	Outcome     Outcome `json:"outcome"`
	Sum         int     `json:"sum"`
	Target      int     `json:"target"`
	Cleared     []Tile  `json:"cleared,omitempty"`
	ScoreDelta  int     `json:"score_delta"`
	RowInjected bool    `json:"row_injected"`
	GameOver    bool    `json:"game_over"`
	NewRecord   bool    `json:"new_record"`
}

// TickResult reports what a single timer tick did
type TickResult struct {
	TimeLeft    int  `json:"time_left"`
	RowInjected bool `json:"row_injected"`
	GameOver    bool `json:"game_over"`
	Applied     bool `json:"applied"`
}
