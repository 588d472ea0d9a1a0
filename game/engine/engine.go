package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMode is returned when Start is asked for an unknown mode
var ErrInvalidMode = errors.New("invalid game mode")

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Start(mode Mode) (*GameState, error)
	Reset() *GameState
	IsPlaying() bool
	IsGameOver() bool
	GetScore() int
	GetTarget() int
	GetHighScore() int
	GetStatus() Status
	GetMode() Mode

	// Player and timer events
	SelectTile(id string) SelectionResult
	Tick() TickResult

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error
}

// GameEngine implements the Engine interface. It is a pure state machine:
// callers serialize events and it never blocks.
type GameEngine struct {
	state   *GameState
	config  *GameConfig
	records *RecordTracker

	rng        *rand.Rand
	newID      func() string
	targetFunc func(Grid) int
}

var _ Engine = (*GameEngine)(nil)

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRand sets the random generator used for tile values and targets
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithIDGenerator replaces the UUID tile identity generator
func WithIDGenerator(newID func() string) Option {
	return func(e *GameEngine) {
		e.newID = newID
	}
}

// WithTargetFunc replaces the random target generator
func WithTargetFunc(fn func(Grid) int) Option {
	return func(e *GameEngine) {
		e.targetFunc = fn
	}
}

// NewEngine creates a new game engine in MENU status.
// A nil records tracker keeps the high score in memory only.
func NewEngine(config *GameConfig, records *RecordTracker, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if records == nil {
		records = NewRecordTracker(nil)
	}

	e := &GameEngine{
		config:  config,
		records: records,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e.state = e.menuState()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

func (e *GameEngine) menuState() *GameState {
	return &GameState{
		Grid:        Grid{},
		SelectedIDs: []string{},
		Status:      StatusMenu,
		Mode:        ModeClassic,
		TimeLeft:    e.config.TimeLimit,
		HighScore:   e.records.Best(),
		ConfigName:  e.config.Name,
		Cols:        e.config.Cols,
		Rows:        e.config.Rows,
	}
}

// GetState returns a snapshot of the current game state. The snapshot
// shares no memory with the engine.
func (e *GameEngine) GetState() *GameState {
	snapshot := *e.state
	snapshot.Grid = Grid(e.state.Grid).Clone()
	snapshot.SelectedIDs = append([]string{}, e.state.SelectedIDs...)
	snapshot.HighScore = e.records.Best()
	return &snapshot
}

// SetState replaces the game state (used by tests and hosts restoring a view)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	ids := make(map[string]bool, len(state.Grid))
	cells := make(map[[2]int]string, len(state.Grid))
	for _, t := range state.Grid {
		if t.Row < 0 || t.Row >= e.config.Rows || t.Col < 0 || t.Col >= e.config.Cols {
			return fmt.Errorf("tile %s at (%d,%d) is outside the %dx%d grid", t.ID, t.Row, t.Col, e.config.Rows, e.config.Cols)
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate tile id %s", t.ID)
		}
		cell := [2]int{t.Row, t.Col}
		if other, ok := cells[cell]; ok {
			return fmt.Errorf("tiles %s and %s both occupy (%d,%d)", other, t.ID, t.Row, t.Col)
		}
		ids[t.ID] = true
		cells[cell] = t.ID
	}

	next := *state
	next.Grid = Grid(state.Grid).Clone()
	next.SelectedIDs = append([]string{}, state.SelectedIDs...)
	next.ConfigName = e.config.Name
	next.Cols = e.config.Cols
	next.Rows = e.config.Rows
	e.state = &next
	return nil
}

// Start begins a fresh session in the given mode. It is also the retry path
// from GAMEOVER and may be called from any status.
func (e *GameEngine) Start(mode Mode) (*GameState, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	grid := GenerateInitialGrid(e.config, e)

	e.state = e.menuState()
	e.state.Grid = grid
	e.state.Mode = mode
	e.state.Status = StatusPlaying
	e.state.Target = e.NextTarget(grid)

	return e.GetState(), nil
}

// Reset returns to MENU from any status. The last grid stays visible.
func (e *GameEngine) Reset() *GameState {
	e.state.Status = StatusMenu
	e.state.SelectedIDs = []string{}
	return e.GetState()
}

// SelectTile toggles id in the selection and evaluates the result immediately.
// Outside PLAYING it is a no-op. Ids that are not in the grid are recorded in
// the selection but never contribute to the sum.
func (e *GameEngine) SelectTile(id string) SelectionResult {
	if e.state.Status != StatusPlaying {
		return SelectionResult{Outcome: OutcomeIgnored, Target: e.state.Target}
	}

	e.state.SelectedIDs = Toggle(e.state.SelectedIDs, id)
	return e.evaluate()
}

// evaluate resolves the current selection: match, overshoot or continue
func (e *GameEngine) evaluate() SelectionResult {
	grid := Grid(e.state.Grid)
	target := e.state.Target
	result := SelectionResult{Outcome: OutcomeContinue, Target: target}

	if len(e.state.SelectedIDs) == 0 {
		return result
	}

	outcome, sum := Evaluate(grid, e.state.SelectedIDs, target)
	result.Outcome = outcome
	result.Sum = sum

	switch outcome {
	case OutcomeMatch:
		cleared := grid.Select(e.state.SelectedIDs)
		remaining := RemoveTiles(grid, e.state.SelectedIDs)

		result.Cleared = cleared
		result.ScoreDelta = len(e.state.SelectedIDs) * e.config.PointsPerTile

		e.state.Grid = remaining
		e.state.SelectedIDs = []string{}
		e.state.Score += result.ScoreDelta
		e.state.HighScore, result.NewRecord = e.records.Submit(e.state.Score)
		e.state.Target = e.NextTarget(remaining)

		if e.state.Mode == ModeClassic {
			overflow := e.injectRow()
			result.RowInjected = !overflow
			result.GameOver = overflow
		}

	case OutcomeOvershoot:
		e.state.SelectedIDs = []string{}
	}

	return result
}

// Tick advances the TIME mode countdown by one interval. When the countdown
// would reach zero a row is injected instead and the countdown restarts.
func (e *GameEngine) Tick() TickResult {
	if e.state.Status != StatusPlaying || e.state.Mode != ModeTime {
		return TickResult{TimeLeft: e.state.TimeLeft}
	}

	result := TickResult{Applied: true}
	if e.state.TimeLeft <= 1 {
		overflow := e.injectRow()
		result.RowInjected = !overflow
		result.GameOver = overflow
	} else {
		e.state.TimeLeft--
	}

	result.TimeLeft = e.state.TimeLeft
	return result
}

// InjectRow forces a row injection. It reports true on overflow, in which case
// the grid is unchanged and the status is GAMEOVER.
func (e *GameEngine) InjectRow() bool {
	if e.state.Status != StatusPlaying {
		return false
	}
	return e.injectRow()
}

// injectRow is the single path that moves tiles vertically. The countdown is
// reset to the full budget whatever the mode or result.
func (e *GameEngine) injectRow() bool {
	grid, overflow := InjectRow(e.state.Grid, e.config, e)
	e.state.TimeLeft = e.config.TimeLimit
	if overflow {
		e.state.Status = StatusGameOver
		e.state.SelectedIDs = []string{}
		return true
	}
	e.state.Grid = grid
	return false
}

// IsPlaying returns whether the session is in PLAYING status
func (e *GameEngine) IsPlaying() bool {
	return e.state.Status == StatusPlaying
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.Status == StatusGameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetTarget returns the current target
func (e *GameEngine) GetTarget() int {
	return e.state.Target
}

// GetHighScore returns the process-wide record
func (e *GameEngine) GetHighScore() int {
	return e.records.Best()
}

// GetStatus returns the lifecycle status
func (e *GameEngine) GetStatus() Status {
	return e.state.Status
}

// GetMode returns the mode of the current or last session
func (e *GameEngine) GetMode() Mode {
	return e.state.Mode
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and returns to MENU
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = e.menuState()
	return nil
}
