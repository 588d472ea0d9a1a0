package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/sumstack/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	notifier Notifier
	now      func() time.Time
}

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithNotifier pushes every state change to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		s.notifier = n
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// lookup finds a session and marks it accessed
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		TickerRunning:  sess.Ticker.Running(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// notify must be called with the session locked so pushes keep event order
func (s *gameServiceImpl) notify(sess *Session, event string, state *engine.GameState) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyState(sess.ID, event, state)
}

func (s *gameServiceImpl) event(eventType, message string) GameEvent {
	return GameEvent{Type: eventType, Message: message, Timestamp: s.now()}
}

// CreateSession creates a new game session in MENU status
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, ErrConfigNotFound)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	info := s.sessionInfo(sess)
	if configName != "" {
		info.ConfigName = configName
	}

	zap.L().Info("session created", zap.String("session_id", sess.ID), zap.String("config", info.ConfigName))
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops its countdown
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	zap.L().Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// StartGame starts or restarts play. Any running countdown is replaced; a new
// one runs only in TIME mode.
func (s *gameServiceImpl) StartGame(ctx context.Context, sessionID string, mode engine.Mode) (*engine.GameState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	state, err := sess.Engine.Start(mode)
	if err != nil {
		return nil, err
	}

	sess.Ticker.Stop()
	if mode == engine.ModeTime {
		sess.Ticker.Start(sess.Config.TickInterval(), func(gen uint64) {
			s.onTick(sess, gen)
		})
	}

	zap.L().Info("game started",
		zap.String("session_id", sess.ID),
		zap.String("mode", string(mode)),
		zap.Int("target", state.Target),
	)
	s.notify(sess, EventStart, state)
	return state, nil
}

// onTick runs on the session's tick goroutine
func (s *gameServiceImpl) onTick(sess *Session, gen uint64) {
	sess.Lock()
	defer sess.Unlock()

	// Discard ticks from a countdown that was stopped or replaced
	if !sess.Ticker.Active(gen) {
		return
	}

	result := sess.Engine.Tick()
	if !result.Applied {
		sess.Ticker.Stop()
		return
	}

	event := EventTick
	switch {
	case result.GameOver:
		event = EventGameOver
		sess.Ticker.Stop()
		zap.L().Info("game over", zap.String("session_id", sess.ID), zap.Int("score", sess.Engine.GetScore()))
	case result.RowInjected:
		event = EventRowInjected
	}

	s.notify(sess, event, sess.Engine.GetState())
}

// SelectTile toggles one tile and reports the evaluation
func (s *gameServiceImpl) SelectTile(ctx context.Context, sessionID, tileID string) (*SelectResult, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	result := s.applySelect(sess, tileID)
	s.notify(sess, primaryEvent(result.Events), result.GameState)
	return result, nil
}

// applySelect must be called with the session locked
func (s *gameServiceImpl) applySelect(sess *Session, tileID string) *SelectResult {
	res := sess.Engine.SelectTile(tileID)

	result := &SelectResult{
		TileID:      tileID,
		Outcome:     res.Outcome,
		Sum:         res.Sum,
		Target:      res.Target,
		ScoreDelta:  res.ScoreDelta,
		RowInjected: res.RowInjected,
		GameOver:    res.GameOver,
		NewRecord:   res.NewRecord,
	}

	switch res.Outcome {
	case engine.OutcomeIgnored:
		result.Message = fmt.Sprintf("Game is not in progress (status %s)", sess.Engine.GetStatus())
	case engine.OutcomeContinue:
		result.Message = fmt.Sprintf("Sum %d of %d", res.Sum, res.Target)
		result.Events = append(result.Events, s.event(EventSelect, result.Message))
	case engine.OutcomeOvershoot:
		result.Message = fmt.Sprintf("Overshoot: %d is over %d, selection cleared", res.Sum, res.Target)
		result.Events = append(result.Events, s.event(EventOvershoot, result.Message))
	case engine.OutcomeMatch:
		result.Message = fmt.Sprintf("Match! %d tiles cleared for %d points", len(res.Cleared), res.ScoreDelta)
		ev := s.event(EventMatch, result.Message)
		ev.Value = res.ScoreDelta
		for _, t := range res.Cleared {
			ev.TileIDs = append(ev.TileIDs, t.ID)
		}
		result.Events = append(result.Events, ev)
	}

	if res.NewRecord {
		ev := s.event(EventHighScore, fmt.Sprintf("New high score: %d", sess.Engine.GetHighScore()))
		ev.Value = sess.Engine.GetHighScore()
		result.Events = append(result.Events, ev)
	}
	if res.RowInjected {
		result.Events = append(result.Events, s.event(EventRowInjected, "A new row was pushed in"))
	}
	if res.GameOver {
		sess.Ticker.Stop()
		result.Message = "Game over: the stack reached the top"
		result.Events = append(result.Events, s.event(EventGameOver, result.Message))
		zap.L().Info("game over", zap.String("session_id", sess.ID), zap.Int("score", sess.Engine.GetScore()))
	}

	result.GameState = sess.Engine.GetState()
	return result
}

// primaryEvent names the most significant event of a step for pushes
func primaryEvent(events []GameEvent) string {
	rank := map[string]int{
		EventSelect:      1,
		EventOvershoot:   2,
		EventMatch:       3,
		EventHighScore:   4,
		EventRowInjected: 5,
		EventGameOver:    6,
	}
	best := EventSelect
	for _, ev := range events {
		if rank[ev.Type] > rank[best] {
			best = ev.Type
		}
	}
	return best
}

// SelectTiles toggles tiles in order, evaluating after each one, and stops
// as soon as the game leaves PLAYING
func (s *gameServiceImpl) SelectTiles(ctx context.Context, sessionID string, tileIDs []string) (*BulkSelectResult, error) {
	if len(tileIDs) > MaxBulkSelections {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManySelections, len(tileIDs), MaxBulkSelections)
	}

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	result := &BulkSelectResult{
		Requested: len(tileIDs),
		Steps:     []SelectStep{},
		Events:    []GameEvent{},
	}

	for i, tileID := range tileIDs {
		if !sess.Engine.IsPlaying() {
			result.StoppedReason = fmt.Sprintf("game is not in progress (status %s)", sess.Engine.GetStatus())
			result.StoppedOnStep = i + 1
			break
		}

		step := s.applySelect(sess, tileID)
		result.Applied++
		result.Steps = append(result.Steps, SelectStep{
			Idx:         i + 1,
			TileID:      tileID,
			Outcome:     step.Outcome,
			Sum:         step.Sum,
			Target:      step.Target,
			ScoreDelta:  step.ScoreDelta,
			RowInjected: step.RowInjected,
		})
		result.Events = append(result.Events, step.Events...)
		result.ScoreDelta += step.ScoreDelta
		if step.Outcome == engine.OutcomeMatch {
			result.Matches++
		}

		if step.GameOver {
			result.GameOver = true
			result.StoppedReason = "game over"
			result.StoppedOnStep = i + 1
			break
		}
	}

	result.GameState = sess.Engine.GetState()
	s.notify(sess, primaryEvent(result.Events), result.GameState)
	return result, nil
}

// Reset returns the session to MENU and stops its countdown
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Ticker.Stop()
	state := sess.Engine.Reset()
	s.notify(sess, EventReset, state)
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// GetHighScore returns the best score across all sessions
func (s *gameServiceImpl) GetHighScore(ctx context.Context) (int, error) {
	return s.sessions.Records().Best(), nil
}

// ListConfigs returns all available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
