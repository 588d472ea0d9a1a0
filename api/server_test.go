package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/sumstack/game/config"
	"github.com/wricardo/sumstack/game/engine"
	"github.com/wricardo/sumstack/game/service"
	"github.com/wricardo/sumstack/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	StartGameFunc   func(ctx context.Context, sessionID string, mode engine.Mode) (*engine.GameState, error)
	SelectTileFunc  func(ctx context.Context, sessionID, tileID string) (*service.SelectResult, error)
	SelectTilesFunc func(ctx context.Context, sessionID string, tileIDs []string) (*service.BulkSelectResult, error)
	ResetFunc       func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHighScoreFunc func(ctx context.Context) (int, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

var _ service.GameService = (*MockGameService)(nil)

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "ab12", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) StartGame(ctx context.Context, sessionID string, mode engine.Mode) (*engine.GameState, error) {
	if m.StartGameFunc != nil {
		return m.StartGameFunc(ctx, sessionID, mode)
	}
	return &engine.GameState{Status: engine.StatusPlaying, Mode: mode, Target: 12}, nil
}

func (m *MockGameService) SelectTile(ctx context.Context, sessionID, tileID string) (*service.SelectResult, error) {
	if m.SelectTileFunc != nil {
		return m.SelectTileFunc(ctx, sessionID, tileID)
	}
	return &service.SelectResult{TileID: tileID, Outcome: engine.OutcomeContinue}, nil
}

func (m *MockGameService) SelectTiles(ctx context.Context, sessionID string, tileIDs []string) (*service.BulkSelectResult, error) {
	if m.SelectTilesFunc != nil {
		return m.SelectTilesFunc(ctx, sessionID, tileIDs)
	}
	return &service.BulkSelectResult{Requested: len(tileIDs), Applied: len(tileIDs)}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{Status: engine.StatusMenu}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{Status: engine.StatusMenu}, nil
}

func (m *MockGameService) GetHighScore(ctx context.Context) (int, error) {
	if m.GetHighScoreFunc != nil {
		return m.GetHighScoreFunc(ctx)
	}
	return 0, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	cfg := engine.DefaultConfig()
	cfg.Name = configName
	return cfg, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, server *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %q", engine.ErrInvalidMode, "EASY"), http.StatusBadRequest},
		{fmt.Errorf("%w: cols", engine.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("%w: ..", config.ErrInvalidConfigName), http.StatusBadRequest},
		{service.ErrTooManySelections, http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedConfig string
	}{
		{
			name:           "default preset",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "named preset",
			body:           `{"config_id": "time-rush"}`,
			expectedStatus: http.StatusCreated,
			expectedConfig: "time-rush",
		},
		{
			name:           "bad body",
			body:           `{"config_id": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown preset",
			body: `{"config_id": "nope"}`,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(t, mockService)

			req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(tt.body))
			w := do(t, server, req)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if w.Code == http.StatusCreated {
				var info service.SessionInfo
				parseResponse(t, w, &info)
				assert.Equal(t, "ab12", info.ID)
				assert.Equal(t, tt.expectedConfig, info.ConfigName)
			} else {
				var body map[string]string
				parseResponse(t, w, &body)
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Minute)},
			{ID: "b", CreatedAt: base.Add(time.Minute), LastAccessedAt: base.Add(time.Minute)},
			{ID: "c", CreatedAt: base.Add(2 * time.Minute), LastAccessedAt: base.Add(2 * time.Minute)},
		}
	}

	tests := []struct {
		name     string
		query    string
		expected []string
		sort     string
		order    string
	}{
		{"default accessed desc", "", []string{"a", "c", "b"}, "accessed", "desc"},
		{"created asc", "?sort=created&order=asc", []string{"a", "b", "c"}, "created", "asc"},
		{"created desc limited", "?sort=created&limit=2", []string{"c", "b"}, "created", "desc"},
		{"bad values fall back", "?sort=bogus&order=up&limit=-1", []string{"a", "c", "b"}, "accessed", "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			})

			w := do(t, server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
				Sort     string                 `json:"sort"`
				Order    string                 `json:"order"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, len(resp.Sessions))
			for i, s := range resp.Sessions {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.expected, ids)
			assert.Equal(t, len(tt.expected), resp.Count)
			assert.Equal(t, 3, resp.Total)
			assert.Equal(t, tt.sort, resp.Sort)
			assert.Equal(t, tt.order, resp.Order)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := do(t, server, makeRequest("GET", "/api/sessions/ab12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	assert.Equal(t, "classic", info.ConfigName)

	w = do(t, server, makeRequest("GET", "/api/sessions/zz99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, server, makeRequest("DELETE", "/api/sessions/ab12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session ab12 deleted")

	w = do(t, server, makeRequest("DELETE", "/api/sessions/zz99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Game Operation Tests

func TestStartGame(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedMode   engine.Mode
	}{
		{"classic", map[string]string{"mode": "CLASSIC"}, http.StatusOK, engine.ModeClassic},
		{"lower case time", map[string]string{"mode": " time "}, http.StatusOK, engine.ModeTime},
		{"unknown mode", map[string]string{"mode": "ZEN"}, http.StatusBadRequest, ""},
		{"missing body", nil, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMode engine.Mode
			server := setupTestServer(t, &MockGameService{
				StartGameFunc: func(ctx context.Context, sessionID string, mode engine.Mode) (*engine.GameState, error) {
					gotMode = mode
					if !mode.Valid() {
						return nil, fmt.Errorf("%w: %q", engine.ErrInvalidMode, mode)
					}
					return &engine.GameState{Status: engine.StatusPlaying, Mode: mode, Target: 17}, nil
				},
			})

			w := do(t, server, makeRequest("POST", "/api/sessions/ab12/start", tt.body))
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if w.Code != http.StatusOK {
				return
			}

			var state engine.GameState
			parseResponse(t, w, &state)
			assert.Equal(t, tt.expectedMode, gotMode)
			assert.Equal(t, engine.StatusPlaying, state.Status)
			assert.Equal(t, 17, state.Target)
		})
	}
}

func TestSelectTile(t *testing.T) {
	var gotID string
	server := setupTestServer(t, &MockGameService{
		SelectTileFunc: func(ctx context.Context, sessionID, tileID string) (*service.SelectResult, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			gotID = tileID
			return &service.SelectResult{
				TileID:     tileID,
				Outcome:    engine.OutcomeMatch,
				Sum:        10,
				Target:     10,
				ScoreDelta: 20,
			}, nil
		},
	})

	w := do(t, server, makeRequest("POST", "/api/sessions/ab12/select", map[string]string{"tile_id": "t-3"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.SelectResult
	parseResponse(t, w, &result)
	assert.Equal(t, "t-3", gotID)
	assert.Equal(t, engine.OutcomeMatch, result.Outcome)
	assert.Equal(t, 20, result.ScoreDelta)

	w = do(t, server, makeRequest("POST", "/api/sessions/ab12/select", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, makeRequest("POST", "/api/sessions/zz99/select", map[string]string{"tile_id": "t-3"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectMany(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		SelectTilesFunc: func(ctx context.Context, sessionID string, tileIDs []string) (*service.BulkSelectResult, error) {
			if len(tileIDs) > service.MaxBulkSelections {
				return nil, service.ErrTooManySelections
			}
			return &service.BulkSelectResult{
				Requested: len(tileIDs),
				Applied:   len(tileIDs),
				Matches:   1,
			}, nil
		},
	})

	w := do(t, server, makeRequest("POST", "/api/sessions/ab12/select-many", map[string][]string{"tile_ids": {"a", "b"}}))
	require.Equal(t, http.StatusOK, w.Code)
	var result service.BulkSelectResult
	parseResponse(t, w, &result)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Matches)

	tooMany := make([]string, service.MaxBulkSelections+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("t-%d", i)
	}
	w = do(t, server, makeRequest("POST", "/api/sessions/ab12/select-many", map[string][]string{"tile_ids": tooMany}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetAndState(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Status: engine.StatusPlaying, Score: 40, Target: 15}, nil
		},
	})

	w := do(t, server, makeRequest("GET", "/api/sessions/ab12/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Equal(t, 40, state.Score)

	w = do(t, server, makeRequest("POST", "/api/sessions/ab12/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	assert.Equal(t, "Game reset successfully", resp.Message)
	assert.Equal(t, engine.StatusMenu, resp.State.Status)
}

func TestHighScore(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		GetHighScoreFunc: func(ctx context.Context) (int, error) { return 230, nil },
	})

	w := do(t, server, makeRequest("GET", "/api/highscore", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"high_score": 230}`, w.Body.String())
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved *engine.GameConfig
	server := setupTestServer(t, &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Filename: "classic.json", Cols: 6, Rows: 10}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
			}
			return engine.DefaultConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return err
			}
			saved = cfg
			return nil
		},
	})

	w := do(t, server, makeRequest("GET", "/api/configs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var infos []*service.ConfigInfo
	parseResponse(t, w, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, "classic", infos[0].ConfigID)

	w = do(t, server, makeRequest("GET", "/api/configs/classic", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cfg engine.GameConfig
	parseResponse(t, w, &cfg)
	assert.Equal(t, engine.DefaultCols, cfg.Cols)

	w = do(t, server, makeRequest("GET", "/api/configs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	good := engine.DefaultConfig()
	good.Name = "mine"
	w = do(t, server, makeRequest("POST", "/api/configs", good))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, saved)
	assert.Equal(t, "mine", saved.Name)

	bad := engine.DefaultConfig()
	bad.Name = "broken"
	bad.Cols = 0
	w = do(t, server, makeRequest("POST", "/api/configs", bad))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unnamed := engine.DefaultConfig()
	unnamed.Name = ""
	w = do(t, server, makeRequest("POST", "/api/configs", unnamed))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := do(t, server, makeRequest("GET", "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := do(t, server, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestWebSocketNotServedWithoutHub(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)
	w := do(t, server, httptest.NewRequest("GET", "/ws?session=ab12", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleMountsExtraHandler(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	server.Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := do(t, server, httptest.NewRequest("POST", "/mcp", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
