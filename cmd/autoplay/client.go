package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/sumstack/game/engine"
	"github.com/wricardo/sumstack/game/service"
)

// Client talks to one session of a SumStack server over REST
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(data, &errResp) == nil && errResp["error"] != "" {
			return fmt.Errorf("%s %s: %s", method, path, errResp["error"])
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession creates a session and makes it the client's session
func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var info service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume attaches the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var info service.SessionInfo
	if err := c.do(ctx, "GET", c.sessionPath(""), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Start(ctx context.Context, mode engine.Mode) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "POST", c.sessionPath("/start"), map[string]string{"mode": string(mode)}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) State(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "GET", c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) SelectMany(ctx context.Context, ids []string) (*service.BulkSelectResult, error) {
	var result service.BulkSelectResult
	if err := c.do(ctx, "POST", c.sessionPath("/select-many"), map[string][]string{"tile_ids": ids}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, "POST", c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// stateMessage is the subset of a push the player reads
type stateMessage struct {
	Event     string            `json:"event"`
	Cause     string            `json:"cause"`
	GameState *engine.GameState `json:"game_state"`
}

// Subscribe opens the session's WebSocket and delivers every pushed state.
// The channel is closed when the connection ends or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context) (<-chan *engine.GameState, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"session": {c.sessionID}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	updates := make(chan *engine.GameState, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(updates)
		defer conn.Close()
		for {
			var msg stateMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.GameState == nil {
				continue
			}
			select {
			case updates <- msg.GameState:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates, nil
}
