// Command autoplay plays SumStack rounds against a running server through its
// REST API. It clears the combination reaching highest up the stack each
// move. In TIME mode it follows the session's WebSocket so it wakes up as soon
// as a new row arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/sumstack/game/engine"
)

// candidateLimit bounds the combinations considered per move
const candidateLimit = 50

// pollInterval is how often state is fetched when no push arrives
const pollInterval = 250 * time.Millisecond

// Ending is why a round stopped
type Ending string

const (
	EndingGameOver Ending = "game_over"
	EndingStuck    Ending = "stuck"
	EndingCap      Ending = "cap"
)

// RoundResult summarizes one played round
type RoundResult struct {
	Ending  Ending
	Matches int
	Score   int
}

// Player drives one session
type Player struct {
	client     *Client
	mode       engine.Mode
	delay      time.Duration
	maxMatches int
	updates    <-chan *engine.GameState
}

// PlayRound starts a round and plays until it ends
func (p *Player) PlayRound(ctx context.Context) (RoundResult, error) {
	var result RoundResult

	state, err := p.client.Start(ctx, p.mode)
	if err != nil {
		return result, err
	}

	for {
		result.Score = state.Score
		if state.Status == engine.StatusGameOver {
			result.Ending = EndingGameOver
			return result, nil
		}
		if p.maxMatches > 0 && result.Matches >= p.maxMatches {
			result.Ending = EndingCap
			return result, nil
		}

		ids := engine.BestCombination(state.Grid, state.Target, candidateLimit)
		if ids == nil {
			if p.mode == engine.ModeClassic {
				// Only a match injects a row in CLASSIC, so the grid can no longer change
				result.Ending = EndingStuck
				return result, nil
			}
			if state, err = p.waitForChange(ctx); err != nil {
				return result, err
			}
			continue
		}

		zap.L().Debug("selecting",
			zap.Int("target", state.Target),
			zap.Strings("tile_ids", ids),
		)
		bulk, err := p.client.SelectMany(ctx, ids)
		if err != nil {
			return result, err
		}
		result.Matches += bulk.Matches
		state = bulk.GameState

		if p.delay > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return result, err
			}
		}
	}
}

// waitForChange blocks until a push arrives or the poll interval passes, then
// fetches the authoritative state. Pushes only wake the player since buffered
// ones may be stale.
func (p *Player) waitForChange(ctx context.Context) (*engine.GameState, error) {
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case _, ok := <-p.updates:
		if !ok {
			p.updates = nil
		}
	case <-timer.C:
	}
	return p.client.State(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play SumStack rounds against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("SUMSTACK_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "play an existing session by ID"},
			&cli.StringFlag{Name: "mode", Value: string(engine.ModeClassic), Usage: "CLASSIC or TIME"},
			&cli.IntFlag{Name: "rounds", Value: 1, Usage: "rounds to play"},
			&cli.IntFlag{Name: "max-matches", Value: 1000, Usage: "stop a round after this many matches (0 = no limit)"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between moves"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	mode := engine.Mode(strings.ToUpper(cmd.String("mode")))
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", engine.ErrInvalidMode, cmd.String("mode"))
	}

	client := NewClient(cmd.String("url"))
	if id := cmd.String("continue"); id != "" {
		if _, err := client.Resume(ctx, id); err != nil {
			return err
		}
	} else if _, err := client.CreateSession(ctx, cmd.String("config")); err != nil {
		return err
	}
	logger.Info("playing", zap.String("session_id", client.SessionID()), zap.String("mode", string(mode)))

	player := &Player{
		client:     client,
		mode:       mode,
		delay:      cmd.Duration("delay"),
		maxMatches: int(cmd.Int("max-matches")),
	}
	if mode == engine.ModeTime {
		updates, err := client.Subscribe(ctx)
		if err != nil {
			logger.Warn("websocket unavailable, polling instead", zap.Error(err))
		} else {
			player.updates = updates
		}
	}

	best := 0
	for i := 1; i <= int(cmd.Int("rounds")); i++ {
		result, err := player.PlayRound(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if result.Score > best {
			best = result.Score
		}
		logger.Info("round finished",
			zap.Int("round", i),
			zap.String("ending", string(result.Ending)),
			zap.Int("matches", result.Matches),
			zap.Int("score", result.Score),
			zap.Int("best", best),
		)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
