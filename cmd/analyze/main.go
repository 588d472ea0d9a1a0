// Command analyze plays simulated CLASSIC rounds on every rule preset and
// prints how long a greedy player survives. It highlights presets whose
// targets are often out of reach of the tiles on the grid.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sumstack/game/engine"
)

// candidateLimit bounds the combinations considered per move
const candidateLimit = 50

// Ending is why a simulated round stopped
type Ending string

const (
	EndingOverflow Ending = "overflow"
	EndingStuck    Ending = "stuck"
	EndingCap      Ending = "cap"
)

// Report summarizes the simulated rounds of one preset
type Report struct {
	Name            string
	Games           int
	ReachableStarts int
	Endings         map[Ending]int
	TotalMatches    int
	TotalScore      int
	BestScore       int
}

// MeanMatches is the average number of matches per round
func (r Report) MeanMatches() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalMatches) / float64(r.Games)
}

// MeanScore is the average final score per round
func (r Report) MeanScore() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.Games)
}

// simulate plays one CLASSIC round with the greedy strategy. It returns the
// ending, the number of matches and the final score, plus whether the first
// target was reachable.
func simulate(config *engine.GameConfig, rng *rand.Rand, maxMatches int) (Ending, int, int, bool, error) {
	e, err := engine.NewEngine(config, nil, engine.WithRand(rng))
	if err != nil {
		return "", 0, 0, false, err
	}
	state, err := e.Start(engine.ModeClassic)
	if err != nil {
		return "", 0, 0, false, err
	}

	reachableStart := len(engine.FindCombinations(state.Grid, state.Target, 1)) > 0

	matches := 0
	for matches < maxMatches {
		state = e.GetState()
		ids := engine.BestCombination(state.Grid, state.Target, candidateLimit)
		if ids == nil {
			// CLASSIC only injects on a match, so nothing can change the target
			return EndingStuck, matches, state.Score, reachableStart, nil
		}
		for _, id := range ids {
			e.SelectTile(id)
		}
		matches++
		if e.IsGameOver() {
			return EndingOverflow, matches, e.GetScore(), reachableStart, nil
		}
	}
	return EndingCap, matches, e.GetScore(), reachableStart, nil
}

// analyzePreset simulates games rounds of config from a fixed seed
func analyzePreset(config *engine.GameConfig, games int, seed int64, maxMatches int) (Report, error) {
	report := Report{Name: config.Name, Games: games, Endings: make(map[Ending]int)}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < games; i++ {
		ending, matches, score, reachable, err := simulate(config, rng, maxMatches)
		if err != nil {
			return report, err
		}
		report.Endings[ending]++
		report.TotalMatches += matches
		report.TotalScore += score
		if score > report.BestScore {
			report.BestScore = score
		}
		if reachable {
			report.ReachableStarts++
		}
	}
	return report, nil
}

func writeReport(w io.Writer, config *engine.GameConfig, r Report) {
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Grid: %d x %d, %d starting rows\n", config.Cols, config.Rows, config.InitialRows)
	fmt.Fprintf(w, "Tiles: %d-%d  Targets: %d-%d\n", config.MinTileValue, config.MaxTileValue, config.MinTarget, config.MaxTarget)
	fmt.Fprintf(w, "Reachable first target: %d/%d\n", r.ReachableStarts, r.Games)
	fmt.Fprintf(w, "Endings: overflow=%d stuck=%d cap=%d\n", r.Endings[EndingOverflow], r.Endings[EndingStuck], r.Endings[EndingCap])
	fmt.Fprintf(w, "Mean matches: %.1f  Mean score: %.1f  Best score: %d\n", r.MeanMatches(), r.MeanScore(), r.BestScore)

	if r.Games > 0 && r.Endings[EndingStuck]*4 > r.Games {
		fmt.Fprintf(w, "WARNING: over a quarter of rounds reach a target no tile set can match\n")
	}
}

// presetFiles lists the preset files in dir, sorted
func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "simulate rounds on SumStack presets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "rounds per preset"},
			&cli.IntFlag{Name: "max-matches", Value: 500, Usage: "stop a round after this many matches"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "random seed"},
		},
		ExitErrHandler: func(ctx context.Context, cmd *cli.Command, err error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := presetFiles(cmd.String("config-dir"))
			if err != nil {
				return err
			}

			for _, path := range files {
				fmt.Fprintf(stdout, "\n=== Analyzing %s ===\n", filepath.Base(path))
				config, err := engine.LoadGameConfig(path)
				if err != nil {
					fmt.Fprintf(stdout, "Error: %v\n", err)
					continue
				}
				report, err := analyzePreset(config, int(cmd.Int("games")), int64(cmd.Int("seed")), int(cmd.Int("max-matches")))
				if err != nil {
					fmt.Fprintf(stdout, "Error: %v\n", err)
					continue
				}
				writeReport(stdout, config, report)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
