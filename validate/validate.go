// Command validate checks every rule preset (JSON or YAML) in a directory and
// prints a report. It exits non-zero when any preset is invalid.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sumstack/game/config"
)

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate SumStack rule presets",
		ArgsUsage: "[dir]",
		// Exit codes are handled by main
		ExitErrHandler: func(ctx context.Context, cmd *cli.Command, err error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "../configs",
				Usage:   "directory containing presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("config-dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			results, err := config.ValidateDir(dir)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			fmt.Fprintf(stdout, "Validating presets in %s\n\n", dir)
			if invalid := config.WriteReport(stdout, results); invalid > 0 {
				return cli.Exit(fmt.Sprintf("%d invalid preset(s)", invalid), 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}
	return 1
}
