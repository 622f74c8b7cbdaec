package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tsukisama9292/judgemicro/internal/harness"
	"github.com/tsukisama9292/judgemicro/internal/model"
)

func main() {
	cmd := &cli.Command{
		Name:      "harness",
		Usage:     "compile and run one judged test configuration",
		ArgsUsage: "<config_path> <out_path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lang",
				Usage: "language tag (c or cpp); detected from the workdir when unset",
			},
			&cli.BoolFlag{
				Name:  "skip-compile",
				Usage: "reuse the existing test_runner when the parameter schema matches",
			},
			&cli.IntFlag{
				Name:  "compile-timeout",
				Usage: "compile deadline in seconds",
				Value: model.DefaultCompileTimeoutS,
			},
			&cli.IntFlag{
				Name:  "exec-timeout",
				Usage: "execution deadline in seconds",
				Value: model.DefaultExecutionTimeoutS,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cli.Exit("usage: harness [flags] <config_path> <out_path>", harness.ExitInternal)
			}
			opts := harness.Options{
				ConfigPath:       cmd.Args().Get(0),
				OutPath:          cmd.Args().Get(1),
				Lang:             model.Language(cmd.String("lang")),
				SkipCompile:      cmd.Bool("skip-compile"),
				CompileTimeout:   time.Duration(cmd.Int("compile-timeout")) * time.Second,
				ExecutionTimeout: time.Duration(cmd.Int("exec-timeout")) * time.Second,
			}
			if code := harness.Run(ctx, opts); code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); !ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(harness.ExitInternal)
		}
	}
}
