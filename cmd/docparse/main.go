package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/dgallion1/docparse/internal/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("docparse failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docparse",
		Usage: "inspect block documents stored as binary updates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"DOCPARSE_LOG_LEVEL"},
				Usage:   "Set logging level",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: json or yaml",
				Value:   "json",
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := config.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05.000",
			})))
			switch f := ctx.String("format"); f {
			case "json", "yaml":
				return nil
			default:
				return errors.Errorf("unknown format %q", f)
			}
		},
		Commands: []*cli.Command{
			crawlCommand(),
			markdownCommand(),
			idsCommand(),
			summaryCommand(),
		},
	}
}
