package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docparse/internal/crawler"
	"github.com/dgallion1/docparse/internal/parser"
	"github.com/dgallion1/docparse/internal/pipeline"
	"github.com/dgallion1/docparse/internal/summary"
)

func docIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "doc-id",
		Usage: "document id, derived from the content when empty",
	}
}

func crawlCommand() *cli.Command {
	return &cli.Command{
		Name:      "crawl",
		Usage:     "list the blocks of a document with its title and summary",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			docIDFlag(),
			&cli.IntFlag{Name: "summary-limit", Usage: "summary length in runes", Value: summary.DefaultLimit},
		},
		Action: func(ctx *cli.Context) error {
			data, docID, err := readInput(ctx)
			if err != nil {
				return err
			}
			res, err := parser.ParseDocFromBinary(data, docID, crawler.WithSummaryLimit(ctx.Int("summary-limit")))
			if err != nil {
				return err
			}
			slog.Debug("crawled document", "doc_id", docID, "blocks", len(res.Blocks))
			return write(ctx, res)
		},
	}
}

func markdownCommand() *cli.Command {
	return &cli.Command{
		Name:      "markdown",
		Usage:     "render a document as Markdown",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			docIDFlag(),
			&cli.BoolFlag{Name: "ai-editable", Usage: "tag editable blocks with their id"},
			&cli.BoolFlag{Name: "raw", Usage: "print the Markdown only"},
		},
		Action: func(ctx *cli.Context) error {
			data, docID, err := readInput(ctx)
			if err != nil {
				return err
			}
			res, err := parser.ParseDocToMarkdown(data, docID, ctx.Bool("ai-editable"))
			if err != nil {
				return err
			}
			if ctx.Bool("raw") {
				_, err := io.WriteString(ctx.App.Writer, res.Markdown)
				return errors.WithStack(err)
			}
			return write(ctx, res)
		},
	}
}

func idsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ids",
		Usage:     "list the doc ids referenced by a workspace root document",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-trash", Usage: "include trashed documents"},
		},
		Action: func(ctx *cli.Context) error {
			data, _, err := readInput(ctx)
			if err != nil {
				return err
			}
			ids, err := parser.ReadAllDocIDsFromRootDoc(data, ctx.Bool("include-trash"))
			if err != nil {
				return err
			}
			return write(ctx, map[string]any{"doc_ids": ids})
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "summarize a Markdown file, such as the output of markdown --raw",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "summary length in runes", Value: summary.DefaultLimit},
		},
		Action: func(ctx *cli.Context) error {
			data, _, err := readInput(ctx)
			if err != nil {
				return err
			}
			return write(ctx, map[string]any{"summary": summary.FromMarkdown(data, ctx.Int("limit"))})
		},
	}
}

// readInput reads FILE, or stdin for "-", and resolves the doc id.
func readInput(ctx *cli.Context) ([]byte, string, error) {
	if ctx.NArg() != 1 {
		return nil, "", errors.New("expected exactly one FILE argument")
	}
	name := ctx.Args().First()

	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(ctx.App.Reader)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", name)
	}

	docID := ctx.String("doc-id")
	if docID == "" {
		docID = pipeline.DocIDFor(data)
	}
	slog.Info("read input", "file", filepath.Base(name), "size", humanize.Bytes(uint64(len(data))), "doc_id", docID)
	return data, docID, nil
}

func write(ctx *cli.Context, v any) error {
	w := ctx.App.Writer
	switch strings.ToLower(ctx.String("format")) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(enc.Close())
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(v))
	}
}
