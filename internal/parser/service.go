package parser

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/dgallion1/docparse/internal/crawler"
	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/markdown"
	"github.com/dgallion1/docparse/internal/metrics"
	"github.com/dgallion1/docparse/internal/refs"
	"github.com/dgallion1/docparse/internal/stats"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks github.com/dgallion1/docparse/internal/parser Service

// Service runs the parse operations with logging and instrumentation.
type Service interface {
	Crawl(ctx context.Context, bin []byte, docID string) (*crawler.Result, error)
	Markdown(ctx context.Context, bin []byte, docID string, aiEditable bool) (*markdown.Result, error)
	DocIDs(ctx context.Context, bin []byte, includeTrash bool) ([]string, error)
	Stats() map[string]stats.Snapshot
}

// Parser is the default Service.
type Parser struct {
	log     *slog.Logger
	latency *stats.Latency
	opts    []crawler.Option
}

func New(log *slog.Logger, latency *stats.Latency, opts ...crawler.Option) *Parser {
	if latency == nil {
		latency = stats.NewLatency(time.Hour)
	}
	return &Parser{log: log, latency: latency, opts: opts}
}

func (p *Parser) Crawl(ctx context.Context, bin []byte, docID string) (*crawler.Result, error) {
	var res *crawler.Result
	err := p.run(ctx, metrics.OpCrawl, bin, docID, true, func(d *doctree.Document) {
		res = crawler.Crawl(d, p.opts...)
	})
	return res, err
}

func (p *Parser) Markdown(ctx context.Context, bin []byte, docID string, aiEditable bool) (*markdown.Result, error) {
	var res *markdown.Result
	err := p.run(ctx, metrics.OpMarkdown, bin, docID, true, func(d *doctree.Document) {
		res = markdown.Render(d, aiEditable)
	})
	return res, err
}

func (p *Parser) DocIDs(ctx context.Context, bin []byte, includeTrash bool) ([]string, error) {
	var ids []string
	err := p.run(ctx, metrics.OpDocIDs, bin, "", false, func(d *doctree.Document) {
		ids = refs.CollectDocIDs(d, includeTrash)
	})
	return ids, err
}

func (p *Parser) Stats() map[string]stats.Snapshot {
	return p.latency.Snapshot()
}

func (p *Parser) run(ctx context.Context, op string, bin []byte, docID string, needRoot bool, fn func(*doctree.Document)) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	log := p.log.With("op", op, "doc_id", docID, "bytes", humanize.Bytes(uint64(len(bin))))
	start := time.Now()
	metrics.ParseTotal.WithLabelValues(op).Inc()
	metrics.ParseBytes.Observe(float64(len(bin)))

	var d *doctree.Document
	var err error
	if needRoot {
		d, err = loadRooted(bin, docID)
	} else {
		d, err = Load(bin, docID)
	}
	if err != nil {
		metrics.ParseErrors.WithLabelValues(op).Inc()
		log.Warn("decode failed", "error", err)
		return err
	}
	for _, issue := range d.Issues {
		log.Debug("malformed block data", "issue", issue)
	}

	fn(d)
	elapsed := time.Since(start)
	p.latency.Record(op, elapsed)
	metrics.ParseDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	metrics.Blocks.Add(float64(d.Len()))
	log.Info("parsed document", "blocks", d.Len(), "duration_ms", elapsed.Milliseconds())
	return nil
}
