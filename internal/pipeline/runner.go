// Package pipeline crawls batches of independent documents concurrently.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/dgallion1/docparse/internal/crawler"
	"github.com/dgallion1/docparse/internal/parser"
)

// Status is the outcome of one batch item.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Item is one document of a batch.
type Item struct {
	Name  string
	DocID string // Derived from the content when empty
	Data  []byte
}

// Outcome is the crawl of one item. Outcomes keep the order of the items.
type Outcome struct {
	Name        string          `json:"name"`
	DocID       string          `json:"doc_id"`
	ContentHash string          `json:"content_hash"`
	Status      Status          `json:"status"`
	Result      *crawler.Result `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Runner crawls batch items with bounded concurrency. Each item is decoded
// into its own document; nothing is shared between items.
type Runner struct {
	svc     parser.Service
	log     *slog.Logger
	workers int
}

func NewRunner(svc parser.Service, log *slog.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{svc: svc, log: log, workers: workers}
}

// Run crawls every item and returns one outcome per item. Items not started
// before ctx is done are reported as canceled.
func (r *Runner) Run(ctx context.Context, items []Item) []Outcome {
	out := make([]Outcome, len(items))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, it := range items {
		out[i] = Outcome{Name: it.Name, DocID: it.DocID, ContentHash: ContentHashHex(it.Data)}
		if out[i].DocID == "" {
			out[i].DocID = DocIDFor(it.Data)
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			out[i].Status = StatusCanceled
			out[i].Error = ctx.Err().Error()
			continue
		}
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			defer func() { <-sem }()
			r.process(ctx, &out[i], data)
		}(i, it.Data)
	}
	wg.Wait()

	failed := 0
	for _, o := range out {
		if o.Status != StatusCompleted {
			failed++
		}
	}
	r.log.Info("batch complete", "items", len(items), "failed", failed)
	return out
}

func (r *Runner) process(ctx context.Context, o *Outcome, data []byte) {
	log := r.log.With("name", o.Name, "doc_id", o.DocID, "size", humanize.Bytes(uint64(len(data))))
	res, err := r.svc.Crawl(ctx, data, o.DocID)
	if err != nil {
		log.Warn("batch item failed", "error", err)
		o.Status = StatusFailed
		o.Error = err.Error()
		return
	}
	o.Status = StatusCompleted
	o.Result = res
}
