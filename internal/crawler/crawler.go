// Package crawler flattens a block tree into one record per block.
package crawler

import (
	"encoding/json"

	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/summary"
)

// BlockInfo is the flattened view of one block. Absent values stay nil and
// are omitted from JSON.
type BlockInfo struct {
	BlockID       string   `json:"block_id" yaml:"block_id"`
	Flavour       string   `json:"flavour" yaml:"flavour"`
	Content       []string `json:"content,omitempty" yaml:"content,omitempty"`
	Blob          []string `json:"blob,omitempty" yaml:"blob,omitempty"`
	RefDocID      []string `json:"ref_doc_id,omitempty" yaml:"ref_doc_id,omitempty"`
	RefInfo       []string `json:"ref_info,omitempty" yaml:"ref_info,omitempty"`
	ParentFlavour *string  `json:"parent_flavour,omitempty" yaml:"parent_flavour,omitempty"`
	ParentBlockID *string  `json:"parent_block_id,omitempty" yaml:"parent_block_id,omitempty"`
	Additional    *string  `json:"additional,omitempty" yaml:"additional,omitempty"`
}

// Result is the crawl of a whole document.
type Result struct {
	Blocks  []BlockInfo `json:"blocks" yaml:"blocks"`
	Title   string      `json:"title" yaml:"title"`
	Summary string      `json:"summary" yaml:"summary"`
}

type options struct {
	summaryLimit int
}

// Option configures a crawl.
type Option func(*options)

// WithSummaryLimit sets the summary length in runes.
func WithSummaryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.summaryLimit = n
		}
	}
}

// Crawl visits the tree from the root in pre-order and emits one record per
// reachable block. It never fails; malformed blocks yield partial records.
func Crawl(d *doctree.Document, opts ...Option) *Result {
	o := options{summaryLimit: summary.DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}

	res := &Result{Blocks: []BlockInfo{}, Title: doctree.Title(d)}
	var paragraphs []string
	d.Walk(func(b, parent *doctree.Block, _ int) bool {
		info := BlockInfo{BlockID: b.ID, Flavour: b.Flavour}
		if parent != nil {
			info.ParentFlavour = ptr(parent.Flavour)
			info.ParentBlockID = ptr(parent.ID)
		}
		ruleFor(b.Flavour)(d, b, &info)
		if info.RefDocID == nil {
			setRefs(&info, b.References())
		}
		res.Blocks = append(res.Blocks, info)
		if inSummary(b) {
			paragraphs = append(paragraphs, info.Content...)
		}
		return true
	})
	res.Summary = summary.Summarize(paragraphs, o.summaryLimit)
	return res
}

// inSummary reports whether a block's content feeds the summary: body text
// paragraphs, list items and callouts.
func inSummary(b *doctree.Block) bool {
	switch b.Flavour {
	case doctree.FlavourParagraph:
		return doctree.HeadingLevel(b) == 0
	case doctree.FlavourList, "affine:callout":
		return true
	}
	return false
}

func setRefs(info *BlockInfo, refs []doctree.Reference) {
	if len(refs) == 0 {
		return
	}
	info.RefDocID = make([]string, len(refs))
	info.RefInfo = make([]string, len(refs))
	for i, r := range refs {
		info.RefDocID[i] = r.DocID
		info.RefInfo[i] = r.Info
	}
}

func setAdditional(info *BlockInfo, v map[string]any) {
	if len(v) == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	info.Additional = ptr(string(b))
}

func ptr(s string) *string { return &s }
