// Package parser is the boundary of the module: it decodes a document update
// and projects it into a crawl, Markdown or the referenced doc ids.
package parser

import (
	"fmt"

	"github.com/dgallion1/docparse/internal/crawler"
	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/markdown"
	"github.com/dgallion1/docparse/internal/refs"
	"github.com/dgallion1/docparse/internal/ydoc"
)

// DecodeError is the single failure category of the parse operations.
type DecodeError struct {
	DocID string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.DocID == "" {
		return fmt.Sprintf("decode root doc: %v", e.Err)
	}
	return fmt.Sprintf("decode doc %s: %v", e.DocID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Load decodes bin and builds its block tree.
func Load(bin []byte, docID string) (*doctree.Document, error) {
	doc, err := ydoc.Decode(bin)
	if err != nil {
		return nil, &DecodeError{DocID: docID, Err: err}
	}
	return doctree.Build(doc, docID), nil
}

func loadRooted(bin []byte, docID string) (*doctree.Document, error) {
	d, err := Load(bin, docID)
	if err != nil {
		return nil, err
	}
	if _, err := d.Root(); err != nil {
		return nil, &DecodeError{DocID: docID, Err: err}
	}
	return d, nil
}

// ParseDocFromBinary crawls the document in bin.
func ParseDocFromBinary(bin []byte, docID string, opts ...crawler.Option) (*crawler.Result, error) {
	d, err := loadRooted(bin, docID)
	if err != nil {
		return nil, err
	}
	return crawler.Crawl(d, opts...), nil
}

// ParseDocToMarkdown renders the document in bin as Markdown.
func ParseDocToMarkdown(bin []byte, docID string, aiEditable bool) (*markdown.Result, error) {
	d, err := loadRooted(bin, docID)
	if err != nil {
		return nil, err
	}
	return markdown.Render(d, aiEditable), nil
}

// ReadAllDocIDsFromRootDoc lists the doc ids referenced by a workspace root
// document. Documents without blocks are valid input.
func ReadAllDocIDsFromRootDoc(bin []byte, includeTrash bool) ([]string, error) {
	d, err := Load(bin, "")
	if err != nil {
		return nil, err
	}
	return refs.CollectDocIDs(d, includeTrash), nil
}
