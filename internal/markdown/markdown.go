// Package markdown renders a block tree as Markdown.
package markdown

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docparse/internal/doctree"
)

// Result is a rendered document.
type Result struct {
	Title    string `json:"title" yaml:"title"`
	Markdown string `json:"markdown" yaml:"markdown"`
}

// Render walks the tree in pre-order and renders each block with the rule of
// its flavour. With aiEditable set, blocks of editable flavours are preceded
// by a marker comment naming the block.
func Render(d *doctree.Document, aiEditable bool) *Result {
	c := &Context{
		Doc:        d,
		AIEditable: aiEditable,
		seen:       make(map[string]bool),
	}
	if root, err := d.Root(); err == nil {
		c.render(root)
	}
	c.flushMarkers()
	return &Result{Title: doctree.Title(d), Markdown: c.String()}
}

// Context carries the output and the nesting state of one render.
type Context struct {
	Doc        *doctree.Document
	AIEditable bool

	sb      strings.Builder
	indent  string
	quote   string
	last    string
	started bool
	tight   bool
	markers []string
	seen    map[string]bool
}

// String returns the Markdown written so far with a single trailing newline.
func (c *Context) String() string {
	out := strings.TrimRight(c.sb.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func (c *Context) render(b *doctree.Block) {
	if c.seen[b.ID] {
		return
	}
	c.seen[b.ID] = true
	c.flushMarkers()

	rule := ruleFor(b.Flavour)
	if c.AIEditable && rule.Editable {
		c.markers = append(c.markers, Marker(b))
	}
	rule.Render(c, b)
	if !rule.OwnsChildren {
		c.RenderChildren(b)
	}
	c.flushMarkers()
}

// flushMarkers writes the markers of blocks without output on their own line.
func (c *Context) flushMarkers() {
	if len(c.markers) > 0 {
		c.Write(c.tight)
	}
}

// Marker is the comment that tags an editable block.
func Marker(b *doctree.Block) string {
	return fmt.Sprintf("<!-- block_id=%s flavour=%s -->", b.ID, b.Flavour)
}

// RenderChildren renders the children of b in order.
func (c *Context) RenderChildren(b *doctree.Block) {
	for _, child := range c.Doc.Children(b.ID) {
		c.render(child)
	}
}

// Nested runs fn with extra indentation for every line it writes.
func (c *Context) Nested(extra string, fn func()) {
	prev := c.indent
	c.indent += extra
	fn()
	c.indent = prev
}

// Quoted runs fn with every line it writes prefixed by "> ".
func (c *Context) Quoted(fn func()) {
	prev := c.quote
	c.quote = c.quote + c.indent + "> "
	prevIndent := c.indent
	c.indent = ""
	fn()
	c.quote, c.indent = prev, prevIndent
}

// Write emits one fragment. Consecutive tight fragments are separated by a
// line break only, anything else by a blank line. Pending markers open the
// fragment.
func (c *Context) Write(tight bool, lines ...string) {
	if len(c.markers) > 0 {
		lines = append(c.markers, lines...)
		c.markers = nil
	}
	if len(lines) == 0 {
		return
	}
	prefix := c.quote + c.indent
	if c.started && !(c.tight && tight) {
		c.sb.WriteString(strings.TrimRight(commonPrefix(c.last, c.quote), " "))
		c.sb.WriteByte('\n')
	}
	for _, l := range lines {
		if l == "" {
			c.sb.WriteString(strings.TrimRight(prefix, " "))
		} else {
			c.sb.WriteString(prefix)
			c.sb.WriteString(l)
		}
		c.sb.WriteByte('\n')
	}
	c.started = true
	c.tight = tight
	c.last = c.quote
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
