package doctree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgallion1/docparse/internal/ydoc"
)

// Well known flavours.
const (
	FlavourPage      = "affine:page"
	FlavourParagraph = "affine:paragraph"
	FlavourList      = "affine:list"
)

var (
	// ErrNotFound is returned when a block id is absent from the document.
	ErrNotFound = errors.New("block not found")
	// ErrNoRoot is returned when the document holds no blocks at all.
	ErrNoRoot = errors.New("document has no root block")
)

// Block is one node of the block tree.
type Block struct {
	ID       string         // Map key in the blocks root
	Flavour  string         // sys:flavour, empty when missing
	Version  int            // sys:version
	Children []string       // Ordered child ids as encoded, including dangling ones
	Props    map[string]any // prop:* values with the prefix stripped
}

// PageMeta is a page entry of a workspace root document.
type PageMeta struct {
	ID    string
	Title string
	Trash bool
}

// Document is the decoded block tree. It is read-only after Build.
type Document struct {
	ID     string     // Caller supplied document id
	Pages  []PageMeta // meta.pages, only present on workspace root documents
	Issues []string   // Soft problems found while building

	root    string
	blocks  map[string]*Block
	parents map[string]string
	ids     []string
}

// Build reads the block tree out of a decoded document. Malformed entries are
// skipped and recorded in Issues.
func Build(doc *ydoc.Doc, docID string) *Document {
	d := &Document{
		ID:      docID,
		blocks:  make(map[string]*Block),
		parents: make(map[string]string),
	}
	if n := doc.Pending(); n > 0 {
		d.issue("%d structs have missing dependencies", n)
	}
	if blocks := doc.Get("blocks"); blocks != nil {
		for _, key := range blocks.Keys() {
			v, _ := blocks.Get(key)
			m, ok := v.(*ydoc.Type)
			if !ok || m.Kind() != ydoc.KindMap {
				d.issue("block %s: entry is not a map", key)
				continue
			}
			d.blocks[key] = d.readBlock(key, m)
			d.ids = append(d.ids, key)
		}
	}
	d.linkParents()
	d.root = d.pickRoot()
	d.Pages = readPages(doc)
	return d
}

func (d *Document) issue(format string, args ...any) {
	d.Issues = append(d.Issues, fmt.Sprintf(format, args...))
}

func (d *Document) readBlock(key string, m *ydoc.Type) *Block {
	b := &Block{ID: key, Props: make(map[string]any)}
	if v, ok := m.Get("sys:flavour"); ok {
		b.Flavour, _ = v.(string)
	}
	if b.Flavour == "" {
		d.issue("block %s: missing flavour", key)
	}
	if v, ok := m.Get("sys:version"); ok {
		if f, ok := v.(float64); ok {
			b.Version = int(f)
		}
	}
	if v, ok := m.Get("sys:children"); ok {
		var list []any
		switch c := v.(type) {
		case *ydoc.Type:
			list = c.Values()
		case []any:
			list = c
		}
		for _, c := range list {
			s, ok := c.(string)
			if !ok {
				d.issue("block %s: non-string child %v", key, c)
				continue
			}
			b.Children = append(b.Children, s)
		}
	}
	for _, k := range m.Keys() {
		if name, ok := strings.CutPrefix(k, "prop:"); ok {
			b.Props[name], _ = m.Get(k)
		}
	}
	return b
}

func (d *Document) linkParents() {
	for _, id := range d.ids {
		for _, c := range d.blocks[id].Children {
			switch prev, claimed := d.parents[c]; {
			case d.blocks[c] == nil:
				d.issue("block %s: dangling child %s", id, c)
			case c == id:
				d.issue("block %s: lists itself as child", id)
			case claimed && prev != id:
				d.issue("block %s: child %s already belongs to %s", id, c, prev)
			case !claimed:
				d.parents[c] = id
			}
		}
	}
}

func (d *Document) pickRoot() string {
	var anyPage, parentless string
	for _, id := range d.ids {
		b := d.blocks[id]
		_, hasParent := d.parents[id]
		if b.Flavour == FlavourPage {
			if !hasParent {
				return id
			}
			if anyPage == "" {
				anyPage = id
			}
		}
		if !hasParent && parentless == "" {
			parentless = id
		}
	}
	switch {
	case anyPage != "":
		return anyPage
	case parentless != "":
		return parentless
	case len(d.ids) > 0:
		return d.ids[0]
	}
	return ""
}

func readPages(doc *ydoc.Doc) []PageMeta {
	meta := doc.Get("meta")
	if meta == nil {
		return nil
	}
	v, ok := meta.Get("pages")
	if !ok {
		return nil
	}
	var entries []any
	switch p := v.(type) {
	case *ydoc.Type:
		entries = p.Values()
	case []any:
		entries = p
	}
	var pages []PageMeta
	for _, e := range entries {
		m, ok := plain(e).(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		if id == "" {
			continue
		}
		title, _ := m["title"].(string)
		trash, _ := m["trash"].(bool)
		pages = append(pages, PageMeta{ID: id, Title: title, Trash: trash})
	}
	return pages
}

// Len returns the number of blocks.
func (d *Document) Len() int { return len(d.blocks) }

// Root returns the root block.
func (d *Document) Root() (*Block, error) {
	if d.root == "" {
		return nil, errors.WithStack(ErrNoRoot)
	}
	return d.blocks[d.root], nil
}

// Lookup returns the block with the given id.
func (d *Document) Lookup(id string) (*Block, error) {
	b, ok := d.blocks[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "block %q", id)
	}
	return b, nil
}

// Parent returns the structural parent of id, or nil for the root and for
// orphans.
func (d *Document) Parent(id string) (*Block, error) {
	if _, ok := d.blocks[id]; !ok {
		return nil, errors.Wrapf(ErrNotFound, "block %q", id)
	}
	p, ok := d.parents[id]
	if !ok {
		return nil, nil
	}
	return d.blocks[p], nil
}

// Children returns the ordered children of id that belong to it. Dangling
// ids and children claimed by another parent are skipped.
func (d *Document) Children(id string) []*Block {
	b, ok := d.blocks[id]
	if !ok {
		return nil
	}
	var out []*Block
	for _, c := range b.Children {
		if d.parents[c] == id {
			out = append(out, d.blocks[c])
		}
	}
	return out
}

// WalkFunc is called for every block in pre-order. Returning false skips the
// block's children.
type WalkFunc func(b, parent *Block, depth int) bool

// Walk visits the tree from the root in pre-order, parent before children.
func (d *Document) Walk(fn WalkFunc) {
	if d.root == "" {
		return
	}
	d.walk(d.blocks[d.root], nil, 0, make(map[string]bool), fn)
}

func (d *Document) walk(b, parent *Block, depth int, seen map[string]bool, fn WalkFunc) {
	if seen[b.ID] {
		return
	}
	seen[b.ID] = true
	if !fn(b, parent, depth) {
		return
	}
	for _, c := range d.Children(b.ID) {
		d.walk(c, b, depth+1, seen, fn)
	}
}

// All returns every block: the tree reachable from the root in pre-order,
// then the remaining subtrees by ascending id.
func (d *Document) All() []*Block {
	out := make([]*Block, 0, len(d.blocks))
	seen := make(map[string]bool, len(d.blocks))
	collect := func(b, _ *Block, _ int) bool {
		out = append(out, b)
		return true
	}
	if d.root != "" {
		d.walk(d.blocks[d.root], nil, 0, seen, collect)
	}
	for _, id := range d.ids {
		if !seen[id] {
			p, _ := d.Parent(id)
			d.walk(d.blocks[id], p, 0, seen, collect)
		}
	}
	return out
}

// Value returns the prop converted to plain Go values.
func (b *Block) Value(key string) any {
	return plain(b.Props[key])
}

// String returns a text, string or number prop as a string.
func (b *Block) String(key string) string {
	switch v := b.Props[key].(type) {
	case string:
		return v
	case *ydoc.Type:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Bool reports a boolean prop, false when absent.
func (b *Block) Bool(key string) bool {
	v, _ := b.Props[key].(bool)
	return v
}

// Number returns a numeric prop.
func (b *Block) Number(key string) (float64, bool) {
	switch v := b.Props[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Has reports whether the prop is set to a non-nil value.
func (b *Block) Has(key string) bool {
	return b.Props[key] != nil
}

// PropKeys returns the prop names in sorted order.
func (b *Block) PropKeys() []string {
	keys := make([]string, 0, len(b.Props))
	for k := range b.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func plain(v any) any {
	switch v := v.(type) {
	case *ydoc.Type:
		return v.ToJSON()
	case *ydoc.SubDoc:
		return map[string]any{"guid": v.GUID}
	}
	return v
}
