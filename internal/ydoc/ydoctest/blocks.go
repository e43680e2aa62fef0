package ydoctest

import (
	"sort"

	"github.com/dgallion1/docparse/internal/ydoc"
)

// Run is a span of text sharing the same attributes.
type Run struct {
	Text  string
	Attrs map[string]any
}

// Text is written as a nested text type.
type Text []Run

// Plain is a Text with a single unformatted run.
func Plain(s string) Text { return Text{{Text: s}} }

// Map is written as a nested map type rather than an Any object.
type Map map[string]any

// Array is written as a nested array type rather than an Any array.
type Array []any

// Doc builds a block document the way the editor lays it out: a root map
// "blocks" keyed by block id and an optional root map "meta" with pages.
type Doc struct {
	c       *Client
	blocks  map[string]ydoc.ID
	pages   *ydoc.ID
	last    *ydoc.ID
	deletes []Delete
}

func NewDoc(client uint64) *Doc {
	return &Doc{c: NewClient(client), blocks: make(map[string]ydoc.ID)}
}

// Client exposes the underlying client for hand written structs.
func (d *Doc) Client() *Client { return d.c }

// Block adds a block map with its sys fields, props and children. Prop keys
// are written with the "prop:" prefix.
func (d *Doc) Block(id, flavour string, props map[string]any, children ...string) *Doc {
	m := d.c.Insert(Item{ParentName: "blocks", ParentSub: id, Content: Type(ydoc.KindMap)})
	d.blocks[id] = m
	d.set(m, "sys:id", id)
	d.set(m, "sys:flavour", flavour)
	d.set(m, "sys:version", 1)
	ch := d.c.Insert(Item{Parent: &m, ParentSub: "sys:children", Content: Type(ydoc.KindArray)})
	if len(children) > 0 {
		vals := make([]any, len(children))
		for i, c := range children {
			vals[i] = c
		}
		d.c.Insert(Item{Parent: &ch, Content: Any(vals...)})
	}
	for _, k := range sortedKeys(props) {
		d.set(m, "prop:"+k, props[k])
	}
	return d
}

// RawBlock stores v under the block id without any block structure.
func (d *Doc) RawBlock(id string, v any) *Doc {
	d.c.Insert(Item{ParentName: "blocks", ParentSub: id, Content: Any(v)})
	return d
}

// Page appends a workspace page entry to meta.pages.
func (d *Doc) Page(id, title string, trash bool) *Doc {
	if d.pages == nil {
		p := d.c.Insert(Item{ParentName: "meta", ParentSub: "pages", Content: Type(ydoc.KindArray)})
		d.pages = &p
	}
	var pm ydoc.ID
	if d.last == nil {
		pm = d.c.Insert(Item{Parent: d.pages, Content: Type(ydoc.KindMap)})
	} else {
		pm = d.c.Insert(Item{Origin: d.last, Content: Type(ydoc.KindMap)})
	}
	d.last = &pm
	d.set(pm, "id", id)
	d.set(pm, "title", title)
	if trash {
		d.set(pm, "trash", true)
	}
	return d
}

// DeleteBlock removes the block entry through the delete set.
func (d *Doc) DeleteBlock(id string) *Doc {
	if m, ok := d.blocks[id]; ok {
		d.deletes = append(d.deletes, Delete{Client: m.Client, Clock: m.Clock, Len: 1})
	}
	return d
}

// Encode returns the v1 update.
func (d *Doc) Encode() []byte {
	return Encode([]*Client{d.c}, d.deletes...)
}

func (d *Doc) set(parent ydoc.ID, key string, v any) {
	d.write(Item{Parent: &parent, ParentSub: key}, v)
}

// write inserts v at the position described by at and fills nested types.
func (d *Doc) write(at Item, v any) ydoc.ID {
	switch v := v.(type) {
	case Text:
		at.Content = Type(ydoc.KindText)
		t := d.c.Insert(at)
		d.writeText(t, v)
		return t
	case Map:
		at.Content = Type(ydoc.KindMap)
		m := d.c.Insert(at)
		for _, k := range sortedKeys(v) {
			d.set(m, k, v[k])
		}
		return m
	case Array:
		at.Content = Type(ydoc.KindArray)
		a := d.c.Insert(at)
		var prev *ydoc.ID
		for _, x := range v {
			el := Item{Parent: &a}
			if prev != nil {
				el = Item{Origin: prev}
			}
			id := d.write(el, x)
			prev = &id
		}
		return a
	default:
		at.Content = Any(v)
		return d.c.Insert(at)
	}
}

// writeText emits each run as format items around a string item. The first
// item carries the parent; the rest chain on the previous clock.
func (d *Doc) writeText(t ydoc.ID, runs Text) {
	first := true
	emit := func(c Content) {
		if first {
			d.c.Insert(Item{Parent: &t, Content: c})
			first = false
			return
		}
		last := d.c.Last()
		d.c.Insert(Item{Origin: &last, Content: c})
	}
	for _, r := range runs {
		keys := sortedKeys(r.Attrs)
		for _, k := range keys {
			emit(Format(k, r.Attrs[k]))
		}
		if r.Text != "" {
			emit(String(r.Text))
		}
		for _, k := range keys {
			emit(Format(k, nil))
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
