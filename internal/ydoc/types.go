package ydoc

import (
	"reflect"
	"sort"
	"strings"
)

// Kind is the shared type of a node. Root types created only by reference
// stay KindUnknown; their contents still read as map or sequence.
type Kind int

const (
	KindUnknown Kind = iota
	KindArray
	KindMap
	KindText
	KindXmlElement
	KindXmlFragment
	KindXmlHook
	KindXmlText
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindText:
		return "text"
	case KindXmlElement:
		return "xml-element"
	case KindXmlFragment:
		return "xml-fragment"
	case KindXmlHook:
		return "xml-hook"
	case KindXmlText:
		return "xml-text"
	default:
		return "unknown"
	}
}

// Type is a shared type after integration. It is read-only.
type Type struct {
	kind     Kind
	name     string
	item     *item
	start    *item
	mapItems map[string]*item
}

func newType(kind Kind) *Type {
	return &Type{kind: kind, mapItems: make(map[string]*item)}
}

// Kind returns the declared kind of t.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the node name of an xml element or hook, or the root name.
func (t *Type) Name() string { return t.name }

// Get returns the live value stored under key.
func (t *Type) Get(key string) (any, bool) {
	it := t.mapItems[key]
	if it == nil || it.deleted {
		return nil, false
	}
	vals := it.content.values()
	if len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// Keys returns the live map keys in sorted order.
func (t *Type) Keys() []string {
	keys := make([]string, 0, len(t.mapItems))
	for k, it := range t.mapItems {
		if !it.deleted {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Values returns the live sequence elements in document order. Text yields
// one string per character.
func (t *Type) Values() []any {
	var out []any
	for n := t.start; n != nil; n = n.right {
		if n.deleted || !n.content.countable() {
			continue
		}
		out = append(out, n.content.values()...)
	}
	return out
}

// Len returns the number of live sequence elements.
func (t *Type) Len() int {
	var n int
	for it := t.start; it != nil; it = it.right {
		if !it.deleted && it.content.countable() {
			n += int(it.content.length())
		}
	}
	return n
}

// String concatenates the live text of t.
func (t *Type) String() string {
	var sb strings.Builder
	for n := t.start; n != nil; n = n.right {
		if n.deleted {
			continue
		}
		switch c := n.content.(type) {
		case *stringContent:
			sb.WriteString(c.String())
		case *typeContent:
			if c.t.kind == KindXmlText || c.t.kind == KindXmlElement {
				sb.WriteString(c.t.String())
			}
		}
	}
	return sb.String()
}

// Op is one run of a rich text delta.
type Op struct {
	Insert     any
	Attributes map[string]any
}

// Delta returns the text as runs of equal formatting. Strings are merged;
// embeds and nested types are single ops.
func (t *Type) Delta() []Op {
	var ops []Op
	attrs := map[string]any{}
	var sb strings.Builder

	snapshot := func() map[string]any {
		if len(attrs) == 0 {
			return nil
		}
		out := make(map[string]any, len(attrs))
		for k, v := range attrs {
			out[k] = v
		}
		return out
	}
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		a := snapshot()
		s := sb.String()
		sb.Reset()
		if n := len(ops); n > 0 {
			if prev, ok := ops[n-1].Insert.(string); ok && reflect.DeepEqual(ops[n-1].Attributes, a) {
				ops[n-1].Insert = prev + s
				return
			}
		}
		ops = append(ops, Op{Insert: s, Attributes: a})
	}

	for n := t.start; n != nil; n = n.right {
		if n.deleted {
			continue
		}
		switch c := n.content.(type) {
		case *stringContent:
			sb.WriteString(c.String())
		case *formatContent:
			flush()
			if c.value == nil {
				delete(attrs, c.key)
			} else {
				attrs[c.key] = c.value
			}
		case *embedContent:
			flush()
			ops = append(ops, Op{Insert: c.v, Attributes: snapshot()})
		case *typeContent:
			flush()
			ops = append(ops, Op{Insert: c.t, Attributes: snapshot()})
		}
	}
	flush()
	return ops
}

// ToJSON converts t and everything below it into plain Go values: maps
// become map[string]any, sequences []any, text a string.
func (t *Type) ToJSON() any {
	switch t.kind {
	case KindMap:
		return t.mapJSON()
	case KindArray:
		return t.arrayJSON()
	case KindText, KindXmlText, KindXmlElement, KindXmlFragment:
		return t.String()
	case KindUnknown:
		if len(t.mapItems) > 0 && t.start == nil {
			return t.mapJSON()
		}
		if t.start != nil {
			if t.startsWithText() {
				return t.String()
			}
			return t.arrayJSON()
		}
		return nil
	default:
		return nil
	}
}

func (t *Type) startsWithText() bool {
	for n := t.start; n != nil; n = n.right {
		switch n.content.(type) {
		case *stringContent, *formatContent:
			return true
		}
	}
	return false
}

func (t *Type) mapJSON() map[string]any {
	out := make(map[string]any)
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		out[k] = toJSON(v)
	}
	return out
}

func (t *Type) arrayJSON() []any {
	vals := t.Values()
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = toJSON(v)
	}
	return out
}

func toJSON(v any) any {
	switch v := v.(type) {
	case *Type:
		return v.ToJSON()
	case *SubDoc:
		return map[string]any{"guid": v.GUID}
	default:
		return v
	}
}
