package ydoctest

import (
	"encoding/json"
	"sort"
	"unicode/utf16"

	"github.com/dgallion1/docparse/internal/ydoc"
)

// Content is an item payload.
type Content interface {
	ref() byte
	length() uint64
	encode(e *Encoder)
}

type stringContent string

func (c stringContent) ref() byte { return 4 }
func (c stringContent) length() uint64 {
	return uint64(len(utf16.Encode([]rune(string(c)))))
}
func (c stringContent) encode(e *Encoder) { e.WriteVarString(string(c)) }

// String is text content. Its length is counted in UTF-16 units.
func String(s string) Content { return stringContent(s) }

type anyContent []any

func (c anyContent) ref() byte      { return 8 }
func (c anyContent) length() uint64 { return uint64(len(c)) }
func (c anyContent) encode(e *Encoder) {
	e.WriteVarUint(uint64(len(c)))
	for _, v := range c {
		e.WriteAny(v)
	}
}

// Any is a run of Any encoded values.
func Any(vals ...any) Content { return anyContent(vals) }

type jsonContent []any

func (c jsonContent) ref() byte      { return 2 }
func (c jsonContent) length() uint64 { return uint64(len(c)) }
func (c jsonContent) encode(e *Encoder) {
	e.WriteVarUint(uint64(len(c)))
	for _, v := range c {
		writeJSON(e, v)
	}
}

// JSON is the legacy JSON encoded value run.
func JSON(vals ...any) Content { return jsonContent(vals) }

type deletedContent uint64

func (c deletedContent) ref() byte         { return 1 }
func (c deletedContent) length() uint64    { return uint64(c) }
func (c deletedContent) encode(e *Encoder) { e.WriteVarUint(uint64(c)) }

// Deleted is a tombstone of n clock units.
func Deleted(n uint64) Content { return deletedContent(n) }

type binaryContent []byte

func (c binaryContent) ref() byte         { return 3 }
func (c binaryContent) length() uint64    { return 1 }
func (c binaryContent) encode(e *Encoder) { e.WriteVarUint8Array(c) }

func Binary(b []byte) Content { return binaryContent(b) }

type embedContent struct{ v any }

func (c embedContent) ref() byte         { return 5 }
func (c embedContent) length() uint64    { return 1 }
func (c embedContent) encode(e *Encoder) { writeJSON(e, c.v) }

func Embed(v any) Content { return embedContent{v} }

type formatContent struct {
	key string
	v   any
}

func (c formatContent) ref() byte      { return 6 }
func (c formatContent) length() uint64 { return 1 }
func (c formatContent) encode(e *Encoder) {
	e.WriteVarString(c.key)
	writeJSON(e, c.v)
}

// Format toggles a text attribute. A nil value ends it.
func Format(key string, v any) Content { return formatContent{key, v} }

type typeContent struct {
	kind ydoc.Kind
	name string
}

func (c typeContent) ref() byte      { return 7 }
func (c typeContent) length() uint64 { return 1 }
func (c typeContent) encode(e *Encoder) {
	e.WriteVarUint(uint64(c.kind - 1))
	if c.kind == ydoc.KindXmlElement || c.kind == ydoc.KindXmlHook {
		e.WriteVarString(c.name)
	}
}

// Type creates a nested shared type.
func Type(kind ydoc.Kind) Content { return typeContent{kind: kind} }

// XmlElement creates a named xml element type.
func XmlElement(name string) Content { return typeContent{kind: ydoc.KindXmlElement, name: name} }

type docContent struct {
	guid string
	opts any
}

func (c docContent) ref() byte      { return 9 }
func (c docContent) length() uint64 { return 1 }
func (c docContent) encode(e *Encoder) {
	e.WriteVarString(c.guid)
	e.WriteAny(c.opts)
}

func SubDoc(guid string, opts any) Content { return docContent{guid, opts} }

// RawContent writes ref followed by payload verbatim. Length is 1.
type RawContent struct {
	Ref     byte
	Payload []byte
}

func (c RawContent) ref() byte         { return c.Ref }
func (c RawContent) length() uint64    { return 1 }
func (c RawContent) encode(e *Encoder) { e.WriteRaw(c.Payload) }

func writeJSON(e *Encoder, v any) {
	if v == nil {
		e.WriteVarString("null")
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	e.WriteVarString(string(b))
}

// Item describes one insertion. Parent fields are only written when both
// origins are nil.
type Item struct {
	Origin      *ydoc.ID
	RightOrigin *ydoc.ID
	ParentName  string
	Parent      *ydoc.ID
	ParentSub   string
	Content     Content
}

// Client collects the structs of one client in clock order.
type Client struct {
	ID      uint64
	start   uint64
	clock   uint64
	structs int
	enc     Encoder
}

func NewClient(id uint64) *Client {
	return &Client{ID: id}
}

// StartAt moves the first clock of an empty client.
func (c *Client) StartAt(clock uint64) *Client {
	c.start, c.clock = clock, clock
	return c
}

// Clock is the next clock this client will assign.
func (c *Client) Clock() uint64 { return c.clock }

// Insert appends it and returns the id of its first clock unit.
func (c *Client) Insert(it Item) ydoc.ID {
	id := ydoc.ID{Client: c.ID, Clock: c.clock}
	info := it.Content.ref()
	if it.Origin != nil {
		info |= 0x80
	}
	if it.RightOrigin != nil {
		info |= 0x40
	}
	if it.ParentSub != "" {
		info |= 0x20
	}
	e := &c.enc
	e.WriteUint8(info)
	if it.Origin != nil {
		writeID(e, *it.Origin)
	}
	if it.RightOrigin != nil {
		writeID(e, *it.RightOrigin)
	}
	if it.Origin == nil && it.RightOrigin == nil {
		if it.Parent != nil {
			e.WriteVarUint(0)
			writeID(e, *it.Parent)
		} else {
			e.WriteVarUint(1)
			e.WriteVarString(it.ParentName)
		}
		if it.ParentSub != "" {
			e.WriteVarString(it.ParentSub)
		}
	}
	it.Content.encode(e)
	c.clock += it.Content.length()
	c.structs++
	return id
}

// GC appends a collected range of n units.
func (c *Client) GC(n uint64) {
	c.enc.WriteUint8(0)
	c.enc.WriteVarUint(n)
	c.clock += n
	c.structs++
}

// Skip appends a gap of n units.
func (c *Client) Skip(n uint64) {
	c.enc.WriteUint8(10)
	c.enc.WriteVarUint(n)
	c.clock += n
	c.structs++
}

// Last returns the id of the last clock unit written.
func (c *Client) Last() ydoc.ID {
	return ydoc.ID{Client: c.ID, Clock: c.clock - 1}
}

func writeID(e *Encoder, id ydoc.ID) {
	e.WriteVarUint(id.Client)
	e.WriteVarUint(id.Clock)
}

// Delete is one delete set range.
type Delete struct {
	Client uint64
	Clock  uint64
	Len    uint64
}

// Encode writes clients in the given order followed by the delete set.
func Encode(clients []*Client, deletes ...Delete) []byte {
	var e Encoder
	e.WriteVarUint(uint64(len(clients)))
	for _, c := range clients {
		e.WriteVarUint(uint64(c.structs))
		e.WriteVarUint(c.ID)
		e.WriteVarUint(c.start)
		e.WriteRaw(c.enc.Bytes())
	}

	byClient := make(map[uint64][]Delete)
	var order []uint64
	for _, d := range deletes {
		if _, ok := byClient[d.Client]; !ok {
			order = append(order, d.Client)
		}
		byClient[d.Client] = append(byClient[d.Client], d)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	e.WriteVarUint(uint64(len(order)))
	for _, client := range order {
		ds := byClient[client]
		e.WriteVarUint(client)
		e.WriteVarUint(uint64(len(ds)))
		for _, d := range ds {
			e.WriteVarUint(d.Clock)
			e.WriteVarUint(d.Len)
		}
	}
	return e.Bytes()
}
