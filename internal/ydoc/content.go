package ydoc

import (
	"unicode/utf16"

	"github.com/pkg/errors"
)

// Content refs of the v1 item encoding (info & 0x1f).
const (
	refGC      = 0
	refDeleted = 1
	refJSON    = 2
	refBinary  = 3
	refString  = 4
	refEmbed   = 5
	refFormat  = 6
	refType    = 7
	refAny     = 8
	refDoc     = 9
	refSkip    = 10
)

// content is the payload of an item. Length is measured in clock units.
type content interface {
	length() uint64
	countable() bool
	// values returns the user visible values the content contributes to an
	// array or map.
	values() []any
	// splice cuts the content at offset, keeping the left half in the
	// receiver and returning the right half.
	splice(offset uint64) content
}

type deletedContent struct{ n uint64 }

func (c *deletedContent) length() uint64 { return c.n }
func (c *deletedContent) countable() bool { return false }
func (c *deletedContent) values() []any { return nil }
func (c *deletedContent) splice(offset uint64) content {
	right := &deletedContent{n: c.n - offset}
	c.n = offset
	return right
}

// anyContent covers both the Any and the legacy JSON encodings.
type anyContent struct{ arr []any }

func (c *anyContent) length() uint64 { return uint64(len(c.arr)) }
func (c *anyContent) countable() bool { return true }
func (c *anyContent) values() []any { return c.arr }
func (c *anyContent) splice(offset uint64) content {
	right := &anyContent{arr: append([]any(nil), c.arr[offset:]...)}
	c.arr = c.arr[:offset]
	return right
}

type binaryContent struct{ b []byte }

func (c *binaryContent) length() uint64 { return 1 }
func (c *binaryContent) countable() bool { return true }
func (c *binaryContent) values() []any { return []any{c.b} }
func (c *binaryContent) splice(uint64) content { panic("ydoc: binary content cannot be split") }

// stringContent keeps UTF-16 code units so clocks line up with the encoder.
type stringContent struct{ units []uint16 }

func newStringContent(s string) *stringContent {
	return &stringContent{units: utf16.Encode([]rune(s))}
}

func (c *stringContent) length() uint64 { return uint64(len(c.units)) }
func (c *stringContent) countable() bool { return true }
func (c *stringContent) String() string { return string(utf16.Decode(c.units)) }

func (c *stringContent) values() []any {
	out := make([]any, 0, len(c.units))
	for _, r := range utf16.Decode(c.units) {
		out = append(out, string(r))
	}
	return out
}

func (c *stringContent) splice(offset uint64) content {
	left := append([]uint16(nil), c.units[:offset]...)
	right := append([]uint16(nil), c.units[offset:]...)
	// A split surrogate pair is replaced on both sides.
	if len(left) > 0 && utf16.IsSurrogate(rune(left[len(left)-1])) && left[len(left)-1] < 0xdc00 {
		left[len(left)-1] = 0xfffd
		if len(right) > 0 {
			right[0] = 0xfffd
		}
	}
	c.units = left
	return &stringContent{units: right}
}

type embedContent struct{ v any }

func (c *embedContent) length() uint64 { return 1 }
func (c *embedContent) countable() bool { return true }
func (c *embedContent) values() []any { return []any{c.v} }
func (c *embedContent) splice(uint64) content { panic("ydoc: embed content cannot be split") }

type formatContent struct {
	key   string
	value any
}

func (c *formatContent) length() uint64 { return 1 }
func (c *formatContent) countable() bool { return false }
func (c *formatContent) values() []any { return nil }
func (c *formatContent) splice(uint64) content { panic("ydoc: format content cannot be split") }

type typeContent struct{ t *Type }

func (c *typeContent) length() uint64 { return 1 }
func (c *typeContent) countable() bool { return true }
func (c *typeContent) values() []any { return []any{c.t} }
func (c *typeContent) splice(uint64) content { panic("ydoc: type content cannot be split") }

// SubDoc is a reference to an embedded document. Its content is not part of
// the update.
type SubDoc struct {
	GUID string
	Opts any
}

type docContent struct{ d *SubDoc }

func (c *docContent) length() uint64 { return 1 }
func (c *docContent) countable() bool { return true }
func (c *docContent) values() []any { return []any{c.d} }
func (c *docContent) splice(uint64) content { panic("ydoc: doc content cannot be split") }

func readContent(r *reader, ref byte) (content, error) {
	switch ref {
	case refDeleted:
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		return &deletedContent{n: n}, nil
	case refJSON:
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.remaining()) {
			return nil, r.fail("json content", ErrTruncated)
		}
		arr := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := r.readJSON()
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return &anyContent{arr: arr}, nil
	case refBinary:
		b, err := r.readVarUint8Array()
		if err != nil {
			return nil, err
		}
		return &binaryContent{b: b}, nil
	case refString:
		s, err := r.readVarString()
		if err != nil {
			return nil, err
		}
		return newStringContent(s), nil
	case refEmbed:
		v, err := r.readJSON()
		if err != nil {
			return nil, err
		}
		return &embedContent{v: v}, nil
	case refFormat:
		key, err := r.readVarString()
		if err != nil {
			return nil, err
		}
		v, err := r.readJSON()
		if err != nil {
			return nil, err
		}
		return &formatContent{key: key, value: v}, nil
	case refType:
		t, err := readTypeRef(r)
		if err != nil {
			return nil, err
		}
		return &typeContent{t: t}, nil
	case refAny:
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.remaining()) {
			return nil, r.fail("any content", ErrTruncated)
		}
		arr := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := r.readAny()
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return &anyContent{arr: arr}, nil
	case refDoc:
		guid, err := r.readVarString()
		if err != nil {
			return nil, err
		}
		opts, err := r.readAny()
		if err != nil {
			return nil, err
		}
		return &docContent{d: &SubDoc{GUID: guid, Opts: opts}}, nil
	default:
		return nil, r.fail("item content", errors.Wrapf(ErrUnknownContent, "ref %d", ref))
	}
}

func readTypeRef(r *reader) (*Type, error) {
	ref, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if ref > uint64(KindXmlText-1) {
		return nil, r.fail("type content", errors.Wrapf(ErrUnknownType, "ref %d", ref))
	}
	t := newType(Kind(ref + 1))
	if t.kind == KindXmlElement || t.kind == KindXmlHook {
		if t.name, err = r.readVarString(); err != nil {
			return nil, err
		}
	}
	return t, nil
}
