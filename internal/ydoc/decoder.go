package ydoc

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Tags of the lib0 Any encoding.
const (
	anyUndefined = 127
	anyNull      = 126
	anyInteger   = 125
	anyFloat32   = 124
	anyFloat64   = 123
	anyBigInt    = 122
	anyFalse     = 121
	anyTrue      = 120
	anyString    = 119
	anyObject    = 118
	anyArray     = 117
	anyBytes     = 116
)

// maxAnyDepth bounds nesting of Any objects and arrays.
const maxAnyDepth = 512

// reader walks a lib0 encoded buffer. Every method fails instead of panicking
// when the buffer is too short.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) fail(where string, err error) error {
	return errors.WithStack(&Error{Offset: r.pos, Where: where, Err: err})
}

func (r *reader) readUint8() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, r.fail("uint8", ErrTruncated)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readVarUint() (uint64, error) {
	var num uint64
	var shift uint
	for {
		if r.pos >= len(r.buf) {
			return 0, r.fail("varuint", ErrTruncated)
		}
		b := r.buf[r.pos]
		r.pos++
		if shift >= 64 || (shift == 63 && b&0x7f > 1) {
			return 0, r.fail("varuint", ErrOverflow)
		}
		num |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return num, nil
		}
		shift += 7
	}
}

// readVarInt decodes the lib0 signed varint: the first byte carries the
// continuation bit, the sign bit and six value bits.
func (r *reader) readVarInt() (int64, error) {
	b, err := r.readUint8()
	if err != nil {
		return 0, err
	}
	num := uint64(b & 0x3f)
	negative := b&0x40 != 0
	shift := uint(6)
	for b&0x80 != 0 {
		if b, err = r.readUint8(); err != nil {
			return 0, err
		}
		if shift > 62 {
			return 0, r.fail("varint", ErrOverflow)
		}
		num |= uint64(b&0x7f) << shift
		shift += 7
	}
	if num > math.MaxInt64 {
		return 0, r.fail("varint", ErrOverflow)
	}
	if negative {
		return -int64(num), nil
	}
	return int64(num), nil
}

func (r *reader) readBytes(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, r.fail("bytes", ErrTruncated)
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *reader) readVarUint8Array() ([]byte, error) {
	n, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	b, err := r.readBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *reader) readVarString() (string, error) {
	n, err := r.readVarUint()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) readJSON() (any, error) {
	s, err := r.readVarString()
	if err != nil {
		return nil, err
	}
	return parseJSON(s, r)
}

func parseJSON(s string, r *reader) (any, error) {
	if s == "undefined" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, r.fail("json", errors.Wrap(ErrInvalidJSON, err.Error()))
	}
	return v, nil
}

func (r *reader) readAny() (any, error) {
	return r.readAnyDepth(0)
}

func (r *reader) readAnyDepth(depth int) (any, error) {
	if depth > maxAnyDepth {
		return nil, r.fail("any", ErrOverflow)
	}
	tag, err := r.readUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case anyUndefined, anyNull:
		return nil, nil
	case anyInteger:
		n, err := r.readVarInt()
		if err != nil {
			return nil, err
		}
		return float64(n), nil
	case anyFloat32:
		b, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case anyFloat64:
		b, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case anyBigInt:
		b, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case anyFalse:
		return false, nil
	case anyTrue:
		return true, nil
	case anyString:
		return r.readVarString()
	case anyObject:
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.remaining()) {
			return nil, r.fail("any object", ErrTruncated)
		}
		obj := make(map[string]any, n)
		for i := uint64(0); i < n; i++ {
			key, err := r.readVarString()
			if err != nil {
				return nil, err
			}
			val, err := r.readAnyDepth(depth + 1)
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		return obj, nil
	case anyArray:
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.remaining()) {
			return nil, r.fail("any array", ErrTruncated)
		}
		arr := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			val, err := r.readAnyDepth(depth + 1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case anyBytes:
		return r.readVarUint8Array()
	default:
		r.pos--
		return nil, r.fail("any", errors.Wrapf(ErrUnknownAny, "tag %d", tag))
	}
}
