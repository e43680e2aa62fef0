// Package ydoctest encodes v1 updates for tests. It writes exactly what the
// decoder reads and nothing more.
package ydoctest

import (
	"encoding/binary"
	"math"
	"sort"
)

// Encoder writes lib0 primitives.
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteUint8(b byte) { e.buf = append(e.buf, b) }

// WriteRaw appends b without a length prefix.
func (e *Encoder) WriteRaw(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) WriteVarUint(n uint64) {
	for n > 0x7f {
		e.buf = append(e.buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
	e.buf = append(e.buf, byte(n))
}

func (e *Encoder) WriteVarInt(n int64) {
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	b := byte(u & 0x3f)
	if neg {
		b |= 0x40
	}
	u >>= 6
	if u > 0 {
		b |= 0x80
	}
	e.buf = append(e.buf, b)
	for u > 0 {
		b = byte(u & 0x7f)
		u >>= 7
		if u > 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
	}
}

func (e *Encoder) WriteVarString(s string) {
	e.WriteVarUint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) WriteVarUint8Array(b []byte) {
	e.WriteVarUint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteAny encodes v with the lib0 Any encoding. Integral numbers that fit a
// safe integer use the varint form. Object keys are written sorted.
func (e *Encoder) WriteAny(v any) {
	switch v := v.(type) {
	case nil:
		e.WriteUint8(126)
	case bool:
		if v {
			e.WriteUint8(120)
		} else {
			e.WriteUint8(121)
		}
	case int:
		e.WriteUint8(125)
		e.WriteVarInt(int64(v))
	case int64:
		e.WriteUint8(125)
		e.WriteVarInt(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= 1<<53 {
			e.WriteUint8(125)
			e.WriteVarInt(int64(v))
			return
		}
		e.WriteUint8(123)
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
	case string:
		e.WriteUint8(119)
		e.WriteVarString(v)
	case []byte:
		e.WriteUint8(116)
		e.WriteVarUint8Array(v)
	case []any:
		e.WriteUint8(117)
		e.WriteVarUint(uint64(len(v)))
		for _, x := range v {
			e.WriteAny(x)
		}
	case []string:
		e.WriteUint8(117)
		e.WriteVarUint(uint64(len(v)))
		for _, x := range v {
			e.WriteAny(x)
		}
	case map[string]any:
		e.WriteUint8(118)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.WriteVarUint(uint64(len(keys)))
		for _, k := range keys {
			e.WriteVarString(k)
			e.WriteAny(v[k])
		}
	default:
		e.WriteUint8(127)
	}
}
