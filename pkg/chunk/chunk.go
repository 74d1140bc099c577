// Package chunk walks tagged, length-prefixed binary records.
//
// Two record layouts are supported: the 3D Studio layout (2-byte little-endian
// tag, 4-byte length counting the 6-byte header) and the IFF layout used by
// LightWave objects (4-byte ASCII tag, big-endian length counting only the
// payload, with 4-byte lengths at the top level and 2-byte lengths inside
// surface records).
package chunk

import (
	"encoding/binary"
	"fmt"
)

// ID identifies a chunk. 3D Studio tags use the low 16 bits; IFF tags pack
// their four ASCII bytes big-endian (see Tag).
type ID uint32

// Tag packs a four character IFF tag into an ID.
func Tag(s string) ID {
	var b [4]byte
	copy(b[:], s)
	return ID(binary.BigEndian.Uint32(b[:]))
}

// String returns the tag as text for IFF tags, or as hex for numeric tags.
func (id ID) String() string {
	if id > 0xFFFF {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(id))
		return string(b[:])
	}
	return fmt.Sprintf("0x%04X", uint32(id))
}

// Span is a half-open byte range [Start, End) into a buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes in the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// From returns the part of the span starting at off.
func (s Span) From(off int) Span {
	if off < s.Start {
		off = s.Start
	}
	if off > s.End {
		off = s.End
	}
	return Span{Start: off, End: s.End}
}

func (s Span) clamp(n int) Span {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.End > n {
		s.End = n
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

// Layout describes a chunk header encoding.
type Layout struct {
	Order     binary.ByteOrder
	TagSize   int  // 2 or 4
	LenSize   int  // 2 or 4
	Inclusive bool // stored length counts the header too
}

// HeaderSize returns the number of bytes before a chunk's payload.
func (l Layout) HeaderSize() int {
	return l.TagSize + l.LenSize
}

// Chunk layouts.
var (
	Studio = Layout{Order: binary.LittleEndian, TagSize: 2, LenSize: 4, Inclusive: true}
	IFF    = Layout{Order: binary.BigEndian, TagSize: 4, LenSize: 4}
	IFFSub = Layout{Order: binary.BigEndian, TagSize: 4, LenSize: 2}
)

// Chunk is a located record: its tag and the range of its payload.
type Chunk struct {
	ID      ID
	Payload Span
}

// Reader locates chunks within a buffer. It never recurses on its own;
// callers descend by searching inside a returned payload.
type Reader struct {
	buf    []byte
	layout Layout
}

// NewReader returns a reader over buf using the given header layout.
func NewReader(buf []byte, layout Layout) *Reader {
	return &Reader{buf: buf, layout: layout}
}

// Cursor returns a primitive decoder over s using the reader's byte order.
func (r *Reader) Cursor(s Span) *Cursor {
	return NewCursor(r.buf, s, r.layout.Order)
}

// header decodes the chunk header at off. It reports false when there is no
// room for a header or the stored length cannot describe a valid record.
func (r *Reader) header(off, end int) (id ID, payload Span, ok bool) {
	l := r.layout
	hs := l.HeaderSize()
	if end-off < hs {
		return 0, Span{}, false
	}
	b := r.buf[off:]
	if l.TagSize == 2 {
		id = ID(l.Order.Uint16(b))
	} else {
		id = ID(binary.BigEndian.Uint32(b))
	}
	var n int64
	if l.LenSize == 2 {
		n = int64(l.Order.Uint16(b[l.TagSize:]))
	} else {
		n = int64(l.Order.Uint32(b[l.TagSize:]))
	}
	if l.Inclusive {
		n -= int64(hs)
	}
	if n < 0 {
		return 0, Span{}, false
	}
	start := off + hs
	stop := int64(start) + n
	if stop > int64(end) {
		stop = int64(end)
	}
	return id, Span{Start: start, End: int(stop)}, true
}

// Walk visits each top-level chunk in s in order until fn returns false or
// the range is exhausted. Chunks whose declared length overruns the range are
// truncated to it and end the walk.
func (r *Reader) Walk(s Span, fn func(c Chunk) bool) {
	s = s.clamp(len(r.buf))
	off := s.Start
	for off < s.End {
		id, payload, ok := r.header(off, s.End)
		if !ok {
			return
		}
		if !fn(Chunk{ID: id, Payload: payload}) {
			return
		}
		off = payload.End
	}
}

// Find returns the payload of the first top-level chunk in s tagged id.
func (r *Reader) Find(s Span, id ID) (Span, bool) {
	c, ok := r.FindAny(s, id)
	return c.Payload, ok
}

// FindAny returns the first top-level chunk in s whose tag is one of ids.
func (r *Reader) FindAny(s Span, ids ...ID) (Chunk, bool) {
	var found Chunk
	var ok bool
	r.Walk(s, func(c Chunk) bool {
		for _, id := range ids {
			if c.ID == id {
				found, ok = c, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// All returns the payloads of every top-level chunk in s tagged id.
func (r *Reader) All(s Span, id ID) []Span {
	var out []Span
	r.Walk(s, func(c Chunk) bool {
		if c.ID == id {
			out = append(out, c.Payload)
		}
		return true
	})
	return out
}
