package chunk

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is reported when a read runs past the end of a cursor's range.
var ErrShortBuffer = errors.New("chunk: read past end of buffer")

// Cursor decodes primitive values from a bounded range of a buffer.
// The first failed read sets a sticky error; later reads return zero values.
type Cursor struct {
	buf   []byte
	pos   int
	end   int
	order binary.ByteOrder
	err   error
}

// NewCursor returns a cursor over buf[s.Start:s.End] using the given byte order.
func NewCursor(buf []byte, s Span, order binary.ByteOrder) *Cursor {
	s = s.clamp(len(buf))
	return &Cursor{buf: buf, pos: s.Start, end: s.End, order: order}
}

// Err returns the first error encountered by the cursor.
func (c *Cursor) Err() error {
	return c.err
}

// Pos returns the absolute buffer offset of the next read.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return c.end - c.pos
}

// Rest returns the unread part of the cursor's range.
func (c *Cursor) Rest() Span {
	return Span{Start: c.pos, End: c.end}
}

// next reserves n bytes and returns them, or nil after setting the sticky error.
func (c *Cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.end-c.pos < n {
		c.err = ErrShortBuffer
		c.pos = c.end
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) {
	c.next(n)
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	return c.next(n)
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() uint8 {
	b := c.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads a 2-byte unsigned integer.
func (c *Cursor) Uint16() uint16 {
	b := c.next(2)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// Int16 reads a 2-byte signed integer.
func (c *Cursor) Int16() int16 {
	return int16(c.Uint16())
}

// Uint32 reads a 4-byte unsigned integer.
func (c *Cursor) Uint32() uint32 {
	b := c.next(4)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// Int32 reads a 4-byte signed integer.
func (c *Cursor) Int32() int32 {
	return int32(c.Uint32())
}

// Float32 reads a 4-byte IEEE-754 single precision value.
func (c *Cursor) Float32() float32 {
	return math.Float32frombits(c.Uint32())
}

// Float reads a single precision value widened to float64.
func (c *Cursor) Float() float64 {
	return float64(c.Float32())
}

// Point reads three consecutive floats.
func (c *Cursor) Point() (x, y, z float64) {
	x = c.Float()
	y = c.Float()
	z = c.Float()
	return x, y, z
}

// CString reads a NUL-terminated byte string and returns it without the terminator.
// A string that runs to the end of the range is returned as is.
func (c *Cursor) CString() []byte {
	if c.err != nil {
		return nil
	}
	start := c.pos
	for c.pos < c.end {
		if c.buf[c.pos] == 0 {
			s := c.buf[start:c.pos]
			c.pos++
			return s
		}
		c.pos++
	}
	return c.buf[start:c.end]
}

// PaddedString reads a NUL-terminated string whose total length, terminator
// included, is padded to an even number of bytes.
func (c *Cursor) PaddedString() []byte {
	start := c.pos
	s := c.CString()
	if (c.pos-start)&1 != 0 && c.pos < c.end {
		c.pos++
	}
	return s
}

// Uint16LE decodes a little-endian 2-byte value.
func Uint16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// Uint32LE decodes a little-endian 4-byte value.
func Uint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// Float32LE reinterprets four little-endian bytes as a float.
func Float32LE(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }

// Uint16BE decodes a big-endian 2-byte value.
func Uint16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// Uint32BE decodes a big-endian 4-byte value.
func Uint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// Float32BE reinterprets four big-endian bytes as a float.
func Float32BE(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) }
