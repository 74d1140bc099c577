package chunk

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// studioChunk builds a 3D Studio chunk with the given payload.
func studioChunk(id uint16, payload []byte) []byte {
	b := make([]byte, 6, 6+len(payload))
	binary.LittleEndian.PutUint16(b, id)
	binary.LittleEndian.PutUint32(b[2:], uint32(6+len(payload)))
	return append(b, payload...)
}

// iffChunk builds an IFF chunk with a 4-byte length.
func iffChunk(tag string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	copy(b, tag)
	binary.BigEndian.PutUint32(b[4:], uint32(len(payload)))
	return append(b, payload...)
}

// iffSubChunk builds an IFF subchunk with a 2-byte length.
func iffSubChunk(tag string, payload []byte) []byte {
	b := make([]byte, 6, 6+len(payload))
	copy(b, tag)
	binary.BigEndian.PutUint16(b[4:], uint16(len(payload)))
	return append(b, payload...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestEndianHelpers(t *testing.T) {
	four := []byte{0x01, 0x02, 0x03, 0x04}
	two := []byte{0x01, 0x02}

	if got := Uint32LE(four); got != 0x04030201 {
		t.Errorf("Uint32LE = %#x, want 0x04030201", got)
	}
	if got := Uint16LE(two); got != 0x0201 {
		t.Errorf("Uint16LE = %#x, want 0x0201", got)
	}
	if got := Uint32BE(four); got != 0x01020304 {
		t.Errorf("Uint32BE = %#x, want 0x01020304", got)
	}
	if got := Uint16BE(two); got != 0x0102 {
		t.Errorf("Uint16BE = %#x, want 0x0102", got)
	}
}

func TestFloatDecodeIsBitExact(t *testing.T) {
	values := []float32{0, 1, -2.5, 3.1415927, math.SmallestNonzeroFloat32, math.MaxFloat32}
	for _, v := range values {
		le := make([]byte, 4)
		be := make([]byte, 4)
		binary.LittleEndian.PutUint32(le, math.Float32bits(v))
		binary.BigEndian.PutUint32(be, math.Float32bits(v))

		if got := Float32LE(le); math.Float32bits(got) != math.Float32bits(v) {
			t.Errorf("Float32LE(%v) = %v", v, got)
		}
		if got := Float32BE(be); math.Float32bits(got) != math.Float32bits(v) {
			t.Errorf("Float32BE(%v) = %v", v, got)
		}
	}
}

func TestCursorPrimitives(t *testing.T) {
	buf := []byte{
		0x01, 0x02, // uint16
		0xFE, 0xFF, // int16 -2
		0x01, 0x02, 0x03, 0x04, // uint32
		0x00, 0x00, 0x80, 0x3F, // float 1.0
		'a', 'b', 0, // cstring
	}
	c := NewCursor(buf, Span{0, len(buf)}, binary.LittleEndian)

	if got := c.Uint16(); got != 0x0201 {
		t.Errorf("Uint16 = %#x", got)
	}
	if got := c.Int16(); got != -2 {
		t.Errorf("Int16 = %d", got)
	}
	if got := c.Uint32(); got != 0x04030201 {
		t.Errorf("Uint32 = %#x", got)
	}
	if got := c.Float(); got != 1.0 {
		t.Errorf("Float = %v", got)
	}
	if got := string(c.CString()); got != "ab" {
		t.Errorf("CString = %q", got)
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", c.Remaining())
	}
	if c.Err() != nil {
		t.Errorf("unexpected error %v", c.Err())
	}
}

func TestCursorStickyError(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3}, Span{0, 3}, binary.BigEndian)
	if got := c.Uint32(); got != 0 {
		t.Errorf("short Uint32 = %d, want 0", got)
	}
	if !errors.Is(c.Err(), ErrShortBuffer) {
		t.Fatalf("Err = %v, want ErrShortBuffer", c.Err())
	}
	if got := c.Uint8(); got != 0 {
		t.Errorf("read after error = %d, want 0", got)
	}
}

func TestCursorPaddedString(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		nextPos int
	}{
		{"odd name padded", []byte{'a', 'b', 0, 0, 'x'}, "ab", 4},
		{"even name unpadded", []byte{'a', 0, 'x'}, "a", 2},
		{"empty name", []byte{0, 0, 'x'}, "", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.data, Span{0, len(tt.data)}, binary.BigEndian)
			if got := string(c.PaddedString()); got != tt.want {
				t.Errorf("PaddedString = %q, want %q", got, tt.want)
			}
			if c.Pos() != tt.nextPos {
				t.Errorf("Pos = %d, want %d", c.Pos(), tt.nextPos)
			}
		})
	}
}

func TestStudioFind(t *testing.T) {
	buf := concat(
		studioChunk(0x0001, []byte{1, 2, 3}),
		studioChunk(0x0002, []byte{4}),
		studioChunk(0x0003, nil),
	)
	r := NewReader(buf, Studio)
	all := Span{0, len(buf)}

	s, ok := r.Find(all, 0x0002)
	if !ok {
		t.Fatal("chunk 0x0002 not found")
	}
	if s.Len() != 1 || buf[s.Start] != 4 {
		t.Errorf("payload = %v, want [4]", buf[s.Start:s.End])
	}

	s, ok = r.Find(all, 0x0003)
	if !ok || s.Len() != 0 {
		t.Errorf("empty chunk: ok=%v len=%d", ok, s.Len())
	}

	if _, ok := r.Find(all, 0x0004); ok {
		t.Error("found chunk that does not exist")
	}
}

func TestFindDoesNotRecurse(t *testing.T) {
	inner := studioChunk(0x0002, []byte{9})
	buf := studioChunk(0x0001, inner)
	r := NewReader(buf, Studio)

	if _, ok := r.Find(Span{0, len(buf)}, 0x0002); ok {
		t.Error("Find descended into a nested chunk")
	}
	outer, _ := r.Find(Span{0, len(buf)}, 0x0001)
	if _, ok := r.Find(outer, 0x0002); !ok {
		t.Error("nested chunk not found inside parent payload")
	}
}

func TestFindAnyReportsTag(t *testing.T) {
	buf := concat(
		studioChunk(0xB003, []byte{1}),
		studioChunk(0xB002, []byte{2}),
	)
	r := NewReader(buf, Studio)

	c, ok := r.FindAny(Span{0, len(buf)}, 0xB002, 0xB003)
	if !ok {
		t.Fatal("no chunk found")
	}
	if c.ID != 0xB003 {
		t.Errorf("matched %v, want first chunk 0xB003", c.ID)
	}

	c, ok = r.FindAny(Span{c.Payload.End, len(buf)}, 0xB002, 0xB003)
	if !ok || c.ID != 0xB002 {
		t.Errorf("second match = %v, %v", c.ID, ok)
	}
}

func TestWalkVisitsEachChunkOnce(t *testing.T) {
	buf := concat(
		studioChunk(1, make([]byte, 10)),
		studioChunk(2, nil),
		studioChunk(3, make([]byte, 3)),
		studioChunk(1, make([]byte, 1)),
	)
	// trailing garbage shorter than a header
	buf = append(buf, 0xAA, 0xBB)
	r := NewReader(buf, Studio)

	var seen []ID
	r.Walk(Span{0, len(buf)}, func(c Chunk) bool {
		seen = append(seen, c.ID)
		if c.Payload.End > len(buf) {
			t.Errorf("payload %v runs past buffer end %d", c.Payload, len(buf))
		}
		return true
	})

	want := []ID{1, 2, 3, 1}
	if len(seen) != len(want) {
		t.Fatalf("visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("chunk %d = %v, want %v", i, seen[i], want[i])
		}
	}

	if got := r.All(Span{0, len(buf)}, 1); len(got) != 2 {
		t.Errorf("All found %d chunks, want 2", len(got))
	}
}

func TestWalkTerminatesOnMalformedLength(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"length shorter than header", []byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0xFF, 0xFF}},
		{"length overruns buffer", []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x01}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.buf, Studio)
			n := 0
			r.Walk(Span{0, len(tt.buf)}, func(c Chunk) bool {
				n++
				if c.Payload.End > len(tt.buf) {
					t.Errorf("payload end %d past buffer %d", c.Payload.End, len(tt.buf))
				}
				return n < 100
			})
			if n > 1 {
				t.Errorf("walked %d chunks in malformed buffer", n)
			}
		})
	}
}

func TestIFFLayouts(t *testing.T) {
	sub := concat(
		iffSubChunk("FLAG", []byte{0, 1}),
		iffSubChunk("COLR", []byte{10, 20, 30, 0}),
	)
	buf := concat(
		iffChunk("PNTS", make([]byte, 12)),
		iffChunk("SURF", sub),
	)
	r := NewReader(buf, IFF)

	surf, ok := r.Find(Span{0, len(buf)}, Tag("SURF"))
	if !ok {
		t.Fatal("SURF not found")
	}
	sr := NewReader(buf, IFFSub)
	colr, ok := sr.Find(surf, Tag("COLR"))
	if !ok {
		t.Fatal("COLR not found")
	}
	if colr.Len() != 4 || buf[colr.Start] != 10 {
		t.Errorf("COLR payload = %v", buf[colr.Start:colr.End])
	}
}

func TestTagString(t *testing.T) {
	if got := Tag("LWOB").String(); got != "LWOB" {
		t.Errorf("Tag(LWOB).String() = %q", got)
	}
	if got := ID(0x4D4D).String(); got != "0x4D4D" {
		t.Errorf("ID(0x4D4D).String() = %q", got)
	}
}
