// Package encoding decodes the 8-bit names stored in scene files.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charsets used by the supported scene formats.
var (
	// DOS is the code page 3D Studio wrote object and material names in.
	DOS encoding.Encoding = charmap.CodePage437
	// Latin1 is the character set of LightWave surface names.
	Latin1 encoding.Encoding = charmap.ISO8859_1
)

// Decode converts 8-bit text to UTF-8, stopping at the first NUL.
// Returns the raw bytes as a string if conversion fails.
func Decode(enc encoding.Encoding, data []byte) string {
	data = TrimNull(data)
	if isASCII(data) {
		return string(data)
	}
	result, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// Encode converts UTF-8 text back to an 8-bit charset.
// Returns the input bytes if conversion fails.
func Encode(enc encoding.Encoding, s string) []byte {
	result, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// TrimNull cuts data at its first NUL byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
