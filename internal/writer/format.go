package writer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for an unrecognized output format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects an output text layout.
type Format int

const (
	// FormatJ3D is the legacy Jaguar 3D library assembly layout.
	FormatJ3D Format = iota
	// FormatN3D is the new 3D library assembly layout.
	FormatN3D
	// FormatA3D is FormatN3D plus the object hierarchy and per-frame matrices.
	FormatA3D
	// FormatC is C source with integer arrays.
	FormatC
	// FormatCF is C source with floating point arrays.
	FormatCF
)

var formatNames = map[string]Format{
	"old":    FormatJ3D,
	"j3d":    FormatJ3D,
	"new":    FormatN3D,
	"n3d":    FormatN3D,
	"anim":   FormatA3D,
	"a3d":    FormatA3D,
	"c":      FormatC,
	"c3d":    FormatC,
	"cf":     FormatCF,
	"cfloat": FormatCF,
}

// ParseFormat maps a format name, or one of its aliases, to a Format.
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case FormatJ3D:
		return "j3d"
	case FormatN3D:
		return "n3d"
	case FormatA3D:
		return "a3d"
	case FormatC:
		return "c"
	case FormatCF:
		return "cf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the default output file extension, with its dot.
func (f Format) Extension() string {
	switch f {
	case FormatJ3D:
		return ".j3d"
	case FormatA3D:
		return ".a3d"
	case FormatC, FormatCF:
		return ".c"
	}
	return ".n3d"
}

// IsC reports whether the format produces C source.
func (f Format) IsC() bool {
	return f == FormatC || f == FormatCF
}

// Animated reports whether the format always carries animation.
func (f Format) Animated() bool {
	return f == FormatA3D
}

// DefaultCLabels reports whether labels get a leading underscore when the
// user did not say.
func (f Format) DefaultCLabels() bool {
	return f != FormatJ3D
}

// CPrefix starts every label of the C formats.
const CPrefix = "C3D_"

// Label converts a name into an assembler or C identifier: C formats get a
// "C3D_" prefix, other formats a "_" when cLabels is set. The name is cut at
// its first '.', spaces and dashes become underscores and the rest is
// lowercased.
func (f Format) Label(name string, cLabels bool) string {
	var b strings.Builder
	switch {
	case f.IsC():
		b.WriteString(CPrefix)
	case cLabels:
		b.WriteByte('_')
	}
	for i := 0; i < len(name) && name[i] != '.'; i++ {
		c := name[i]
		switch {
		case c == ' ' || c == '-':
			c = '_'
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
