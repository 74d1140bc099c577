// Package formats decodes 3D Studio (.3ds/.prj) and LightWave (.lwob)
// scene files into a scene.Scene.
package formats

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/texture"
)

// Decoding errors.
var (
	ErrInvalid3DSMagic   = errors.New("invalid 3DS magic: expected 0x4D4D or 0xC23D")
	ErrInvalidLWOBHeader = errors.New("invalid LightWave header: expected FORM/LWOB")
	ErrMissingChunk      = errors.New("required chunk not found")
	ErrTruncated         = errors.New("truncated chunk data")
	ErrBadScale          = errors.New("scale factor must be non-zero")
	ErrBadIndex          = errors.New("vertex index out of range")
	ErrUnknownObject     = errors.New("keyframe node references unknown object")
	ErrBadFrame          = errors.New("key frame number out of range")
	ErrUnknownSurface    = errors.New("surface not declared in SRFS")
)

// DefaultObjectName names the single object built when objects are not
// kept apart and no other name was given.
const DefaultObjectName = "Default"

// TextureSampler reads the image behind a material's texture map.
type TextureSampler interface {
	Sample(name string, withColor bool) (texture.Info, error)
}

// Options controls decoding.
type Options struct {
	// Scale multiplies every coordinate. Zero means 1.
	Scale float64
	// MultiObject keeps each named mesh as its own object instead of
	// merging them all into one.
	MultiObject bool
	// Animate reads keyframe data and builds per-frame transforms.
	Animate bool
	// DefaultName names the merged object.
	DefaultName string
	// Textures samples texture maps. When nil, texture references keep
	// their default 64x64 size.
	Textures TextureSampler
	Logger   *zap.Logger
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

func (o Options) defaultName() string {
	if o.DefaultName == "" {
		return DefaultObjectName
	}
	return o.DefaultName
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
