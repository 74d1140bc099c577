// Package texture reads texture map images referenced by materials: their
// dimensions and, on request, their average color.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Sampling errors.
var (
	ErrNotFound    = errors.New("texture file not found")
	ErrUnsupported = errors.New("unsupported texture image")
)

// Info describes a sampled texture image.
type Info struct {
	// File is the name the image was found under.
	File   string
	Width  int
	Height int
	// Color is the mean pixel color, set only when requested.
	Color scene.RGB
}

// Sampler looks texture files up relative to a directory, usually the one
// holding the scene file.
type Sampler struct {
	Dir string
}

// NewSampler returns a sampler rooted at dir. An empty dir means the
// working directory.
func NewSampler(dir string) *Sampler {
	return &Sampler{Dir: dir}
}

// Sample reads the named image. Width and height always come from the image
// header; the average color is computed only when withColor is set.
func (s *Sampler) Sample(name string, withColor bool) (Info, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return Info{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("texture: read %s: %w", path, err)
	}

	info := Info{File: filepath.Base(path)}
	if !withColor {
		cfg, err := decodeConfig(path, bytes.NewReader(padFooter(data)))
		if err != nil {
			return Info{}, fmt.Errorf("%w: %s: %v", ErrUnsupported, path, err)
		}
		info.Width, info.Height = cfg.Width, cfg.Height
		return info, nil
	}

	img, err := decode(path, bytes.NewReader(padFooter(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrUnsupported, path, err)
	}
	b := img.Bounds()
	info.Width, info.Height = b.Dx(), b.Dy()
	c, ok := Average(img)
	if !ok {
		return Info{}, fmt.Errorf("%w: %s: empty image", ErrUnsupported, path)
	}
	info.Color = c
	return info, nil
}

// Resolve returns the path of the named file in the sampler's directory,
// falling back to a case-insensitive match of the file name.
func (s *Sampler) Resolve(name string) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// tgaFooterSize is the length of the optional TGA 2.0 footer. The tga
// decoder seeks that far back from the end before reading the header.
const tgaFooterSize = 26

// padFooter zero-extends images shorter than a TGA footer. Zeros never match
// the footer signature, so the image still decodes as TGA 1.0.
func padFooter(data []byte) []byte {
	if len(data) >= tgaFooterSize {
		return data
	}
	return append(data, make([]byte, tgaFooterSize-len(data))...)
}

func isBMP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".bmp")
}

func decodeConfig(path string, r io.Reader) (image.Config, error) {
	if isBMP(path) {
		return bmp.DecodeConfig(r)
	}
	return tga.DecodeConfig(r)
}

func decode(path string, r io.Reader) (image.Image, error) {
	if isBMP(path) {
		return bmp.Decode(r)
	}
	return tga.Decode(r)
}

// Average returns the mean color of every pixel of img, ignoring alpha.
func Average(img image.Image) (scene.RGB, bool) {
	b := img.Bounds()
	n := uint64(b.Dx()) * uint64(b.Dy())
	if b.Empty() || n == 0 {
		return scene.RGB{}, false
	}
	var r, g, bl uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			bl += uint64(c.B)
		}
	}
	return scene.RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n)}, true
}
