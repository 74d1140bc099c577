// Package writer renders a processed scene as assembler or C source text
// for the Jaguar 3D libraries.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Options controls rendering.
type Options struct {
	Format Format
	// Label names the whole file's data; the file exports "<Label>data".
	Label string
	// CLabels prefixes object and texture labels with an underscore.
	CLabels bool
	// Header emits the .include and segment directives of assembly output.
	Header bool
	// DataSegment places assembly output in the data segment.
	DataSegment bool
	// Animate emits the hierarchy table and per-frame matrices. It is
	// implied by FormatA3D and only honored by the new assembly layouts.
	Animate bool
	Logger  *zap.Logger
}

func (o Options) animate() bool {
	return o.Animate || o.Format.Animated()
}

// Hierarchical reports whether the output carries the object hierarchy
// table. Such output needs the scene root resolved before writing.
func (o Options) Hierarchical() bool {
	return o.animate() && !o.Format.IsC() && o.Format != FormatJ3D
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Writer renders a scene as text.
type Writer interface {
	Write(w io.Writer, sc *scene.Scene) error
}

// objectWriter emits the tables of one object. Each value is used for a
// single document and keeps whatever must only be written once.
type objectWriter interface {
	object(obj *scene.Object)
}

type sceneWriter struct {
	opts Options
}

// New returns a writer for opts.Format.
func New(opts Options) (Writer, error) {
	switch opts.Format {
	case FormatJ3D, FormatN3D, FormatA3D, FormatC, FormatCF:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, opts.Format)
	}
	return &sceneWriter{opts: opts}, nil
}

// WriteFile renders sc into the named file.
func WriteFile(path string, sc *scene.Scene, opts Options) error {
	w, err := New(opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := w.Write(f, sc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders sc to w.
func (sw *sceneWriter) Write(w io.Writer, sc *scene.Scene) error {
	log := sw.opts.logger()
	b := &base{
		e:    &emitter{w: bufio.NewWriter(w)},
		sc:   sc,
		opts: sw.opts,
	}

	var ow objectWriter
	switch sw.opts.Format {
	case FormatJ3D:
		ow = &j3dWriter{base: b}
	case FormatN3D, FormatA3D:
		ow = &n3dWriter{base: b}
	case FormatC:
		ow = &cWriter{base: b}
	case FormatCF:
		ow = &cWriter{base: b, float: true}
	}

	b.preamble()
	if sw.opts.Hierarchical() {
		if err := b.hierarchy(); err != nil {
			return err
		}
	}
	for _, obj := range sc.Objects {
		log.Debug("writing object", zap.String("object", obj.Name))
		ow.object(obj)
	}
	return b.e.flush()
}

// emitter formats text into a buffered writer and keeps the first error.
type emitter struct {
	w   *bufio.Writer
	err error
}

func (e *emitter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *emitter) flush() error {
	if e.err != nil {
		return fmt.Errorf("writing output: %w", e.err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// base carries what every layout needs.
type base struct {
	e    *emitter
	sc   *scene.Scene
	opts Options
}

func (b *base) label(name string) string {
	return b.opts.Format.Label(name, b.opts.CLabels)
}

// material returns the polygon's material, or an empty one for an index
// outside the table.
func (b *base) material(i int) scene.Material {
	if i < 0 || i >= len(b.sc.Materials) {
		return scene.Material{}
	}
	return b.sc.Materials[i]
}

func (b *base) preamble() {
	e := b.e
	switch b.opts.Format {
	case FormatJ3D:
		e.printf(";*========================================\n")
		e.printf("; .JAG/.J3D format file\n")
		e.printf(";*========================================\n\n")
	case FormatA3D:
		e.printf(";*========================================\n")
		e.printf("; 3D Animation Data File\n")
		e.printf(";*========================================\n\n")
	case FormatC, FormatCF:
		e.printf("/*========================================\n")
		e.printf("  3D Library Data File\n")
		e.printf(" *=======================================*/\n\n")
	default:
		e.printf(";*========================================\n")
		e.printf("; 3D Library Data File\n")
		e.printf(";*========================================\n\n")
	}

	switch b.opts.Format {
	case FormatC:
		e.printf("#include \"c3d.h\"\n")
	case FormatCF:
		e.printf("#define USE_FLOAT\n")
		e.printf("#include \"c3d.h\"\n")
	default:
		if b.opts.Header {
			e.printf("\n\t.include\t'jaguar.inc'\n\n")
			if b.opts.DataSegment {
				e.printf("\t.data\n")
			}
		}
		e.printf("\t.globl\t%sdata\n", b.opts.Label)
		e.printf("%sdata:\n", b.opts.Label)
	}
}

// hierarchy writes the root pointer and one node per object linking its
// data, an identity matrix, its siblings, children and animation.
func (b *base) hierarchy() error {
	sc := b.sc
	if len(sc.Objects) == 0 {
		return nil
	}
	if sc.Root == scene.None {
		return scene.ErrNoRoot
	}
	e := b.e
	e.printf("\t.dc.l\t.%s\t; pointer to root object\n", b.label(sc.Objects[sc.Root].Name))
	for _, obj := range sc.Objects {
		l := b.label(obj.Name)
		e.printf(".%s:\n", l)
		e.printf("\t.dc.l\t.%s_data\n", l)
		e.printf("\t.dc.w\t$4000, 0, 0\n")
		e.printf("\t.dc.w\t0, $4000, 0\n")
		e.printf("\t.dc.w\t0, 0, $4000\n")
		e.printf("\t.dc.w\t0, 0, 0\n")
		if obj.NextSibling != scene.None {
			e.printf("\t.dc.l\t.%s\t; siblings\n", b.label(sc.Objects[obj.NextSibling].Name))
		} else {
			e.printf("\t.dc.l\t0\t; siblings\n")
		}
		if obj.FirstChild != scene.None {
			e.printf("\t.dc.l\t.%s\t; children\n", b.label(sc.Objects[obj.FirstChild].Name))
		} else {
			e.printf("\t.dc.l\t0\t; children\n")
		}
		if obj.NumFrames() > 0 {
			e.printf("\t.dc.l\t.%s_anim\n", l)
		} else {
			e.printf("\t.dc.l\t0\t; no animation\n")
		}
	}
	return nil
}

// Default texture coordinates for polygons whose material has no texture.
var (
	defaultU = [4]float64{0, 0, 1, 1}
	defaultV = [4]float64{0, 1, 0, 1}
)

// texCoord returns the coordinates written for vertex j of p.
func texCoord(p *scene.Polygon, mat scene.Material, j int) (u, v float64) {
	if mat.Texture != nil && j < len(p.UVs) {
		return p.UVs[j].U, p.UVs[j].V
	}
	return defaultU[j%4], defaultV[j%4]
}
