package formats

import (
	"fmt"
	stdmath "math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/chunk"
	"github.com/Faultbox/3dsconv/pkg/encoding"
	"github.com/Faultbox/3dsconv/pkg/geometry"
	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
	"github.com/Faultbox/3dsconv/pkg/texture"
)

// 3D Studio magic numbers.
const (
	Magic3DS = 0x4D4D
	MagicPRJ = 0xC23D
)

// 3D Studio chunk tags.
const (
	idColorF  chunk.ID = 0x0010
	idColor24 chunk.ID = 0x0011
	idMScale  chunk.ID = 0x0100

	idMData       chunk.ID = 0x3D3D
	idNamedObject chunk.ID = 0x4000
	idNTriObject  chunk.ID = 0x4100
	idPointArray  chunk.ID = 0x4110
	idFaceArray   chunk.ID = 0x4120
	idMshMatGroup chunk.ID = 0x4130
	idTexVerts    chunk.ID = 0x4140
	idMshMatrix   chunk.ID = 0x4160

	idMatName    chunk.ID = 0xA000
	idMatDiffuse chunk.ID = 0xA020
	idMatTexmap  chunk.ID = 0xA200
	idMatMapname chunk.ID = 0xA300
	idMatEntry   chunk.ID = 0xAFFF
)

// defaultTextureSize is assumed for texture maps whose image was not read.
const defaultTextureSize = 64

type tdsDecoder struct {
	buf   []byte
	r     *chunk.Reader
	opts  Options
	log   *zap.Logger
	sc    *scene.Scene
	scale float64
}

// Read3DS decodes a 3D Studio file held in data.
func Read3DS(data []byte, opts Options) (*scene.Scene, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: file header", ErrTruncated)
	}
	magic := chunk.Uint16LE(data)
	if magic != Magic3DS && magic != MagicPRJ {
		return nil, fmt.Errorf("%w: got 0x%04X", ErrInvalid3DSMagic, magic)
	}

	d := &tdsDecoder{
		buf:  data,
		r:    chunk.NewReader(data, chunk.Studio),
		opts: opts,
		log:  opts.logger(),
		sc:   scene.New(),
	}
	body := chunk.Span{Start: 6, End: len(data)}

	mdata, ok := d.r.Find(body, idMData)
	if !ok {
		return nil, fmt.Errorf("%w: MDATA", ErrMissingChunk)
	}
	if err := d.readScale(mdata); err != nil {
		return nil, err
	}

	d.log.Debug("building material records")
	if err := d.readMaterials(mdata); err != nil {
		return nil, err
	}
	if err := d.readMeshes(mdata); err != nil {
		return nil, err
	}

	if opts.Animate {
		if err := d.readKeyframes(body); err != nil {
			return nil, err
		}
		if len(d.sc.Objects) > 0 {
			if _, err := d.sc.ResolveRoot(); err != nil {
				return nil, err
			}
		}
	}
	return d.sc, nil
}

// Read3DSFile reads and decodes a 3D Studio file. Texture maps are looked up
// next to it unless opts already carries a sampler.
func Read3DSFile(path string, opts Options) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading 3DS file: %w", err)
	}
	if opts.Textures == nil {
		opts.Textures = texture.NewSampler(filepath.Dir(path))
	}
	return Read3DS(data, opts)
}

func (d *tdsDecoder) name(s []byte) string {
	return encoding.Decode(encoding.DOS, s)
}

func (d *tdsDecoder) bytes(s chunk.Span) []byte {
	return d.buf[s.Start:s.End]
}

func (d *tdsDecoder) readScale(mdata chunk.Span) error {
	p, ok := d.r.Find(mdata, idMScale)
	if !ok {
		return fmt.Errorf("%w: MSCALE", ErrMissingChunk)
	}
	c := d.r.Cursor(p)
	fileScale := c.Float()
	if c.Err() != nil {
		return fmt.Errorf("%w: MSCALE", ErrTruncated)
	}
	d.log.Debug("3DS scale factor", zap.Float64("scale", fileScale))

	d.scale = fileScale / d.opts.scale()
	if d.scale == 0 || stdmath.IsNaN(d.scale) || stdmath.IsInf(d.scale, 0) {
		return fmt.Errorf("%w: file scale %v, user scale %v", ErrBadScale, fileScale, d.opts.scale())
	}
	return nil
}

func (d *tdsDecoder) readMaterials(mdata chunk.Span) error {
	for _, entry := range d.r.All(mdata, idMatEntry) {
		nameSpan, ok := d.r.Find(entry, idMatName)
		if !ok {
			return fmt.Errorf("%w: material name", ErrMissingChunk)
		}
		mat := scene.Material{Name: d.name(d.bytes(nameSpan))}

		diffuse, ok := d.r.Find(entry, idMatDiffuse)
		if !ok {
			return fmt.Errorf("%w: diffuse color of material %s", ErrMissingChunk, mat.Name)
		}
		color, err := d.readColor(diffuse)
		if err != nil {
			return fmt.Errorf("material %s: %w", mat.Name, err)
		}
		mat.Color = color

		if texmap, ok := d.r.Find(entry, idMatTexmap); ok {
			if mapname, ok := d.r.Find(texmap, idMatMapname); ok {
				d.attachTexture(&mat, d.name(d.bytes(mapname)))
			}
		}

		d.log.Debug("adding material", zap.String("material", mat.Name))
		if _, err := d.sc.AddMaterial(mat); err != nil {
			d.log.Warn("skipping material", zap.Error(err))
		}
	}
	return nil
}

// readColor decodes the first color subchunk of a diffuse chunk into 0-255
// components.
func (d *tdsDecoder) readColor(diffuse chunk.Span) (scene.RGB, error) {
	ch, ok := d.r.FindAny(diffuse, idColorF, idColor24)
	if !ok {
		return scene.RGB{}, fmt.Errorf("%w: color", ErrMissingChunk)
	}
	c := d.r.Cursor(ch.Payload)
	var r, g, b float64
	if ch.ID == idColorF {
		r, g, b = c.Point()
	} else {
		r = float64(c.Uint8()) / 256
		g = float64(c.Uint8()) / 256
		b = float64(c.Uint8()) / 256
	}
	if c.Err() != nil {
		return scene.RGB{}, fmt.Errorf("%w: color", ErrTruncated)
	}
	return scene.RGB{R: toChannel(r), G: toChannel(g), B: toChannel(b)}, nil
}

// toChannel scales a [0,1] intensity to a byte, truncating.
func toChannel(f float64) uint8 {
	v := 255.9 * f
	switch {
	case stdmath.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// attachTexture records a texture map on mat and, when a sampler is
// available, replaces its size and color with those of the image. An image
// that cannot be read leaves the material untextured.
func (d *tdsDecoder) attachTexture(mat *scene.Material, file string) {
	mat.Texture = &scene.Texture{File: file, Width: defaultTextureSize, Height: defaultTextureSize}
	if d.opts.Textures == nil {
		return
	}
	info, err := d.opts.Textures.Sample(file, true)
	if err != nil {
		d.log.Warn("texture unusable, material left untextured",
			zap.String("material", mat.Name),
			zap.String("texture", file),
			zap.Error(err))
		mat.Texture = nil
		return
	}
	mat.Texture.Width = info.Width
	mat.Texture.Height = info.Height
	mat.Color = info.Color
}

func (d *tdsDecoder) readMeshes(mdata chunk.Span) error {
	var obj *scene.Object
	if !d.opts.MultiObject {
		var err error
		if _, obj, err = d.sc.CreateObject(d.opts.defaultName()); err != nil {
			return err
		}
	}

	for _, named := range d.r.All(mdata, idNamedObject) {
		c := d.r.Cursor(named)
		name := d.name(c.CString())
		ntri, ok := d.r.Find(c.Rest(), idNTriObject)
		if !ok {
			d.log.Debug("skipping named object without mesh", zap.String("object", name))
			continue
		}
		if d.opts.MultiObject {
			var err error
			if _, obj, err = d.sc.CreateObject(name); err != nil {
				return err
			}
		}
		d.log.Debug("building face records", zap.String("object", name))
		if err := d.readMesh(obj, ntri); err != nil {
			return fmt.Errorf("object %s: %w", name, err)
		}
	}
	return nil
}

func (d *tdsDecoder) readMesh(obj *scene.Object, ntri chunk.Span) error {
	vertbase := len(obj.Vertices)
	polybase := len(obj.Polygons)

	obj.MeshMatrix = math.Identity()
	if p, ok := d.r.Find(ntri, idMshMatrix); ok {
		c := d.r.Cursor(p)
		var axes [4]math.Vec3
		for i := range axes {
			axes[i].X, axes[i].Y, axes[i].Z = c.Point()
		}
		if c.Err() != nil {
			return fmt.Errorf("%w: mesh matrix", ErrTruncated)
		}
		obj.MeshMatrix = math.FromAxes(axes[0], axes[1], axes[2], axes[3])
	}

	points, ok := d.r.Find(ntri, idPointArray)
	if !ok {
		return fmt.Errorf("%w: point array", ErrMissingChunk)
	}
	c := d.r.Cursor(points)
	n := int(c.Uint16())
	for i := 0; i < n; i++ {
		x, y, z := c.Point()
		obj.AddVertex(scene.Vertex{Position: math.Vec3{
			X: x / d.scale,
			Y: -z / d.scale,
			Z: y / d.scale,
		}})
	}
	if c.Err() != nil {
		return fmt.Errorf("%w: point array", ErrTruncated)
	}

	faces, ok := d.r.Find(ntri, idFaceArray)
	if !ok {
		return fmt.Errorf("%w: face array", ErrMissingChunk)
	}
	c = d.r.Cursor(faces)
	n = int(c.Uint16())
	for i := 0; i < n; i++ {
		a := vertbase + int(c.Uint16())
		b := vertbase + int(c.Uint16())
		cc := vertbase + int(c.Uint16())
		c.Skip(2) // flags
		if c.Err() != nil {
			return fmt.Errorf("%w: face array", ErrTruncated)
		}
		if a >= len(obj.Vertices) || b >= len(obj.Vertices) || cc >= len(obj.Vertices) {
			return fmt.Errorf("%w: face %d", ErrBadIndex, i)
		}
		// reversed winding
		idx := obj.AddPolygon(scene.NewPolygon(a, cc, b))
		geometry.UpdateFaceNormal(obj, idx)
	}

	d.log.Debug("getting material groups")
	for _, grp := range d.r.All(c.Rest(), idMshMatGroup) {
		if err := d.readMaterialGroup(obj, grp, polybase); err != nil {
			return err
		}
	}

	if uv, ok := d.r.Find(ntri, idTexVerts); ok {
		c := d.r.Cursor(uv)
		n := int(c.Uint16())
		for i := 0; i < n; i++ {
			u := c.Float()
			v := 1 - c.Float()
			if c.Err() != nil {
				return fmt.Errorf("%w: texture vertices", ErrTruncated)
			}
			vi := vertbase + i
			if vi >= len(obj.Vertices) {
				continue
			}
			obj.Vertices[vi].U = clamp01(u)
			obj.Vertices[vi].V = clamp01(v)
		}
	}
	return nil
}

func (d *tdsDecoder) readMaterialGroup(obj *scene.Object, grp chunk.Span, polybase int) error {
	c := d.r.Cursor(grp)
	name := d.name(c.CString())
	mat, ok := d.sc.MaterialIndex(name)
	if !ok {
		d.log.Warn("material not found", zap.String("material", name))
		mat = 0
		if len(d.sc.Materials) == 0 {
			mat = scene.NoMaterial
		}
	}

	n := int(c.Uint16())
	for i := 0; i < n; i++ {
		pi := polybase + int(c.Uint16())
		if c.Err() != nil {
			return fmt.Errorf("%w: material group %s", ErrTruncated, name)
		}
		if pi >= len(obj.Polygons) {
			d.log.Warn("material group references missing face",
				zap.String("material", name), zap.Int("face", pi-polybase))
			continue
		}
		obj.Polygons[pi].Material = mat
	}
	return nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
