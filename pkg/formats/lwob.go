package formats

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/chunk"
	"github.com/Faultbox/3dsconv/pkg/encoding"
	"github.com/Faultbox/3dsconv/pkg/geometry"
	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// LightWave chunk tags.
var (
	tagFORM = chunk.Tag("FORM")
	tagLWOB = chunk.Tag("LWOB")
	tagSRFS = chunk.Tag("SRFS")
	tagSURF = chunk.Tag("SURF")
	tagPNTS = chunk.Tag("PNTS")
	tagPOLS = chunk.Tag("POLS")
	tagCOLR = chunk.Tag("COLR")
)

// surfaceGray is the color of a surface declared without a SURF record.
const surfaceGray = 0x80

type lwobDecoder struct {
	buf   []byte
	r     *chunk.Reader
	sub   *chunk.Reader
	opts  Options
	log   *zap.Logger
	sc    *scene.Scene
	scale float64
}

// ReadLWOB decodes a LightWave object file held in data into a scene with a
// single object.
func ReadLWOB(data []byte, opts Options) (*scene.Scene, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: file header", ErrTruncated)
	}
	if chunk.ID(chunk.Uint32BE(data)) != tagFORM || chunk.ID(chunk.Uint32BE(data[8:])) != tagLWOB {
		return nil, ErrInvalidLWOBHeader
	}
	end := 8 + int64(chunk.Uint32BE(data[4:]))
	if end > int64(len(data)) {
		end = int64(len(data))
	}

	d := &lwobDecoder{
		buf:   data,
		r:     chunk.NewReader(data, chunk.IFF),
		sub:   chunk.NewReader(data, chunk.IFFSub),
		opts:  opts,
		log:   opts.logger(),
		sc:    scene.New(),
		scale: 1 / opts.scale(),
	}
	body := chunk.Span{Start: 12, End: int(end)}

	if err := d.readSurfaces(body); err != nil {
		return nil, err
	}

	pnts, ok := d.r.Find(body, tagPNTS)
	if !ok {
		return nil, fmt.Errorf("%w: PNTS", ErrMissingChunk)
	}
	_, obj, err := d.sc.CreateObject(opts.defaultName())
	if err != nil {
		return nil, err
	}
	d.log.Debug("reading points", zap.Int("count", pnts.Len()/12))
	c := d.r.Cursor(pnts)
	for c.Remaining() >= 12 {
		x, y, z := c.Point()
		obj.AddVertex(scene.Vertex{Position: math.Vec3{
			X: x / d.scale,
			Y: y / d.scale,
			Z: z / d.scale,
		}})
	}

	pols, ok := d.r.Find(body, tagPOLS)
	if !ok {
		return nil, fmt.Errorf("%w: POLS", ErrMissingChunk)
	}
	if err := d.readPolygons(obj, pols); err != nil {
		return nil, err
	}
	d.log.Debug("polygons found", zap.Int("count", len(obj.Polygons)))
	return d.sc, nil
}

// ReadLWOBFile reads and decodes a LightWave object file.
func ReadLWOBFile(path string, opts Options) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading LightWave file: %w", err)
	}
	return ReadLWOB(data, opts)
}

func (d *lwobDecoder) name(s []byte) string {
	return encoding.Decode(encoding.Latin1, s)
}

// readSurfaces declares every surface listed in SRFS as a gray material and
// then applies the colors given by SURF records.
func (d *lwobDecoder) readSurfaces(body chunk.Span) error {
	srfs, ok := d.r.Find(body, tagSRFS)
	if !ok {
		return nil
	}
	c := d.r.Cursor(srfs)
	for c.Remaining() > 0 {
		name := d.name(c.PaddedString())
		d.log.Debug("creating material", zap.String("material", name))
		_, err := d.sc.AddMaterial(scene.Material{
			Name:  name,
			Color: scene.RGB{R: surfaceGray, G: surfaceGray, B: surfaceGray},
		})
		if err != nil {
			d.log.Warn("skipping surface", zap.Error(err))
		}
	}

	rest := body
	for {
		surf, ok := d.r.Find(rest, tagSURF)
		if !ok {
			return nil
		}
		rest = rest.From(surf.End)

		c := d.r.Cursor(surf)
		name := d.name(c.PaddedString())
		idx, ok := d.sc.MaterialIndex(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSurface, name)
		}
		d.log.Debug("reading surface", zap.String("material", name))
		colr, ok := d.sub.Find(c.Rest(), tagCOLR)
		if ok && colr.Len() >= 3 {
			d.sc.Materials[idx].Color = scene.RGB{
				R: d.buf[colr.Start],
				G: d.buf[colr.Start+1],
				B: d.buf[colr.Start+2],
			}
		}
	}
}

func (d *lwobDecoder) readPolygons(obj *scene.Object, pols chunk.Span) error {
	c := d.r.Cursor(pols)
	for c.Remaining() > 0 {
		first := len(obj.Polygons)
		count := int(c.Uint16())
		if count > scene.MaxVertices {
			d.log.Warn("polygon has too many vertices, splitting into triangles",
				zap.Int("vertices", count))
			base := int(c.Uint16())
			right := int(c.Uint16())
			for k := 0; k < count-2; k++ {
				left := int(c.Uint16())
				if err := d.addPolygon(obj, c, base, right, left); err != nil {
					return err
				}
				right = left
			}
		} else {
			verts := make([]int, count)
			for k := range verts {
				verts[k] = int(c.Uint16())
			}
			if err := d.addPolygon(obj, c, verts...); err != nil {
				return err
			}
		}

		material := int(c.Int16())
		if material < 0 {
			material = -material
			c.Skip(2) // detail polygon count
		}
		if c.Err() != nil {
			return fmt.Errorf("%w: POLS", ErrTruncated)
		}
		material--
		if material >= len(d.sc.Materials) {
			d.log.Warn("polygon material out of range",
				zap.Int("material", material+1),
				zap.Int("materials", len(d.sc.Materials)))
			material = 0
			if len(d.sc.Materials) == 0 {
				material = scene.NoMaterial
			}
		}
		for i := first; i < len(obj.Polygons); i++ {
			obj.Polygons[i].Material = material
		}
	}
	return nil
}

func (d *lwobDecoder) addPolygon(obj *scene.Object, c *chunk.Cursor, verts ...int) error {
	if c.Err() != nil {
		return fmt.Errorf("%w: POLS", ErrTruncated)
	}
	for _, v := range verts {
		if v >= len(obj.Vertices) {
			return fmt.Errorf("%w: polygon %d uses vertex %d of %d",
				ErrBadIndex, len(obj.Polygons), v, len(obj.Vertices))
		}
	}
	idx := obj.AddPolygon(scene.NewPolygon(verts...))
	geometry.UpdateFaceNormal(obj, idx)
	return nil
}
