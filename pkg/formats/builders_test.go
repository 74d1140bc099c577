package formats

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/Faultbox/3dsconv/pkg/chunk"
	"github.com/Faultbox/3dsconv/pkg/texture"
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func lef(vs ...float32) []byte {
	var out []byte
	for _, v := range vs {
		out = append(out, le32(math.Float32bits(v))...)
	}
	return out
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func bef(vs ...float32) []byte {
	var out []byte
	for _, v := range vs {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, math.Float32bits(v))
		out = append(out, b...)
	}
	return out
}

func cstr(s string) []byte {
	return append([]byte(s), 0)
}

// paddedStr returns a NUL-terminated string padded to an even length.
func paddedStr(s string) []byte {
	b := cstr(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

// studioChunk builds a 3D Studio chunk with the given payload.
func studioChunk(id uint16, payload ...[]byte) []byte {
	body := concat(payload...)
	b := make([]byte, 6, 6+len(body))
	binary.LittleEndian.PutUint16(b, id)
	binary.LittleEndian.PutUint32(b[2:], uint32(6+len(body)))
	return append(b, body...)
}

func iffChunk(tag string, payload ...[]byte) []byte {
	body := concat(payload...)
	b := make([]byte, 8, 8+len(body))
	copy(b, tag)
	binary.BigEndian.PutUint32(b[4:], uint32(len(body)))
	return append(b, body...)
}

func iffSubChunk(tag string, payload ...[]byte) []byte {
	body := concat(payload...)
	b := make([]byte, 6, 6+len(body))
	copy(b, tag)
	binary.BigEndian.PutUint16(b[4:], uint16(len(body)))
	return append(b, body...)
}

// make3DS wraps MDATA contents (after a scale chunk) and any trailing
// top-level chunks in a 3DS file.
func make3DS(scale float32, mdata [][]byte, top ...[]byte) []byte {
	body := concat(studioChunk(uint16(idMScale), lef(scale)), concat(mdata...))
	return studioChunk(Magic3DS, studioChunk(uint16(idMData), body), concat(top...))
}

func makeMaterial(name string, r, g, b byte, extra ...[]byte) []byte {
	return studioChunk(uint16(idMatEntry),
		studioChunk(uint16(idMatName), cstr(name)),
		studioChunk(uint16(idMatDiffuse), studioChunk(uint16(idColor24), []byte{r, g, b})),
		concat(extra...))
}

func makeTexmap(file string) []byte {
	return studioChunk(uint16(idMatTexmap), studioChunk(uint16(idMatMapname), cstr(file)))
}

type tdsGroup struct {
	material string
	faces    []uint16
}

type tdsMesh struct {
	name   string
	points [][3]float32
	faces  [][3]uint16
	groups []tdsGroup
	uvs    [][2]float32
	matrix []float32
}

func (m tdsMesh) bytes() []byte {
	pts := le16(uint16(len(m.points)))
	for _, p := range m.points {
		pts = append(pts, lef(p[0], p[1], p[2])...)
	}

	faces := le16(uint16(len(m.faces)))
	for _, f := range m.faces {
		faces = concat(faces, le16(f[0]), le16(f[1]), le16(f[2]), le16(0))
	}
	for _, g := range m.groups {
		grp := concat(cstr(g.material), le16(uint16(len(g.faces))))
		for _, f := range g.faces {
			grp = append(grp, le16(f)...)
		}
		faces = append(faces, studioChunk(uint16(idMshMatGroup), grp)...)
	}

	ntri := concat(
		studioChunk(uint16(idPointArray), pts),
		studioChunk(uint16(idFaceArray), faces),
	)
	if m.uvs != nil {
		uv := le16(uint16(len(m.uvs)))
		for _, t := range m.uvs {
			uv = append(uv, lef(t[0], t[1])...)
		}
		ntri = append(ntri, studioChunk(uint16(idTexVerts), uv)...)
	}
	if m.matrix != nil {
		ntri = append(ntri, studioChunk(uint16(idMshMatrix), lef(m.matrix...))...)
	}
	return studioChunk(uint16(idNamedObject), cstr(m.name), studioChunk(uint16(idNTriObject), ntri))
}

// squareMesh is a 10x10 square in the file's xy plane split into two
// triangles along its diagonal.
func squareMesh(name, material string) tdsMesh {
	return tdsMesh{
		name:   name,
		points: [][3]float32{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0}},
		faces:  [][3]uint16{{0, 1, 2}, {0, 2, 3}},
		groups: []tdsGroup{{material: material, faces: []uint16{0, 1}}},
	}
}

// keyframe section builders

func makeKFData(maxFrame uint32, nodes ...[]byte) []byte {
	hdr := studioChunk(uint16(idKFHdr), le16(5), cstr("a"), le32(maxFrame))
	return studioChunk(uint16(idKFData), hdr, concat(nodes...))
}

func makeNode(tag chunk.ID, name string, parent int16, parts ...[]byte) []byte {
	hdr := studioChunk(uint16(idNodeHdr), cstr(name), le16(0), le16(0), le16(uint16(parent)))
	return studioChunk(uint16(tag), hdr, concat(parts...))
}

func makePivot(x, y, z float32) []byte {
	return studioChunk(uint16(idPivot), lef(x, y, z))
}

func makeTrack(id uint16, keys ...[]byte) []byte {
	return studioChunk(id, make([]byte, 10), le32(uint32(len(keys))), concat(keys...))
}

func posKey(frame int32, x, y, z float32) []byte {
	return concat(le32(uint32(frame)), le16(0), lef(x, y, z))
}

func rotKey(frame int32, angle, x, y, z float32) []byte {
	return concat(le32(uint32(frame)), le16(0), lef(angle, x, y, z))
}

// splineKey carries spline parameters that must be skipped.
func splineKey(frame int32, flags uint16, params int, x, y, z float32) []byte {
	junk := make([]float32, params)
	for i := range junk {
		junk[i] = 99
	}
	return concat(le32(uint32(frame)), le16(flags), lef(junk...), lef(x, y, z))
}

// LightWave builders

type lwPoly struct {
	verts    []uint16
	material int16
	detail   bool
}

func makeLWOB(surfaces []string, surfChunks [][]byte, points [][3]float32, polys []lwPoly) []byte {
	var body []byte
	if surfaces != nil {
		var srfs []byte
		for _, s := range surfaces {
			srfs = append(srfs, paddedStr(s)...)
		}
		body = append(body, iffChunk("SRFS", srfs)...)
	}
	if points != nil {
		var pnts []byte
		for _, p := range points {
			pnts = append(pnts, bef(p[0], p[1], p[2])...)
		}
		body = append(body, iffChunk("PNTS", pnts)...)
	}
	if polys != nil {
		var pols []byte
		for _, p := range polys {
			pols = append(pols, be16(uint16(len(p.verts)))...)
			for _, v := range p.verts {
				pols = append(pols, be16(v)...)
			}
			pols = append(pols, be16(uint16(p.material))...)
			if p.detail {
				pols = append(pols, be16(0)...)
			}
		}
		body = append(body, iffChunk("POLS", pols)...)
	}
	body = append(body, concat(surfChunks...)...)
	return iffChunk("FORM", []byte("LWOB"), body)
}

func makeSURF(name string, r, g, b byte) []byte {
	return iffChunk("SURF", paddedStr(name),
		iffSubChunk("FLAG", be16(0)),
		iffSubChunk("COLR", []byte{r, g, b, 0}))
}

// fakeSampler returns a fixed image description, or err for listed files.
type fakeSampler struct {
	info    texture.Info
	missing map[string]bool
	calls   []string
}

func (f *fakeSampler) Sample(name string, withColor bool) (texture.Info, error) {
	f.calls = append(f.calls, name)
	if f.missing[name] {
		return texture.Info{}, errors.Join(texture.ErrNotFound, errors.New(name))
	}
	info := f.info
	info.File = name
	return info, nil
}
