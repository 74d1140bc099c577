package writer

import (
	"strconv"
	"strings"

	"github.com/Faultbox/3dsconv/pkg/scene"
)

// j3dWriter emits the legacy Jaguar layout. Texture-mapped faces refer to
// texture boxes numbered across the whole document.
type j3dWriter struct {
	*base
	wroteTexlist bool
	tboxNum      int
}

func (w *j3dWriter) object(obj *scene.Object) {
	w.header(obj)
	w.faces(obj)
	w.verts(obj)
	w.texlist()
	w.tboxlist(obj)
}

func (w *j3dWriter) header(obj *scene.Object) {
	e, l := w.e, w.label(obj.Name)
	e.printf(".%s_data:\n", l)
	e.printf("\tdc.w\t%d,%d\t\t;Number of points, Number of faces\n", len(obj.Vertices), len(obj.Polygons))
	e.printf("\tdc.l\t.vertlist%s\n", l)
	e.printf("\tdc.l\t.texlist\n")
	e.printf("\tdc.l\t.tboxlist%s\n", l)
}

func (w *j3dWriter) textured(p *scene.Polygon) bool {
	return w.material(p.Material).Texture != nil
}

func (w *j3dWriter) faces(obj *scene.Object) {
	e := w.e
	box := w.tboxNum
	e.printf(".facelist%s:\n", w.label(obj.Name))
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		mat := w.material(p.Material)
		e.printf(";* Face %d\n", i)
		if mat.Texture != nil {
			e.printf("\tdc.w\t$%04x,$%04x\t;* texture mapped\n", p.Material, box)
			box++
		} else {
			e.printf("\tdc.w\t$FFFF,$0000\t;* Gouraud shaded\n")
		}
		e.printf("\tdc.w\t%d\t\t; number of points\n", p.Len())
		e.printf("\tdc.w\t$%04x\t\t; material %s\n", swappedCRY(mat.Color), mat.Name)
		for _, v := range p.Verts {
			e.printf("\tdc.w\t%d * 8\n", v)
		}
		e.printf("\n")
	}
}

func (w *j3dWriter) verts(obj *scene.Object) {
	e := w.e
	e.printf("\t.long\n")
	e.printf(".vertlist%s:\n", w.label(obj.Name))
	for i, v := range obj.Vertices {
		e.printf(";* Vertex %d\n", i)
		e.printf("\tdc.w\t%d,%d,%d\t; coordinates\n",
			toInt(v.Position.X), toInt(v.Position.Y), toInt(v.Position.Z))
		e.printf("\tdc.w\t$%04x,$%04x,$%04x\t; vertex normal\n\n",
			toFixed(v.Normal.X), toFixed(v.Normal.Y), toFixed(v.Normal.Z))
	}
}

func (w *j3dWriter) texlist() {
	if w.wroteTexlist {
		return
	}
	w.wroteTexlist = true
	e := w.e

	for _, m := range w.sc.Materials {
		if m.Texture != nil {
			e.printf("\t.extern\t%s\n", w.label(m.Texture.File))
		}
	}
	e.printf(".texlist:\n")
	for i, m := range w.sc.Materials {
		e.printf("\n; Material %d: %s\n", i, m.Name)
		if m.Texture != nil {
			e.printf("\tdc.l\t%s\t; texture\n", w.label(m.Texture.File))
			e.printf("\tdc.l\t(PITCH1|PIXEL16|WID%d|XADDINC)\n", m.Texture.Width)
		} else {
			e.printf("\tdc.l\t0\t\t; no texture\n")
			e.printf("\tdc.l\t0\n")
		}
	}
}

// tboxlist writes a pointer per texture-mapped face, then each face's
// texture coordinates in texels.
func (w *j3dWriter) tboxlist(obj *scene.Object) {
	e := w.e
	e.printf(".tboxlist%s:\n", w.label(obj.Name))

	box := w.tboxNum
	for i := range obj.Polygons {
		if w.textured(&obj.Polygons[i]) {
			e.printf("\tdc.l\t.pts%d\n", box)
			box++
		}
	}

	box = w.tboxNum
	var sb strings.Builder
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		tex := w.material(p.Material).Texture
		if tex == nil {
			continue
		}
		tw := float64(tex.Width - 1)
		th := float64(tex.Height - 1)

		sb.Reset()
		for j := range p.Verts {
			if j > 0 {
				sb.WriteString(", ")
			}
			var uv scene.TexCoord
			if j < len(p.UVs) {
				uv = p.UVs[j]
			}
			sb.WriteString(strconv.Itoa(toInt(uv.U*tw)))
			sb.WriteString(", ")
			sb.WriteString(strconv.Itoa(toInt(uv.V*th)))
		}
		e.printf(".pts%d:\tdc.w\t%s\n", box, sb.String())
		box++
	}
	w.tboxNum = box
}
