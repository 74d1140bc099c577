package writer

import "github.com/Faultbox/3dsconv/pkg/scene"

// n3dWriter emits the new 3D library layout, with animation frames when
// requested.
type n3dWriter struct {
	*base
	wroteMats bool
}

func (w *n3dWriter) object(obj *scene.Object) {
	w.header(obj)
	w.faces(obj)
	w.verts(obj)
	w.mats()
	if w.opts.animate() {
		w.anims(obj)
	}
}

func (w *n3dWriter) header(obj *scene.Object) {
	e, l := w.e, w.label(obj.Name)
	e.printf(".%s_data:\n", l)
	e.printf("\tdc.w\t%d\t\t;Number of faces\n", len(obj.Polygons))
	e.printf("\tdc.w\t%d\t\t;Number of points\n", len(obj.Vertices))
	e.printf("\tdc.w\t%d\t\t;Number of materials\n", len(w.sc.Materials))
	e.printf("\tdc.w\t0\t\t; reserved word\n")
	e.printf("\tdc.l\t.facelist%s\n", l)
	e.printf("\tdc.l\t.vertlist%s\n", l)
	e.printf("\tdc.l\t.matlist\n")
}

func (w *n3dWriter) faces(obj *scene.Object) {
	e := w.e
	e.printf("\t.phrase\n")
	e.printf(".facelist%s:\n", w.label(obj.Name))
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		mat := w.material(p.Material)
		e.printf(";* Face %d\n", i)
		e.printf("\tdc.w\t$%x,$%x,$%x,$%x\t; face normal\n",
			toFixed(p.Normal.X), toFixed(p.Normal.Y), toFixed(p.Normal.Z),
			toInt(p.PlaneOffset(obj.Vertices))&0xffff)
		e.printf("\tdc.w\t%d\t\t; number of points\n", p.Len())
		e.printf("\tdc.w\t%d\t\t; material %s\n", p.Material, mat.Name)
		for j, v := range p.Verts {
			u, tv := texCoord(p, mat, j)
			e.printf("\tdc.w\t%d, $%02x%02x\t; Point index, texture coordinates\n", v, toByte(u), toByte(tv))
		}
		e.printf("\n")
	}
}

func (w *n3dWriter) verts(obj *scene.Object) {
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
	e.printf("\n")
}

// mats writes the material table and texture bitmaps once per document.
func (w *n3dWriter) mats() {
	if w.wroteMats {
		return
	}
	w.wroteMats = true
	e := w.e

	for _, m := range w.sc.Materials {
		if m.Texture != nil {
			e.printf("\t.extern\t%s\n", w.label(m.Texture.File))
		}
	}

	e.printf("\t.phrase\n")
	e.printf(".matlist:\n")
	for i, m := range w.sc.Materials {
		e.printf("\n; Material %d: %s\n", i, m.Name)
		e.printf("\tdc.w\t$%04x, 0\n", RGBToCRY(m.Color))
		if m.Texture != nil {
			e.printf("\tdc.l\t.%s_bitmap\t; texture\n", w.label(m.Texture.File))
		} else {
			e.printf("\tdc.l\t0\t\t; no texture\n")
		}
	}
	e.printf("\n")

	for _, m := range w.sc.Materials {
		if m.Texture == nil {
			continue
		}
		l := w.label(m.Texture.File)
		e.printf(".%s_bitmap:\n", l)
		e.printf("\t.dc.w\t%d, %d\n", m.Texture.Width, m.Texture.Height)
		e.printf("\t.dc.l\tPITCH1|PIXEL16|WID%d\n", m.Texture.Width)
		e.printf("\t.dc.l\t%s\n", l)
	}
	e.printf("\n")
}

// anims writes one 0.14 fixed point matrix per frame: the three axis
// columns followed by the integer position.
func (w *n3dWriter) anims(obj *scene.Object) {
	e := w.e
	e.printf(".%s_anim:\n", w.label(obj.Name))
	e.printf("\t.dc.w\t1, 0\t; frame animation\n")
	e.printf("\t.dc.w\t%d\t; number of frames\n", obj.NumFrames())
	e.printf("\t.dc.w\t$0002\t; frames per 300th of a second\n")
	e.printf("\t.dc.l\t0\t; current frame number\n")
	for i, m := range obj.Frames {
		e.printf("\t;* frame %d\n", i)
		for col := 0; col < 3; col++ {
			c := m.Column(col)
			e.printf("\t.dc.w\t$%04x, $%04x, $%04x\n", toFixed(c.X), toFixed(c.Y), toFixed(c.Z))
		}
		p := m.Translation()
		e.printf("\t.dc.w\t$%04x, $%04x, $%04x\n",
			toInt(p.X)&0xffff, toInt(p.Y)&0xffff, toInt(p.Z)&0xffff)
	}
}
