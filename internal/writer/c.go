package writer

import "github.com/Faultbox/3dsconv/pkg/scene"

// cWriter emits C source for c3d.h. With float set, points and the object
// matrix are floating point; otherwise they are 16-bit integers with 0.14
// fixed point normals.
type cWriter struct {
	*base
	float     bool
	wroteMats bool
}

func (w *cWriter) object(obj *scene.Object) {
	w.faces(obj)
	w.verts(obj)
	w.mats()
	w.header(obj)
}

func (w *cWriter) faces(obj *scene.Object) {
	e := w.e
	e.printf("static short facelist%s[] = {\n", w.label(obj.Name))
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		mat := w.material(p.Material)
		e.printf("/* Face %d */\n", i)
		e.printf("\t%d,\t\t/* number of points */\n", p.Len())
		e.printf("\t%d,\t\t/* material %s */\n", p.Material, mat.Name)
		e.printf("\t0x%x,0x%x,0x%x,0x%x,\t/* face normal */\n",
			toFixed(p.Normal.X), toFixed(p.Normal.Y), toFixed(p.Normal.Z),
			toInt(p.PlaneOffset(obj.Vertices))&0xffff)
		for j, v := range p.Verts {
			u, tv := texCoord(p, mat, j)
			e.printf("\t%d, 0x%02x%02x,\t/* Point index, texture coordinates */\n", v, toByte(u), toByte(tv))
		}
	}
	e.printf("};\n")
}

func (w *cWriter) verts(obj *scene.Object) {
	e := w.e
	e.printf("\nstatic Point vertlist%s[] = {\n", w.label(obj.Name))
	for i, v := range obj.Vertices {
		e.printf("\t/* Vertex %d */\n", i)
		if w.float {
			e.printf("\t{%f,%f,%f,\t/* coordinates */\n", v.Position.X, v.Position.Y, v.Position.Z)
			e.printf("\t%f,%f,%f\t/* vertex normal */},\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
		} else {
			e.printf("\t{%d,%d,%d,\t/* coordinates */\n",
				toInt(v.Position.X), toInt(v.Position.Y), toInt(v.Position.Z))
			e.printf("\t%d,%d,%d\t/* vertex normal */},\n",
				toShort(v.Normal.X), toShort(v.Normal.Y), toShort(v.Normal.Z))
		}
	}
	e.printf("};\n")
}

func (w *cWriter) mats() {
	if w.wroteMats {
		return
	}
	w.wroteMats = true
	e := w.e

	for _, m := range w.sc.Materials {
		if m.Texture != nil {
			e.printf("extern short %s[];\n", w.label(m.Texture.File))
		}
	}

	for _, m := range w.sc.Materials {
		if m.Texture == nil {
			continue
		}
		l := w.label(m.Texture.File)
		e.printf("static Bitmap %s_bitmap = {\n", l)
		e.printf("\t%d, %d,\n", m.Texture.Width, m.Texture.Height)
		e.printf("\t%s\n", l)
		e.printf("};\n\n")
	}
	e.printf("\n")

	e.printf("\nstatic Material matlist[] = {\n")
	for i, m := range w.sc.Materials {
		e.printf("{ /* Material %d: %s */\n", i, m.Name)
		e.printf("\t0x%04x, 0,\n", RGBToCRY(m.Color))
		if m.Texture != nil {
			e.printf("\t%s_bitmap\t/* texture */\n},\n", w.label(m.Texture.File))
		} else {
			e.printf("\t0\t\t/* no texture */\n},\n")
		}
	}
	e.printf("};\n")
}

func (w *cWriter) header(obj *scene.Object) {
	e, l := w.e, w.label(obj.Name)
	e.printf("\nstatic C3DObjdata %s_data = {\n", l)
	e.printf("\t%d,\t/* Number of faces */\n", len(obj.Polygons))
	e.printf("\t%d,\t/* Number of points */\n", len(obj.Vertices))
	e.printf("\t%d,\t/* Number of materials */\n", len(w.sc.Materials))
	e.printf("\t0,\t/* reserved word */\n")
	e.printf("\tfacelist%s,\n", l)
	e.printf("\tvertlist%s,\n", l)
	e.printf("\tmatlist\n")
	e.printf("};\n\n")

	one := "1.0"
	if !w.float {
		one = "0x4000"
	}
	e.printf("C3DObject %s = {\n", l)
	e.printf("\t&%s_data,\n", l)
	e.printf("\t{ %s, 0, 0,\n", one)
	e.printf("\t  0, %s, 0,\n", one)
	e.printf("\t  0, 0, %s,\n", one)
	e.printf("\t  0, 0, 0 },\n")
	e.printf("};\n")
}
