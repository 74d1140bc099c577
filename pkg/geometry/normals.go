package geometry

import (
	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// FaceNormal computes a polygon's unit normal with Newell's method. Faces
// with zero area yield the zero vector.
func FaceNormal(verts []scene.Vertex, p *scene.Polygon) math.Vec3 {
	var n math.Vec3
	count := len(p.Verts)
	if count == 0 {
		return n
	}
	v0 := verts[p.Verts[count-1]].Position
	for _, idx := range p.Verts {
		v1 := verts[idx].Position
		n.X += (v1.Y - v0.Y) * (v1.Z + v0.Z)
		n.Y += (v1.Z - v0.Z) * (v1.X + v0.X)
		n.Z += (v1.X - v0.X) * (v1.Y + v0.Y)
		v0 = v1
	}
	return n.Normalize()
}

// UpdateFaceNormal stores the Newell normal of polygon i of obj.
func UpdateFaceNormal(obj *scene.Object, i int) {
	p := &obj.Polygons[i]
	p.Normal = FaceNormal(obj.Vertices, p)
}

// VertexNormals sets every vertex normal to the normalized sum of the face
// normals of the polygons using it. Unused vertices get the zero vector.
func VertexNormals(obj *scene.Object) {
	for i := range obj.Vertices {
		obj.Vertices[i].Normal = math.Vec3{}
	}
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		for _, idx := range p.Verts {
			v := &obj.Vertices[idx]
			v.Normal = v.Normal.Add(p.Normal)
		}
	}
	for i := range obj.Vertices {
		v := &obj.Vertices[i]
		v.Normal = v.Normal.Normalize()
	}
}
