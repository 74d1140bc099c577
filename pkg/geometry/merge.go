package geometry

import (
	"github.com/flywave/go3d/float64/vec3"

	"github.com/Faultbox/3dsconv/pkg/scene"
)

// convexTolerance is the smallest corner cross product, projected on the
// face normal, a merged polygon may have.
const convexTolerance = 0.1

// MergeVertices welds every vertex lying closer than threshold (Manhattan
// distance, strict) to an earlier kept vertex, and renumbers the polygons.
// Texture coordinates are copied from the vertices onto the polygons first
// so that welding does not lose them.
func MergeVertices(obj *scene.Object, threshold float64) {
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		if len(p.UVs) != len(p.Verts) {
			p.UVs = make([]scene.TexCoord, len(p.Verts))
		}
		for k, idx := range p.Verts {
			p.UVs[k] = obj.Vertices[idx].TexCoord
		}
	}

	pointmap := make([]int, len(obj.Vertices))
	kept := make([]scene.Vertex, 0, len(obj.Vertices))
	for i, v := range obj.Vertices {
		pointmap[i] = len(kept)
		for j := range kept {
			if v.Position.Manhattan(kept[j].Position) < threshold {
				pointmap[i] = j
				break
			}
		}
		if pointmap[i] == len(kept) {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(obj.Vertices) {
		return
	}

	obj.Vertices = kept
	for i := range obj.Polygons {
		p := &obj.Polygons[i]
		for k, idx := range p.Verts {
			p.Verts[k] = pointmap[idx]
		}
	}
}

// MergeFaces makes one greedy pass over adjacent polygon pairs (i, i+1) and
// replaces each mergeable pair with a single convex polygon. It returns the
// number of merges performed.
func MergeFaces(obj *scene.Object, faceDelta float64) int {
	polys := obj.Polygons
	deleted := make([]bool, len(polys))
	merged := 0
	for i := 0; i+1 < len(polys); {
		if m, ok := mergePair(obj.Vertices, &polys[i], &polys[i+1], faceDelta); ok {
			polys[i] = m
			deleted[i+1] = true
			merged++
			i += 2
		} else {
			i++
		}
	}
	if merged == 0 {
		return 0
	}

	out := polys[:0]
	for i := range polys {
		if !deleted[i] {
			out = append(out, polys[i])
		}
	}
	obj.Polygons = out
	return merged
}

// sharedEdge finds an edge a[ai-1] -> a[ai] of A that B walks in the
// opposite direction as b[bj-1] -> b[bj]. Indices wrap around.
func sharedEdge(a, b []int) (ai, bj int, ok bool) {
	found := false
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		aStart, aEnd := a[(i+na-1)%na], a[i]
		for j := 0; j < nb; j++ {
			bStart, bEnd := b[(j+nb-1)%nb], b[j]
			if bStart == aEnd && bEnd == aStart {
				if found {
					return 0, 0, false
				}
				ai, bj, found = i, j, true
			}
		}
	}
	return ai, bj, found
}

// mergePair joins A and B across their shared edge if they have the same
// material, nearly equal normals, matching texture coordinates along the
// edge and a convex union.
func mergePair(verts []scene.Vertex, a, b *scene.Polygon, faceDelta float64) (scene.Polygon, bool) {
	if a.Material != b.Material {
		return scene.Polygon{}, false
	}
	na, nb := len(a.Verts), len(b.Verts)
	if na < 3 || nb < 3 || na+nb-2 > scene.MaxVertices {
		return scene.Polygon{}, false
	}
	if a.Normal.Manhattan(b.Normal) > faceDelta {
		return scene.Polygon{}, false
	}

	ai, bj, ok := sharedEdge(a.Verts, b.Verts)
	if !ok {
		return scene.Polygon{}, false
	}
	// A runs start -> end, B runs end -> start.
	aStart := (ai + na - 1) % na
	aEnd := ai
	bStart := (bj + nb - 1) % nb
	bEnd := bj
	if a.UVs[aStart] != b.UVs[bEnd] || a.UVs[aEnd] != b.UVs[bStart] {
		return scene.Polygon{}, false
	}

	m := scene.Polygon{
		Verts:    make([]int, 0, na+nb-2),
		UVs:      make([]scene.TexCoord, 0, na+nb-2),
		Material: a.Material,
		Normal:   a.Normal.Add(b.Normal).Normalize(),
	}
	for i := 0; i < na; i++ {
		m.Verts = append(m.Verts, a.Verts[i])
		m.UVs = append(m.UVs, a.UVs[i])
		if i != aStart {
			continue
		}
		// Splice in B's vertices strictly between the shared endpoints.
		for k := 1; k < nb-1; k++ {
			j := (bEnd + k) % nb
			m.Verts = append(m.Verts, b.Verts[j])
			m.UVs = append(m.UVs, b.UVs[j])
		}
	}

	if !Convex(verts, &m) {
		return scene.Polygon{}, false
	}
	return m, true
}

// Convex reports whether every corner of p turns the same way as its face
// normal by at least the convexity tolerance.
func Convex(verts []scene.Vertex, p *scene.Polygon) bool {
	n := len(p.Verts)
	if n < 3 {
		return false
	}
	normal := toVec3(p.Normal)
	va := toVec3(verts[p.Verts[n-2]].Position)
	vb := toVec3(verts[p.Verts[n-1]].Position)
	for _, idx := range p.Verts {
		vc := toVec3(verts[idx].Position)
		ab := vec3.Sub(&va, &vb)
		cb := vec3.Sub(&vc, &vb)
		cross := vec3.Cross(&ab, &cb)
		if vec3.Dot(&cross, &normal) < convexTolerance {
			return false
		}
		va, vb = vb, vc
	}
	return true
}
