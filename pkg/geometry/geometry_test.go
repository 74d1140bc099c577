package geometry

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// makeObject builds an object from xy points and polygons, computing face
// normals the way the decoders do.
func makeObject(points [][3]float64, polys ...[]int) *scene.Object {
	obj := scene.NewObject("test")
	for _, p := range points {
		obj.AddVertex(scene.Vertex{Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]}})
	}
	for _, verts := range polys {
		i := obj.AddPolygon(scene.NewPolygon(verts...))
		obj.Polygons[i].Material = 0
		UpdateFaceNormal(obj, i)
	}
	return obj
}

func unitSquare() *scene.Object {
	return makeObject(
		[][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[]int{0, 1, 2},
		[]int{0, 2, 3},
	)
}

func incidences(polys []scene.Polygon) int {
	n := 0
	for _, p := range polys {
		n += len(p.Verts)
	}
	return n
}

func TestFaceNormal(t *testing.T) {
	obj := makeObject(
		[][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {1, 1, 0}},
		[]int{0, 1, 2},
		[]int{0, 3, 3},
	)
	if got := obj.Polygons[0].Normal; got != (math.Vec3{Z: -1}) {
		t.Errorf("triangle normal = %+v, want (0,0,-1)", got)
	}
	if got := obj.Polygons[1].Normal; got != (math.Vec3{}) {
		t.Errorf("degenerate normal = %+v, want zero", got)
	}
}

func TestMergeVertices_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		second    math.Vec3
		wantVerts int
	}{
		{"distance equal to threshold", math.Vec3{X: 0.5, Y: 0.5}, 2},
		{"distance just below threshold", math.Vec3{X: 0.5, Y: 0.4999}, 1},
		{"coincident", math.Vec3{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := scene.NewObject("pair")
			obj.AddVertex(scene.Vertex{})
			obj.AddVertex(scene.Vertex{Position: tt.second})
			obj.AddPolygon(scene.NewPolygon(0, 1, 1))

			MergeVertices(obj, 1.0)
			if len(obj.Vertices) != tt.wantVerts {
				t.Fatalf("vertices = %d, want %d", len(obj.Vertices), tt.wantVerts)
			}
			for _, idx := range obj.Polygons[0].Verts {
				if idx >= len(obj.Vertices) {
					t.Errorf("polygon references vertex %d of %d", idx, len(obj.Vertices))
				}
			}
		})
	}
}

func TestMergeVertices_Idempotent(t *testing.T) {
	obj := makeObject(
		[][3]float64{{0, 0, 0}, {10, 0, 0}, {0.2, 0.1, 0}, {10, 10, 0}, {9.9, 0, 0}, {0, 10, 0}},
		[]int{0, 1, 3},
		[]int{2, 3, 5},
		[]int{4, 3, 0},
	)
	MergeVertices(obj, DefaultPointDelta)
	first := append([]scene.Vertex(nil), obj.Vertices...)
	if len(first) != 4 {
		t.Fatalf("first pass kept %d vertices, want 4", len(first))
	}

	MergeVertices(obj, DefaultPointDelta)
	if len(obj.Vertices) != len(first) {
		t.Fatalf("second pass changed count %d -> %d", len(first), len(obj.Vertices))
	}
	for i := range first {
		if obj.Vertices[i] != first[i] {
			t.Errorf("vertex %d changed: %+v -> %+v", i, first[i], obj.Vertices[i])
		}
	}
}

func TestMergeVertices_SnapshotsUVs(t *testing.T) {
	obj := scene.NewObject("uv")
	obj.AddVertex(scene.Vertex{TexCoord: scene.TexCoord{U: 0.25, V: 0.75}})
	obj.AddVertex(scene.Vertex{Position: math.Vec3{X: 5}, TexCoord: scene.TexCoord{U: 1}})
	obj.AddVertex(scene.Vertex{Position: math.Vec3{Y: 5}})
	obj.AddPolygon(scene.NewPolygon(0, 1, 2))

	MergeVertices(obj, DefaultPointDelta)
	uvs := obj.Polygons[0].UVs
	if uvs[0] != (scene.TexCoord{U: 0.25, V: 0.75}) || uvs[1] != (scene.TexCoord{U: 1}) {
		t.Errorf("polygon UVs = %+v", uvs)
	}
}

func TestVertexNormals_UnitLength(t *testing.T) {
	obj := makeObject(
		[][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0, 0, 1}, {7, 7, 7}},
		[]int{0, 1, 2},
		[]int{0, 2, 3},
		[]int{0, 4, 1},
	)
	VertexNormals(obj)
	for i, v := range obj.Vertices[:5] {
		if l := v.Normal.Length(); stdmath.Abs(l-1) > 1e-6 {
			t.Errorf("vertex %d normal length = %v", i, l)
		}
	}
	if got := obj.Vertices[5].Normal; got != (math.Vec3{}) {
		t.Errorf("isolated vertex normal = %+v, want zero", got)
	}
	for i, p := range obj.Polygons {
		if l := p.Normal.Length(); stdmath.Abs(l-1) > 1e-6 {
			t.Errorf("polygon %d normal length = %v", i, l)
		}
	}
}

func TestMergeFaces_Square(t *testing.T) {
	obj := unitSquare()
	before := incidences(obj.Polygons)

	if n := MergeFaces(obj, DefaultFaceDelta); n != 1 {
		t.Fatalf("merges = %d, want 1", n)
	}
	if len(obj.Polygons) != 1 {
		t.Fatalf("polygons = %d, want 1", len(obj.Polygons))
	}
	p := obj.Polygons[0]
	want := []int{0, 1, 2, 3}
	if len(p.Verts) != len(want) {
		t.Fatalf("merged verts = %v, want %v", p.Verts, want)
	}
	for i := range want {
		if p.Verts[i] != want[i] {
			t.Errorf("merged verts = %v, want %v", p.Verts, want)
			break
		}
	}
	if got := incidences(obj.Polygons); got != before-2 {
		t.Errorf("incidences = %d, want %d", got, before-2)
	}
	if len(p.UVs) != len(p.Verts) {
		t.Errorf("UV count %d != vertex count %d", len(p.UVs), len(p.Verts))
	}
	if stdmath.Abs(p.Normal.Length()-1) > 1e-6 {
		t.Errorf("merged normal length = %v", p.Normal.Length())
	}
}

func TestMergeFaces_RejectsConcaveUnion(t *testing.T) {
	// A dart: the shared edge 1-3 ends in a reflex corner at vertex 3.
	obj := makeObject(
		[][3]float64{{0, 0, 0}, {2, 1, 0}, {0, 2, 0}, {1, 1, 0}},
		[]int{0, 1, 3},
		[]int{1, 2, 3},
	)
	if obj.Polygons[0].Normal != obj.Polygons[1].Normal {
		t.Fatalf("fixture normals differ: %+v %+v", obj.Polygons[0].Normal, obj.Polygons[1].Normal)
	}
	if n := MergeFaces(obj, DefaultFaceDelta); n != 0 {
		t.Errorf("concave pair merged")
	}
	if len(obj.Polygons) != 2 {
		t.Errorf("polygons = %d, want 2", len(obj.Polygons))
	}
}

func TestMergeFaces_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(obj *scene.Object)
	}{
		{"different material", func(obj *scene.Object) { obj.Polygons[1].Material = 1 }},
		{"uv mismatch on shared edge", func(obj *scene.Object) { obj.Polygons[1].UVs[1] = scene.TexCoord{U: 1} }},
		{"normals apart", func(obj *scene.Object) { obj.Polygons[1].Normal = math.Vec3{Z: 1} }},
		{"no shared edge", func(obj *scene.Object) { obj.Polygons[1].Verts = []int{0, 3, 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := unitSquare()
			tt.mutate(obj)
			if n := MergeFaces(obj, DefaultFaceDelta); n != 0 {
				t.Errorf("merged %d pairs, want 0", n)
			}
		})
	}
}

func TestMergeFaces_GreedyPass(t *testing.T) {
	obj := makeObject(
		[][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {5, 5, 5}, {6, 5, 5}, {5, 6, 5}},
		[]int{0, 1, 2},
		[]int{0, 2, 3},
		[]int{4, 5, 6},
	)
	if n := MergeFaces(obj, DefaultFaceDelta); n != 1 {
		t.Fatalf("merges = %d, want 1", n)
	}
	if len(obj.Polygons) != 2 {
		t.Fatalf("polygons = %d, want 2", len(obj.Polygons))
	}
	if obj.Polygons[1].Verts[0] != 4 {
		t.Errorf("unmerged polygon moved out of order: %v", obj.Polygons[1].Verts)
	}
}

func TestResolveUncolored(t *testing.T) {
	sc := scene.New()
	if _, err := sc.AddMaterial(scene.Material{Name: scene.DefaultMaterialName}); err != nil {
		t.Fatal(err)
	}
	_, obj, _ := sc.CreateObject("obj")
	obj.AddVertex(scene.Vertex{})
	obj.AddPolygon(scene.NewPolygon(0, 0, 0))
	colored := scene.NewPolygon(0, 0, 0)
	colored.Material = 0
	obj.AddPolygon(colored)

	if n := ResolveUncolored(sc); n != 1 {
		t.Fatalf("uncolored = %d, want 1", n)
	}
	if len(sc.Materials) != 2 {
		t.Fatalf("materials = %d, want 2", len(sc.Materials))
	}
	last := sc.Materials[len(sc.Materials)-1]
	if last.Color != (scene.RGB{R: 128, G: 128, B: 128}) || last.Texture != nil {
		t.Errorf("default material = %+v", last)
	}
	if last.Name == scene.DefaultMaterialName {
		t.Error("default material name collides with an existing material")
	}
	if obj.Polygons[0].Material != len(sc.Materials)-1 {
		t.Errorf("polygon material = %d, want %d", obj.Polygons[0].Material, len(sc.Materials)-1)
	}
	if obj.Polygons[1].Material != 0 {
		t.Errorf("colored polygon changed to %d", obj.Polygons[1].Material)
	}

	if n := ResolveUncolored(sc); n != 0 || len(sc.Materials) != 2 {
		t.Errorf("second pass added %d faces, %d materials", n, len(sc.Materials))
	}
}

func TestProcess_MinimalMesh(t *testing.T) {
	sc := scene.New()
	sc.Objects = append(sc.Objects, unitSquare())
	sc.Objects[0].Polygons[0].Material = scene.NoMaterial
	sc.Objects[0].Polygons[1].Material = scene.NoMaterial

	Process(sc, DefaultOptions())

	obj := sc.Objects[0]
	if len(obj.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4", len(obj.Vertices))
	}
	if len(obj.Polygons) != 1 {
		t.Errorf("polygons = %d, want 1", len(obj.Polygons))
	}
	for i, v := range obj.Vertices {
		if stdmath.Abs(v.Normal.Length()-1) > 1e-6 {
			t.Errorf("vertex %d normal length = %v", i, v.Normal.Length())
		}
	}
	if len(sc.Materials) != 1 || obj.Polygons[0].Material != 0 {
		t.Errorf("materials = %d, polygon material = %d", len(sc.Materials), obj.Polygons[0].Material)
	}
}

func TestBounds(t *testing.T) {
	box := Bounds([]math.Vec3{{X: -1, Y: 2, Z: 0}, {X: 3, Y: -4, Z: 5}})
	if box.Min[0] != -1 || box.Min[1] != -4 || box.Max[2] != 5 {
		t.Errorf("bounds = %+v", box)
	}
}
