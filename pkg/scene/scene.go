// Package scene holds the in-memory model a scene file is decoded into:
// objects with their vertex and polygon tables, the shared material table
// and the animation hierarchy.
package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/3dsconv/pkg/math"
)

// Scene model errors.
var (
	ErrDuplicateObject   = errors.New("duplicate object name")
	ErrDuplicateMaterial = errors.New("duplicate material name")
	ErrNoRoot            = errors.New("every object in the scene has a parent")
)

const (
	// MaxVertices bounds the number of vertices in one polygon.
	MaxVertices = 8

	// NoMaterial marks a polygon no material group claimed.
	NoMaterial = -1

	// None is the empty hierarchy link.
	None = -1

	// DefaultMaterialName names the material appended for uncolored faces.
	DefaultMaterialName = "Default Material"
)

// TexCoord is a texture coordinate pair in [0,1].
type TexCoord struct {
	U, V float64
}

// Vertex is a point with its accumulated normal and texture coordinates.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	TexCoord
}

// Polygon is a face of an object. Verts index the owning object's vertex
// table and UVs runs parallel to Verts.
type Polygon struct {
	Verts    []int
	UVs      []TexCoord
	Material int
	Normal   math.Vec3
}

// NewPolygon returns an uncolored polygon over the given vertex indices.
func NewPolygon(verts ...int) Polygon {
	return Polygon{
		Verts:    verts,
		UVs:      make([]TexCoord, len(verts)),
		Material: NoMaterial,
	}
}

// Len returns the number of vertices in the polygon.
func (p *Polygon) Len() int {
	return len(p.Verts)
}

// PlaneOffset returns d in the plane equation n.p + d = 0, taken through the
// polygon's first vertex.
func (p *Polygon) PlaneOffset(verts []Vertex) float64 {
	if len(p.Verts) == 0 {
		return 0
	}
	return -p.Normal.Dot(verts[p.Verts[0]].Position)
}

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// Texture references an image file mapped onto a material.
type Texture struct {
	File   string
	Width  int
	Height int
}

// Material is an entry in the scene's material table.
type Material struct {
	Name    string
	Color   RGB
	Texture *Texture
}

// Object is a named mesh with optional animation.
type Object struct {
	Name     string
	Vertices []Vertex
	Polygons []Polygon

	// Hierarchy links are indices into Scene.Objects, or None.
	Parent      int
	FirstChild  int
	NextSibling int

	// Pivot is the point rotation keys turn about.
	Pivot math.Vec3
	// MeshMatrix is the object's rest transform as stored in the file.
	MeshMatrix math.Mat43
	// Frames holds one local-to-parent transform per animation frame.
	Frames []math.Mat43
}

// NewObject returns an empty object with no hierarchy links.
func NewObject(name string) *Object {
	return &Object{
		Name:        name,
		Parent:      None,
		FirstChild:  None,
		NextSibling: None,
		MeshMatrix:  math.Identity(),
	}
}

// AddVertex appends a vertex and returns its index.
func (o *Object) AddVertex(v Vertex) int {
	o.Vertices = append(o.Vertices, v)
	return len(o.Vertices) - 1
}

// AddPolygon appends a polygon and returns its index.
func (o *Object) AddPolygon(p Polygon) int {
	o.Polygons = append(o.Polygons, p)
	return len(o.Polygons) - 1
}

// NumFrames returns the number of animation frames.
func (o *Object) NumFrames() int {
	return len(o.Frames)
}

// Scene is one conversion run's arena of objects and materials.
type Scene struct {
	Objects   []*Object
	Materials []Material
	// Root is the first parentless object once the hierarchy is resolved,
	// or None.
	Root int
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{Root: None}
}

// AddMaterial appends a material. Names must be unique.
func (s *Scene) AddMaterial(m Material) (int, error) {
	if _, ok := s.MaterialIndex(m.Name); ok {
		return None, fmt.Errorf("%w: %s", ErrDuplicateMaterial, m.Name)
	}
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1, nil
}

// MaterialIndex returns the table index of the named material.
func (s *Scene) MaterialIndex(name string) (int, bool) {
	for i := range s.Materials {
		if s.Materials[i].Name == name {
			return i, true
		}
	}
	return None, false
}

// CreateObject appends a new empty object. Names must be unique.
func (s *Scene) CreateObject(name string) (int, *Object, error) {
	if s.FindObject(name) != None {
		return None, nil, fmt.Errorf("%w: %s", ErrDuplicateObject, name)
	}
	obj := NewObject(name)
	s.Objects = append(s.Objects, obj)
	return len(s.Objects) - 1, obj, nil
}

// FindObject returns the index of the named object, or None.
func (s *Scene) FindObject(name string) int {
	for i, obj := range s.Objects {
		if obj.Name == name {
			return i
		}
	}
	return None
}

// Link makes child the newest child of parent.
func (s *Scene) Link(child, parent int) {
	c := s.Objects[child]
	p := s.Objects[parent]
	c.Parent = parent
	c.NextSibling = p.FirstChild
	p.FirstChild = child
}

// Children returns the indices of an object's children, newest first.
func (s *Scene) Children(idx int) []int {
	var out []int
	for c := s.Objects[idx].FirstChild; c != None; c = s.Objects[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// ResolveRoot picks the first parentless object as the hierarchy root and
// chains every later parentless object onto it as a sibling.
func (s *Scene) ResolveRoot() (int, error) {
	root := None
	for i, obj := range s.Objects {
		if obj.Parent == None {
			root = i
			break
		}
	}
	if root == None {
		return None, ErrNoRoot
	}
	r := s.Objects[root]
	for i := root + 1; i < len(s.Objects); i++ {
		obj := s.Objects[i]
		if obj.Parent == None {
			obj.NextSibling = r.NextSibling
			r.NextSibling = i
		}
	}
	s.Root = root
	return root, nil
}

// TotalVertices returns the number of vertices across all objects.
func (s *Scene) TotalVertices() int {
	n := 0
	for _, obj := range s.Objects {
		n += len(obj.Vertices)
	}
	return n
}

// TotalPolygons returns the number of polygons across all objects.
func (s *Scene) TotalPolygons() int {
	n := 0
	for _, obj := range s.Objects {
		n += len(obj.Polygons)
	}
	return n
}

// Animated reports whether any object carries frames.
func (s *Scene) Animated() bool {
	for _, obj := range s.Objects {
		if len(obj.Frames) > 0 {
			return true
		}
	}
	return false
}
