// Package geometry normalizes decoded meshes: it welds near-duplicate
// vertices, computes face and vertex normals, merges coplanar triangles into
// convex polygons and gives uncolored faces a default material.
package geometry

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Default tolerances.
const (
	DefaultPointDelta = 1.0
	DefaultFaceDelta  = 0.01
)

// Options controls post-processing.
type Options struct {
	// PointDelta is the Manhattan distance below which two vertices weld.
	PointDelta float64
	// FaceDelta is the Manhattan normal difference two faces may have and
	// still merge.
	FaceDelta float64
	// MergeTriangles enables the face merge pass.
	MergeTriangles bool
	Logger         *zap.Logger
}

// DefaultOptions returns the standard post-processing settings.
func DefaultOptions() Options {
	return Options{
		PointDelta:     DefaultPointDelta,
		FaceDelta:      DefaultFaceDelta,
		MergeTriangles: true,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Process runs the full post-processing pipeline over every object of the
// scene: vertex merge, vertex normals, optional face merge and finally
// uncolored face resolution.
func Process(sc *scene.Scene, opts Options) {
	log := opts.logger()

	log.Debug("merging vertices")
	for _, obj := range sc.Objects {
		before := len(obj.Vertices)
		MergeVertices(obj, opts.PointDelta)
		if len(obj.Vertices) != before {
			log.Debug("merged points",
				zap.String("object", obj.Name),
				zap.Int("from", before),
				zap.Int("to", len(obj.Vertices)))
		}
	}

	log.Debug("calculating vertex normals")
	for _, obj := range sc.Objects {
		VertexNormals(obj)
	}

	if opts.MergeTriangles {
		log.Debug("merging faces")
		for _, obj := range sc.Objects {
			before := len(obj.Polygons)
			if n := MergeFaces(obj, opts.FaceDelta); n > 0 {
				log.Debug("merged triangles",
					zap.String("object", obj.Name),
					zap.Int("from", before),
					zap.Int("to", len(obj.Polygons)))
			}
		}
	}

	if n := ResolveUncolored(sc); n > 0 {
		log.Warn("uncolored faces", zap.Int("count", n))
	}
}

// ResolveUncolored assigns every polygon without a material to a gray
// default material appended to the scene. It returns the number of polygons
// that were changed; the material is only added when that is non-zero.
func ResolveUncolored(sc *scene.Scene) int {
	idx := len(sc.Materials)
	count := 0
	for _, obj := range sc.Objects {
		for i := range obj.Polygons {
			if obj.Polygons[i].Material == scene.NoMaterial {
				obj.Polygons[i].Material = idx
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}

	name := scene.DefaultMaterialName
	for n := 2; ; n++ {
		if _, taken := sc.MaterialIndex(name); !taken {
			break
		}
		name = fmt.Sprintf("%s %d", scene.DefaultMaterialName, n)
	}
	// The name is free, so this cannot fail.
	_, _ = sc.AddMaterial(scene.Material{
		Name:  name,
		Color: scene.RGB{R: 128, G: 128, B: 128},
	})
	return count
}
