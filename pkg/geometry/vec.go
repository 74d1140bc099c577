package geometry

import (
	"github.com/flywave/go3d/float64/vec3"

	"github.com/Faultbox/3dsconv/pkg/math"
)

func toVec3(v math.Vec3) vec3.T {
	return vec3.T{v.X, v.Y, v.Z}
}

// Bounds returns the axis aligned box around a set of vertices. An empty
// set yields vec3.MinBox.
func Bounds(points []math.Vec3) vec3.Box {
	box := vec3.MinBox
	for _, p := range points {
		v := toVec3(p)
		box.Extend(&v)
	}
	return box
}
