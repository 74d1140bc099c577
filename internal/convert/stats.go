package convert

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/Faultbox/3dsconv/pkg/geometry"
	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Stats builds a tabular summary of the scene's objects.
func Stats(sc *scene.Scene) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Object", "Vertices", "Polygons", "Frames", "Parent", "Bounds"})

	frames := 0
	for _, obj := range sc.Objects {
		parent := "-"
		if obj.Parent != scene.None {
			parent = sc.Objects[obj.Parent].Name
		}
		frames += obj.NumFrames()
		table.Append([]string{
			obj.Name,
			strconv.Itoa(len(obj.Vertices)),
			strconv.Itoa(len(obj.Polygons)),
			strconv.Itoa(obj.NumFrames()),
			parent,
			fmtBounds(obj),
		})
	}
	table.SetFooter([]string{
		"Total",
		strconv.Itoa(sc.TotalVertices()),
		strconv.Itoa(sc.TotalPolygons()),
		strconv.Itoa(frames),
		" ",
		strconv.Itoa(len(sc.Materials)) + " materials",
	})

	table.Render()
	return buf.String()
}

func fmtBounds(obj *scene.Object) string {
	if len(obj.Vertices) == 0 {
		return "-"
	}
	points := make([]math.Vec3, len(obj.Vertices))
	for i, v := range obj.Vertices {
		points[i] = v.Position
	}
	box := geometry.Bounds(points)
	return fmt.Sprintf("(%.1f %.1f %.1f)-(%.1f %.1f %.1f)",
		box.Min[0], box.Min[1], box.Min[2], box.Max[0], box.Max[1], box.Max[2])
}
