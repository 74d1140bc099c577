package formats

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/Faultbox/3dsconv/pkg/chunk"
	"github.com/Faultbox/3dsconv/pkg/math"
	"github.com/Faultbox/3dsconv/pkg/scene"
)

// Keyframe chunk tags.
const (
	idKFData chunk.ID = 0xB000
	idKFHdr  chunk.ID = 0xB00A

	idObjectNode    chunk.ID = 0xB002
	idCameraNode    chunk.ID = 0xB003
	idTargetNode    chunk.ID = 0xB004
	idLightNode     chunk.ID = 0xB005
	idLTargetNode   chunk.ID = 0xB006
	idSpotlightNode chunk.ID = 0xB007

	idNodeHdr  chunk.ID = 0xB010
	idPivot    chunk.ID = 0xB013
	idPosTrack chunk.ID = 0xB020
	idRotTrack chunk.ID = 0xB021
)

// maxFrames bounds the frame count a keyframe header may declare.
const maxFrames = 0x10000

var nodeTags = []chunk.ID{
	idObjectNode, idCameraNode, idTargetNode,
	idLightNode, idLTargetNode, idSpotlightNode,
}

// Basis changes between the 3D Studio frame (z up) and the output frame.
var (
	coord3DS = math.Mat43{
		{1, 0, 0, 0},
		{0, 0, -1, 0},
		{0, 1, 0, 0},
	}
	coord3DSInv = math.Mat43{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, -1, 0, 0},
	}
)

// Track holds one object node's keys, indexed by frame. After Interpolate
// every frame carries a value.
type Track struct {
	Pos    []math.Vec3
	PosKey []bool

	Axis   []math.Vec3
	Angle  []float64
	RotKey []bool
}

// NewTrack returns a track of n frames with no keys.
func NewTrack(n int) *Track {
	return &Track{
		Pos:    make([]math.Vec3, n),
		PosKey: make([]bool, n),
		Axis:   make([]math.Vec3, n),
		Angle:  make([]float64, n),
		RotKey: make([]bool, n),
	}
}

// Frames returns the number of frames in the track.
func (t *Track) Frames() int {
	return len(t.Pos)
}

// SetPosition stores a position key.
func (t *Track) SetPosition(frame int, p math.Vec3) {
	t.Pos[frame] = p
	t.PosKey[frame] = true
}

// SetRotation stores a rotation key.
func (t *Track) SetRotation(frame int, axis math.Vec3, angle float64) {
	t.Axis[frame] = axis
	t.Angle[frame] = angle
	t.RotKey[frame] = true
}

// Interpolate fills every frame between keys by linear interpolation and
// holds the outermost keys to the ends of the track. A channel with no keys
// at all rests at defaultPos, or at a zero rotation about z.
func (t *Track) Interpolate(defaultPos math.Vec3) {
	n := t.Frames()
	if n == 0 {
		return
	}

	first, last, ok := keyRange(t.PosKey)
	if !ok {
		t.SetPosition(0, defaultPos)
		first, last = 0, 0
	}
	if first != 0 {
		t.SetPosition(0, t.Pos[first])
	}
	if last != n-1 {
		t.SetPosition(n-1, t.Pos[last])
	}
	i0, p0 := 0, t.Pos[0]
	for i1 := 1; i1 < n; i1++ {
		if !t.PosKey[i1] {
			continue
		}
		p1 := t.Pos[i1]
		span := float64(i1 - i0)
		for i := i0 + 1; i < i1; i++ {
			k := float64(i - i0)
			t.Pos[i] = math.Vec3{
				X: p0.X + k*(p1.X-p0.X)/span,
				Y: p0.Y + k*(p1.Y-p0.Y)/span,
				Z: p0.Z + k*(p1.Z-p0.Z)/span,
			}
		}
		i0, p0 = i1, p1
	}

	first, last, ok = keyRange(t.RotKey)
	if !ok {
		t.SetRotation(0, math.Vec3{Z: 1}, 0)
		first, last = 0, 0
	}
	if first != 0 {
		t.SetRotation(0, t.Axis[first], t.Angle[first])
	}
	if last != n-1 {
		t.SetRotation(n-1, t.Axis[last], t.Angle[last])
	}
	i0 = 0
	x0, a0 := t.Axis[0], t.Angle[0]
	for i1 := 1; i1 < n; i1++ {
		if !t.RotKey[i1] {
			continue
		}
		x1, a1 := t.Axis[i1], t.Angle[i1]
		// take the short way round
		if x0.Dot(x1) < 0 {
			x1 = x1.Neg()
			a1 = -a1
		}
		span := float64(i1 - i0)
		for i := i0 + 1; i < i1; i++ {
			k := float64(i - i0)
			t.Axis[i] = math.Vec3{
				X: x0.X + k*(x1.X-x0.X)/span,
				Y: x0.Y + k*(x1.Y-x0.Y)/span,
				Z: x0.Z + k*(x1.Z-x0.Z)/span,
			}
			t.Angle[i] = a0 + k*(a1-a0)/span
		}
		i0, x0, a0 = i1, x1, a1
	}
}

func keyRange(keys []bool) (first, last int, ok bool) {
	first, last = -1, -1
	for i, k := range keys {
		if !k {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last, first >= 0
}

// LocalTransform composes the transform of one frame about a pivot: rotate
// about the pivot, then move by the position relative to the pivot.
func (t *Track) LocalTransform(frame int, pivot math.Vec3) math.Mat43 {
	a := math.TranslateVec(pivot.Neg())
	b := math.RotateAxis(t.Axis[frame], t.Angle[frame])
	c := b.Mul(a)
	c = math.TranslateVec(pivot).Mul(c)
	return math.TranslateVec(t.Pos[frame].Sub(pivot)).Mul(c)
}

// FrameMatrix converts a local transform into the output frame: it is put
// under the parent's mesh matrix (if any), relative to the object's own mesh
// matrix, and conjugated into the output basis.
func FrameMatrix(local, own math.Mat43, parent *math.Mat43) math.Mat43 {
	c := local
	if parent != nil {
		c = parent.Mul(c)
	}
	c = c.Mul(own.RigidInverse())
	c = c.Mul(coord3DSInv)
	return coord3DS.Mul(c)
}

// kfNode is an object node read from the keyframe section.
type kfNode struct {
	index  int // node slot, shared with non-object nodes
	object int
	pivot  math.Vec3
	track  *Track
}

func (d *tdsDecoder) readKeyframes(body chunk.Span) error {
	kf, ok := d.r.Find(body, idKFData)
	if !ok {
		d.log.Warn("no animation data in file")
		return nil
	}

	hdr, ok := d.r.Find(kf, idKFHdr)
	if !ok {
		return fmt.Errorf("%w: keyframe header", ErrMissingChunk)
	}
	c := d.r.Cursor(hdr)
	c.Uint16() // version
	c.Skip(hdr.Len() - 6)
	maxFrame := c.Uint32()
	if c.Err() != nil {
		return fmt.Errorf("%w: keyframe header", ErrTruncated)
	}
	if maxFrame >= maxFrames {
		return fmt.Errorf("%w: %d frames", ErrBadFrame, uint64(maxFrame)+1)
	}
	numFrames := int(maxFrame) + 1
	d.log.Debug("keyframe header", zap.Int("frames", numFrames))

	var nodes []*kfNode
	slot := 0
	rest := kf
	for {
		ch, ok := d.r.FindAny(rest, nodeTags...)
		if !ok {
			break
		}
		rest = rest.From(ch.Payload.End)
		index := slot
		slot++
		if ch.ID != idObjectNode {
			continue
		}
		node, err := d.readObjectNode(ch.Payload, index, numFrames, nodes)
		if err != nil {
			return err
		}
		nodes = append(nodes, node)
	}

	for _, node := range nodes {
		node.track.Interpolate(node.pivot)
	}
	d.composeFrames(nodes, numFrames)
	return nil
}

func findNode(nodes []*kfNode, index int) *kfNode {
	for _, n := range nodes {
		if n.index == index {
			return n
		}
	}
	return nil
}

func (d *tdsDecoder) readObjectNode(p chunk.Span, index, numFrames int, nodes []*kfNode) (*kfNode, error) {
	hdr, ok := d.r.Find(p, idNodeHdr)
	if !ok {
		return nil, fmt.Errorf("%w: node header", ErrMissingChunk)
	}
	if hdr.Len() < 2 {
		return nil, fmt.Errorf("%w: node header", ErrTruncated)
	}
	name := d.name(d.r.Cursor(hdr).CString())
	parentIndex := int(int16(chunk.Uint16LE(d.buf[hdr.End-2:])))

	obj := d.sc.FindObject(name)
	if obj == scene.None {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	node := &kfNode{index: index, object: obj, track: NewTrack(numFrames)}

	var parent *kfNode
	if parentIndex >= 0 {
		parent = findNode(nodes, parentIndex)
		if parent == nil {
			d.log.Warn("bad keyframe parent index",
				zap.String("object", name), zap.Int("index", parentIndex))
		} else {
			d.sc.Link(obj, parent.object)
		}
	}

	if piv, ok := d.r.Find(p, idPivot); ok {
		c := d.r.Cursor(piv)
		node.pivot.X, node.pivot.Y, node.pivot.Z = c.Point()
		if c.Err() != nil {
			return nil, fmt.Errorf("%w: pivot of %s", ErrTruncated, name)
		}
	}

	if pos, ok := d.r.Find(p, idPosTrack); ok {
		err := d.readKeys(pos, name, numFrames, func(frame int, c *chunk.Cursor) {
			var v math.Vec3
			v.X, v.Y, v.Z = c.Point()
			if parent != nil {
				v = v.Add(parent.pivot)
			}
			node.track.SetPosition(frame, v)
		})
		if err != nil {
			return nil, err
		}
	}

	if rot, ok := d.r.Find(p, idRotTrack); ok {
		err := d.readKeys(rot, name, numFrames, func(frame int, c *chunk.Cursor) {
			angle := c.Float()
			var axis math.Vec3
			axis.X, axis.Y, axis.Z = c.Point()
			node.track.SetRotation(frame, axis, angle)
		})
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// readKeys walks a track chunk: a 10-byte header, a key count, then per key
// a frame number, a spline flag word whose set bits each add a float to
// skip, and the value read by fn.
func (d *tdsDecoder) readKeys(s chunk.Span, name string, numFrames int, fn func(frame int, c *chunk.Cursor)) error {
	c := d.r.Cursor(s)
	c.Skip(10)
	n := c.Uint32()
	for i := uint32(0); i < n; i++ {
		frame := int(c.Int32())
		spline := c.Uint16()
		c.Skip(4 * bits.OnesCount16(spline))
		if c.Err() != nil {
			return fmt.Errorf("%w: track of %s", ErrTruncated, name)
		}
		if frame < 0 || frame >= numFrames {
			return fmt.Errorf("%w: frame %d for %s", ErrBadFrame, frame, name)
		}
		fn(frame, c)
		if c.Err() != nil {
			return fmt.Errorf("%w: track of %s", ErrTruncated, name)
		}
	}
	if c.Err() != nil {
		return fmt.Errorf("%w: track of %s", ErrTruncated, name)
	}
	return nil
}

func (d *tdsDecoder) composeFrames(nodes []*kfNode, numFrames int) {
	for _, node := range nodes {
		obj := d.sc.Objects[node.object]
		obj.Pivot = node.pivot
		obj.Frames = make([]math.Mat43, numFrames)

		var parent *math.Mat43
		if obj.Parent != scene.None {
			m := d.sc.Objects[obj.Parent].MeshMatrix
			parent = &m
		}
		for i := 0; i < numFrames; i++ {
			local := node.track.LocalTransform(i, node.pivot)
			obj.Frames[i] = FrameMatrix(local, obj.MeshMatrix, parent)
		}
	}
}
