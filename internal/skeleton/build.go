package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/mathutil"
)

// RestData selects which rest arrays Build stores. Anything left out is
// derived again by Open.
type RestData uint8

const (
	RestWorld RestData = 1 << iota
	RestInvWorld
	RestLocal
	RestChannels

	RestAll = RestWorld | RestInvWorld | RestLocal | RestChannels
)

// NodeDesc describes one node for Build. A zero Scale means unit scale.
type NodeDesc struct {
	Name           string
	Path           string
	Parent         int
	Type           uint16
	RotationOrder  mathutil.RotationOrder
	TransformOrder mathutil.TransformOrder
	Pos, Rot       mgl32.Vec3
	Scale          mgl32.Vec3
}

// Desc describes a whole skeleton.
type Desc struct {
	Nodes    []NodeDesc
	MoveNode int // -1 for none
	RootNode int
	ShiftJIS bool
	Rest     RestData // 0 stores everything
}

type flatHierarchy []int

func (h flatHierarchy) NodeCount() int   { return len(h) }
func (h flatHierarchy) Parent(i int) int { return h[i] }

// Build encodes a skeleton blob. Parents must precede their children.
func Build(d Desc) ([]byte, error) {
	n := len(d.Nodes)
	rest := d.Rest
	if rest == 0 {
		rest = RestAll
	}
	parents := make(flatHierarchy, n)
	levels := make([]int, n)
	local := make([]mgl32.Mat4, n)
	for i, nd := range d.Nodes {
		if nd.Parent >= i {
			return nil, fmt.Errorf("skeleton: node %d (%s) has parent %d, parents must come first", i, nd.Name, nd.Parent)
		}
		parents[i] = nd.Parent
		if nd.Parent >= 0 {
			levels[i] = levels[nd.Parent] + 1
		} else {
			parents[i] = -1
		}
		local[i] = mathutil.Compose(nd.Pos, nd.Rot, scaleOf(nd), nd.RotationOrder, nd.TransformOrder)
	}
	world := make([]mgl32.Mat4, n)
	PropagateWorld(parents, local, world)

	var flags uint32
	if d.ShiftJIS {
		flags |= blob.FlagShiftJIS
	}
	names := blob.NewStringTable(d.ShiftJIS)
	b := blob.NewBuilder(blob.KindSkeleton, flags, headerSize)
	b.PutU32(offNodeCount, uint32(n))
	b.PutI16(offMoveNode, int16(d.MoveNode))
	b.PutI16(offRootNode, int16(d.RootNode))

	if n > 0 {
		nodes := b.Reserve(n * nodeSize)
		b.Link(0, offNodes, nodes)
		for i, nd := range d.Nodes {
			p := nodes + i*nodeSize
			b.PutI16(p, int16(parents[i]))
			b.PutU16(p+2, uint16(levels[i]))
			b.PutU32(p+4, names.ID(nd.Name))
			b.PutU32(p+8, names.ID(nd.Path))
			b.PutU16(p+12, nd.Type)
			b.PutU8(p+14, uint8(nd.RotationOrder))
			b.PutU8(p+15, uint8(nd.TransformOrder))
		}
	}
	if n > 0 && rest&RestWorld != 0 {
		b.Link(0, offWorld, putMats(b, world))
	}
	if n > 0 && rest&RestInvWorld != 0 {
		inv := make([]mgl32.Mat4, n)
		for i := range world {
			inv[i] = mathutil.Inverse(world[i])
		}
		b.Link(0, offInvWorld, putMats(b, inv))
	}
	if n > 0 && rest&RestLocal != 0 {
		b.Link(0, offLocal, putMats(b, local))
	}
	if n > 0 && rest&RestChannels != 0 {
		pos, rot, scl := make([]mgl32.Vec3, n), make([]mgl32.Vec3, n), make([]mgl32.Vec3, n)
		for i, nd := range d.Nodes {
			pos[i], rot[i], scl[i] = nd.Pos, nd.Rot, scaleOf(nd)
		}
		b.Link(0, offLocalPos, putVecs(b, pos))
		b.Link(0, offLocalRot, putVecs(b, rot))
		b.Link(0, offLocalScl, putVecs(b, scl))
	}

	if err := names.Err(); err != nil {
		return nil, fmt.Errorf("skeleton: encode names: %w", err)
	}
	b.Link(0, offStrings, b.AppendBytes(names.Bytes()))
	return b.Bytes(), nil
}

func scaleOf(nd NodeDesc) mgl32.Vec3 {
	if nd.Scale == (mgl32.Vec3{}) {
		return mathutil.One
	}
	return nd.Scale
}

func putMats(b *blob.Builder, ms []mgl32.Mat4) int {
	pos := b.Reserve(len(ms) * matSize)
	for i, m := range ms {
		b.PutMat4(pos+i*matSize, m)
	}
	return pos
}

func putVecs(b *blob.Builder, vs []mgl32.Vec3) int {
	pos := b.Reserve(len(vs) * vecSize)
	for i, v := range vs {
		b.PutVec3(pos+i*vecSize, v)
	}
	return pos
}
