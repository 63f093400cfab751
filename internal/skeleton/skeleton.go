package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/mathutil"
)

// Header field offsets.
const (
	offNodeCount = 16
	offNodes     = 20
	offStrings   = 24
	offWorld     = 28
	offInvWorld  = 32
	offLocal     = 36
	offLocalPos  = 40
	offLocalRot  = 44
	offLocalScl  = 48
	offMoveNode  = 52
	offRootNode  = 54
	headerSize   = 56
	nodeSize     = 16
	matSize      = 64
	vecSize      = 12
)

// TypeSlerp marks joints whose rotations interpolate through quaternions.
const TypeSlerp uint16 = 0x8000

// Node is one entry of the flattened hierarchy.
type Node struct {
	Parent         int16 // -1 for roots
	Level          uint16
	NameID         uint32
	PathID         uint32
	Type           uint16
	RotationOrder  mathutil.RotationOrder
	TransformOrder mathutil.TransformOrder
}

// Skeleton is a read-only view over a skeleton blob plus its rest pose.
// It may be shared by any number of rigs.
type Skeleton struct {
	blob  *blob.Blob
	nodes blob.View
	names blob.Names
	count int

	move, root int

	local, world, invWorld []mgl32.Mat4
	pos, rot, scl          []mgl32.Vec3

	byName map[string]int
	byPath map[string]int
}

// Open checks the blob kind and derives whatever rest pose data the blob
// leaves out.
func Open(b *blob.Blob) (*Skeleton, error) {
	if err := b.Expect(blob.KindSkeleton); err != nil {
		return nil, fmt.Errorf("skeleton: %w", err)
	}
	hdr := b.Root()
	s := &Skeleton{
		blob:  b,
		names: b.Names(offStrings),
		count: int(hdr.U32(offNodeCount)),
		move:  int(hdr.I16(offMoveNode)),
		root:  int(hdr.I16(offRootNode)),
	}
	nodes, ok := hdr.Sub(offNodes)
	if s.count > 0 && (!ok || nodes.Base()+s.count*nodeSize > b.Size()) {
		return nil, fmt.Errorf("skeleton: node table for %d nodes out of range", s.count)
	}
	s.nodes = nodes
	if s.move >= s.count {
		s.move = -1
	}
	if s.root < 0 || s.root >= s.count {
		s.root = 0
	}

	s.byName = make(map[string]int, s.count)
	s.byPath = make(map[string]int, s.count)
	for i := 0; i < s.count; i++ {
		if n := s.Name(i); n != "" {
			if _, dup := s.byName[n]; !dup {
				s.byName[n] = i
			}
		}
		if p := s.Path(i); p != "" {
			if _, dup := s.byPath[p]; !dup {
				s.byPath[p] = i
			}
		}
	}
	s.deriveRestPose(hdr)
	return s, nil
}

// NodeCount is 0 for a nil skeleton.
func (s *Skeleton) NodeCount() int {
	if s == nil {
		return 0
	}
	return s.count
}

// MoveNode is the node carrying root motion, or -1.
func (s *Skeleton) MoveNode() int {
	if s == nil {
		return -1
	}
	return s.move
}

// RootNode is the node that receives world placement, -1 for a nil
// skeleton.
func (s *Skeleton) RootNode() int {
	if s == nil {
		return -1
	}
	return s.root
}

// Node returns node i, or a parentless zero node when i is out of range.
func (s *Skeleton) Node(i int) Node {
	if i < 0 || i >= s.count {
		return Node{Parent: -1}
	}
	v := s.nodes.At(i * nodeSize)
	return Node{
		Parent:         v.I16(0),
		Level:          v.U16(2),
		NameID:         v.U32(4),
		PathID:         v.U32(8),
		Type:           v.U16(12),
		RotationOrder:  mathutil.RotationOrder(v.U8(14)),
		TransformOrder: mathutil.TransformOrder(v.U8(15)),
	}
}

// Parent returns the parent index of node i, or -1.
func (s *Skeleton) Parent(i int) int {
	p := int(s.Node(i).Parent)
	if p < 0 || p >= s.count || p == i {
		return -1
	}
	return p
}

func (s *Skeleton) Name(i int) string {
	if i < 0 || i >= s.count {
		return ""
	}
	return s.names.Lookup(s.nodes.At(i * nodeSize).U32(4))
}

func (s *Skeleton) Path(i int) string {
	if i < 0 || i >= s.count {
		return ""
	}
	return s.names.Lookup(s.nodes.At(i * nodeSize).U32(8))
}

// FindByName returns the first node with the given name, or -1.
func (s *Skeleton) FindByName(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// FindByPath returns the first node with the given path, or -1.
func (s *Skeleton) FindByPath(path string) int {
	if i, ok := s.byPath[path]; ok {
		return i
	}
	return -1
}

// Slerp reports whether node i is flagged for quaternion rotation blending.
func (s *Skeleton) Slerp(i int) bool {
	return s.Node(i).Type&TypeSlerp != 0
}

func (s *Skeleton) RestLocal(i int) mgl32.Mat4 {
	if i < 0 || i >= s.count {
		return mgl32.Ident4()
	}
	return s.local[i]
}

func (s *Skeleton) RestWorld(i int) mgl32.Mat4 {
	if i < 0 || i >= s.count {
		return mgl32.Ident4()
	}
	return s.world[i]
}

func (s *Skeleton) InverseWorld(i int) mgl32.Mat4 {
	if i < 0 || i >= s.count {
		return mgl32.Ident4()
	}
	return s.invWorld[i]
}

// RestPos, RestRot (degrees) and RestScale are the rest local channels.
func (s *Skeleton) RestPos(i int) mgl32.Vec3 {
	if i < 0 || i >= s.count {
		return mgl32.Vec3{}
	}
	return s.pos[i]
}

func (s *Skeleton) RestRot(i int) mgl32.Vec3 {
	if i < 0 || i >= s.count {
		return mgl32.Vec3{}
	}
	return s.rot[i]
}

func (s *Skeleton) RestScale(i int) mgl32.Vec3 {
	if i < 0 || i >= s.count {
		return mathutil.One
	}
	return s.scl[i]
}

// RestLocals copies every rest local matrix into dst.
func (s *Skeleton) RestLocals(dst []mgl32.Mat4) {
	copy(dst, s.local)
}

func readMats(hdr blob.View, field, n int) []mgl32.Mat4 {
	v, ok := hdr.Sub(field)
	if !ok {
		return nil
	}
	out := make([]mgl32.Mat4, n)
	for i := range out {
		out[i] = v.Mat4(i * matSize)
	}
	return out
}

func readVecs(hdr blob.View, field, n int) []mgl32.Vec3 {
	v, ok := hdr.Sub(field)
	if !ok {
		return nil
	}
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = v.Vec3(i * vecSize)
	}
	return out
}

// deriveRestPose fills the rest arrays, preferring stored data and
// falling back to local = world · inverse(parent world), then to the
// stored channels, then to identity.
func (s *Skeleton) deriveRestPose(hdr blob.View) {
	n := s.count
	s.world = readMats(hdr, offWorld, n)
	s.invWorld = readMats(hdr, offInvWorld, n)
	s.local = readMats(hdr, offLocal, n)
	s.pos = readVecs(hdr, offLocalPos, n)
	s.rot = readVecs(hdr, offLocalRot, n)
	s.scl = readVecs(hdr, offLocalScl, n)
	haveChannels := s.pos != nil || s.rot != nil || s.scl != nil

	if s.local == nil {
		s.local = make([]mgl32.Mat4, n)
		for i := range s.local {
			nd := s.Node(i)
			switch {
			case s.world != nil:
				s.local[i] = s.world[i]
				if p := s.Parent(i); p >= 0 {
					s.local[i] = mathutil.Mul(s.world[i], s.parentInverse(p))
				}
			case haveChannels:
				s.local[i] = mathutil.Compose(vecAt(s.pos, i, mgl32.Vec3{}), vecAt(s.rot, i, mgl32.Vec3{}),
					vecAt(s.scl, i, mathutil.One), nd.RotationOrder, nd.TransformOrder)
			default:
				s.local[i] = mgl32.Ident4()
			}
		}
	}

	if s.pos == nil || s.rot == nil || s.scl == nil {
		pos, rot, scl := make([]mgl32.Vec3, n), make([]mgl32.Vec3, n), make([]mgl32.Vec3, n)
		for i := range s.local {
			nd := s.Node(i)
			pos[i], rot[i], scl[i] = mathutil.Decompose(s.local[i], nd.RotationOrder, nd.TransformOrder)
		}
		if s.pos == nil {
			s.pos = pos
		}
		if s.rot == nil {
			s.rot = rot
		}
		if s.scl == nil {
			s.scl = scl
		}
	}

	if s.world == nil {
		s.world = make([]mgl32.Mat4, n)
		PropagateWorld(s, s.local, s.world)
	}
	if s.invWorld == nil {
		s.invWorld = make([]mgl32.Mat4, n)
		for i := range s.world {
			s.invWorld[i] = mathutil.Inverse(s.world[i])
		}
	}
}

func (s *Skeleton) parentInverse(p int) mgl32.Mat4 {
	if s.invWorld != nil {
		return s.invWorld[p]
	}
	return mathutil.Inverse(s.world[p])
}

func vecAt(vs []mgl32.Vec3, i int, def mgl32.Vec3) mgl32.Vec3 {
	if vs == nil {
		return def
	}
	return vs[i]
}
