// Package riglink binds a motion clip onto a skeleton by node name and
// samples the bound curves into a rig's local matrices.
package riglink

import (
	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/skeleton"
)

// Val is one bound channel group: its rest seed and the curve id of each
// axis, -1 where the clip has no curve.
type Val struct {
	Seed  mgl32.Vec3
	Curve [3]int32
}

// Node binds one clip node to one skeleton node. Groups the clip does not
// animate are nil.
type Node struct {
	ClipNode       int
	RigNode        int
	RotationOrder  mathutil.RotationOrder
	TransformOrder mathutil.TransformOrder
	UseSlerp       bool
	Pos, Rot, Scl  *Val
}

func (n *Node) group(g int) *Val {
	switch g {
	case 0:
		return n.Pos
	case 1:
		return n.Rot
	}
	return n.Scl
}

// Link is the binding of one clip to one skeleton. It is read-only after
// Build and may be shared by every rig playing the clip.
type Link struct {
	clip   *fcurve.Clip
	skel   *skeleton.Skeleton
	nodes  []Node
	vals   []Val
	rigMap []int16
}

type options struct {
	pathMatch bool
	slerp     func(name string) bool
}

// Option configures Build.
type Option func(*options)

// WithPathMatch binds nodes by full path instead of name.
func WithPathMatch() Option {
	return func(o *options) { o.pathMatch = true }
}

// WithSlerp forces quaternion rotation sampling on nodes whose name
// matches, in addition to nodes the skeleton flags.
func WithSlerp(match func(name string) bool) Option {
	return func(o *options) { o.slerp = match }
}

type match struct {
	clipNode, rigNode int
	curves            [3][3]int32
	present           [3]bool
}

// Build binds clip to skel. A clip node binds when the skeleton has a node
// of the same name (first one wins) and at least one of its channel groups
// has a curve. Nil inputs give an empty link.
func Build(clip *fcurve.Clip, skel *skeleton.Skeleton, opts ...Option) *Link {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	l := &Link{clip: clip, skel: skel}
	if skel != nil {
		l.rigMap = make([]int16, skel.NodeCount())
		for i := range l.rigMap {
			l.rigMap[i] = -1
		}
	}
	if clip == nil || skel == nil {
		return l
	}

	var matches []match
	groups := 0
	for ci := 0; ci < clip.NodeCount(); ci++ {
		name := clip.NodeName(ci)
		rig := skel.FindByName(name)
		if o.pathMatch {
			rig = skel.FindByPath(clip.NodePath(ci))
		}
		if rig < 0 || matchedRig(matches, rig) {
			continue
		}
		m := match{clipNode: ci, rigNode: rig}
		animated := false
		for g := 0; g < 3; g++ {
			chans := pose.GroupChannels(g)
			for a, ch := range chans {
				m.curves[g][a] = int32(clip.FindCurve(name, ch))
				if m.curves[g][a] >= 0 {
					m.present[g] = true
				}
			}
			if m.present[g] {
				groups++
				animated = true
			}
		}
		if animated {
			matches = append(matches, m)
		}
	}

	l.nodes = make([]Node, len(matches))
	l.vals = make([]Val, 0, groups)
	for i, m := range matches {
		nd := skel.Node(m.rigNode)
		n := &l.nodes[i]
		n.ClipNode = m.clipNode
		n.RigNode = m.rigNode
		n.RotationOrder = nd.RotationOrder
		n.TransformOrder = nd.TransformOrder
		n.UseSlerp = skel.Slerp(m.rigNode) || (o.slerp != nil && o.slerp(skel.Name(m.rigNode)))
		seeds := [3]mgl32.Vec3{skel.RestPos(m.rigNode), skel.RestRot(m.rigNode), skel.RestScale(m.rigNode)}
		for g := 0; g < 3; g++ {
			if !m.present[g] {
				continue
			}
			l.vals = append(l.vals, Val{Seed: seeds[g], Curve: m.curves[g]})
			v := &l.vals[len(l.vals)-1]
			switch g {
			case 0:
				n.Pos = v
			case 1:
				n.Rot = v
			default:
				n.Scl = v
			}
		}
		l.rigMap[m.rigNode] = int16(i)
	}
	return l
}

func matchedRig(ms []match, rig int) bool {
	for _, m := range ms {
		if m.rigNode == rig {
			return true
		}
	}
	return false
}

func (l *Link) Clip() *fcurve.Clip           { return l.clip }
func (l *Link) Skeleton() *skeleton.Skeleton { return l.skel }
func (l *Link) NodeCount() int               { return len(l.nodes) }
func (l *Link) ValCount() int                { return len(l.vals) }

// Node returns linked node i.
func (l *Link) Node(i int) Node {
	if i < 0 || i >= len(l.nodes) {
		return Node{ClipNode: -1, RigNode: -1}
	}
	return l.nodes[i]
}

// LinkIndex returns the link node bound to rig node rig, or -1.
func (l *Link) LinkIndex(rig int) int {
	if rig < 0 || rig >= len(l.rigMap) {
		return -1
	}
	return int(l.rigMap[rig])
}
