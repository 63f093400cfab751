package riglink

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/workpool"
)

// Pose is the per-rig state sampling writes: one local matrix and one
// Params per skeleton node.
type Pose struct {
	Local  []mgl32.Mat4
	Params []pose.Params
}

func (l *Link) fits(p Pose) bool {
	n := len(l.rigMap)
	return l.clip != nil && len(p.Local) >= n && len(p.Params) >= n
}

// Eval samples every linked node at frame on the calling goroutine.
func (l *Link) Eval(frame float32, extrapolate bool, p Pose) {
	if !l.fits(p) {
		return
	}
	for i := range l.nodes {
		l.evalNode(i, frame, extrapolate, p)
	}
}

// EvalParallel samples one linked node per pool job and returns once all
// of them are done. Each job writes only its own rig node's slots.
func (l *Link) EvalParallel(pool *workpool.Pool, frame float32, extrapolate bool, p Pose) {
	if !l.fits(p) {
		return
	}
	pool.Run(len(l.nodes), func(i int) {
		l.evalNode(i, frame, extrapolate, p)
	})
}

func (l *Link) evalNode(i int, frame float32, extrapolate bool, p Pose) {
	n := &l.nodes[i]
	rig := n.RigNode
	prm := &p.Params[rig]
	prm.Pos = l.skel.RestPos(rig)
	prm.Rot = l.skel.RestRot(rig)
	prm.Scl = l.skel.RestScale(rig)

	var touched pose.Mask
	if n.Pos != nil {
		var m pose.Mask
		prm.Pos, m = l.sample(n.Pos, 0, frame, extrapolate)
		touched |= m
	}
	if n.Rot != nil {
		var m pose.Mask
		if fno := float32(math.Floor(float64(frame))); n.UseSlerp && frame != fno {
			next := fno + 1
			if int(next) > l.clip.MaxFno() {
				next = 0
			}
			var a mgl32.Vec3
			a, m = l.sample(n.Rot, 1, fno, extrapolate)
			b, _ := l.sample(n.Rot, 1, next, extrapolate)
			prm.Rot = mathutil.SlerpEuler(a, b, frame-fno, n.RotationOrder)
		} else {
			prm.Rot, m = l.sample(n.Rot, 1, frame, extrapolate)
		}
		touched |= m
	}
	if n.Scl != nil {
		var m pose.Mask
		prm.Scl, m = l.sample(n.Scl, 2, frame, extrapolate)
		touched |= m
	}
	prm.Anim |= touched
	if touched != 0 {
		p.Local[rig] = prm.Compose(n.RotationOrder, n.TransformOrder)
	}
}

// sample evaluates the axes of one group, leaving missing axes at the
// seed, and returns the mask of axes that had curves.
func (l *Link) sample(v *Val, group int, frame float32, extrapolate bool) (mgl32.Vec3, pose.Mask) {
	out := v.Seed
	var m pose.Mask
	for a, id := range v.Curve {
		if id < 0 {
			continue
		}
		out[a] = l.clip.Curve(int(id)).Eval(frame, extrapolate)
		m = m.With(pose.Channel(group*3 + a))
	}
	return out, m
}

// SampleGroup evaluates one channel group (0 translation, 1 rotation,
// 2 scale) of rig node rig at frame. ok is false when the clip does not
// animate that group.
func (l *Link) SampleGroup(rig, group int, frame float32, extrapolate bool) (v mgl32.Vec3, ok bool) {
	li := l.LinkIndex(rig)
	if li < 0 || group < 0 || group > 2 {
		return mgl32.Vec3{}, false
	}
	val := l.nodes[li].group(group)
	if val == nil {
		return mgl32.Vec3{}, false
	}
	v, _ = l.sample(val, group, frame, extrapolate)
	return v, true
}
