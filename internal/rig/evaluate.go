package rig

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/riglink"
	"rig-runtime/internal/skeleton"
)

// Evaluate produces the pose for the current frame and then advances the
// playhead by frameStep. It reports whether the playhead wrapped.
func (r *Rig) Evaluate(frameStep float32) (looped bool) {
	r.resetPose()
	if r.link != nil {
		p := riglink.Pose{Local: r.local, Params: r.params}
		if r.pool != nil {
			r.link.EvalParallel(r.pool, r.frame, r.extrapolate, p)
		} else {
			r.link.Eval(r.frame, r.extrapolate, p)
		}
	}
	r.extractRootMotion(frameStep)
	if r.blending {
		r.blend()
	}
	r.execExprs()
	if r.placed {
		root := r.skel.RootNode()
		if root >= 0 && root < len(r.local) {
			r.local[root] = mathutil.Mul(r.local[root], r.placement())
		}
	}
	copy(r.prevWorld, r.world)
	skeleton.PropagateWorld(r.skel, r.local, r.world)

	if r.clip != nil {
		r.frame, looped = r.clip.Advance(r.frame, frameStep)
	}
	return looped
}

// placement is the world placement matrix: rotation, then translation.
func (r *Rig) placement() mgl32.Mat4 {
	return mathutil.Mul(mathutil.EulerMatrix(r.placeRot, mathutil.RotXYZ),
		mgl32.Translate3D(r.placePos[0], r.placePos[1], r.placePos[2]))
}

// resetPose returns every node to rest and clears the channel masks.
func (r *Rig) resetPose() {
	for i := range r.local {
		r.local[i] = r.skel.RestLocal(i)
		r.params[i].Reset(r.skel.RestPos(i), r.skel.RestRot(i), r.skel.RestScale(i))
	}
}

// extractRootMotion measures how far the movement node travelled since
// the previous frame.
func (r *Rig) extractRootMotion(step float32) {
	r.velocity = mgl32.Vec3{}
	move := r.skel.MoveNode()
	if r.link == nil || move < 0 || move >= len(r.params) {
		return
	}
	cur := r.params[move].Pos
	if !r.params[move].Anim.Group(0) {
		return
	}
	if r.frame == 0 {
		r.velocity = cur.Mul(step)
	} else {
		prevFrame := float32(math.Max(float64(r.frame-step), 0))
		prev, _ := r.link.SampleGroup(move, 0, prevFrame, r.extrapolate)
		r.velocity = cur.Sub(prev)
	}
	if r.inPlace {
		nd := r.skel.Node(move)
		r.params[move].Pos = r.skel.RestPos(move)
		r.local[move] = r.params[move].Compose(nd.RotationOrder, nd.TransformOrder)
	}
}

// blend crossfades from the snapshot toward the sampled pose. The
// remaining count drops before the weight is taken, so the last step of
// the window lands exactly on the sampled pose.
func (r *Rig) blend() {
	r.blendRemaining = max(r.blendRemaining-1, 0)
	t := (r.blendDuration - r.blendRemaining) / r.blendDuration
	if r.blendRemaining == 0 {
		r.blending = false
	}
	if t >= 1 {
		return
	}
	for i := range r.local {
		nd := r.skel.Node(i)
		ro, to := nd.RotationOrder, nd.TransformOrder
		p0, r0, s0 := mathutil.Decompose(r.blendLocal[i], ro, to)
		p1, r1, s1 := mathutil.Decompose(r.local[i], ro, to)
		prm := &r.params[i]
		prm.Pos = mathutil.Lerp3(p0, p1, t)
		prm.Scl = mathutil.Lerp3(s0, s1, t)
		prm.Rot = mathutil.SlerpEuler(r0, r1, t, ro)
		r.local[i] = prm.Compose(ro, to)
	}
}

// execExprs runs the bound expressions in declaration order, then
// recomposes every node an expression wrote.
func (r *Rig) execExprs() {
	n := r.exprs.Len()
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		e := r.exprs.Expr(i)
		node, ch := e.Node(), e.Channel()
		if node < 0 || node >= len(r.params) || ch >= pose.NumChannels {
			continue
		}
		r.host.node = node
		v := r.machine.Run(e, &r.host)
		prm := &r.params[node]
		prm.Set(ch, v)
		prm.Expr = prm.Expr.With(ch)
	}
	for i := range r.params {
		prm := &r.params[i]
		if prm.Expr == 0 {
			continue
		}
		nd := r.skel.Node(i)
		pos, rot, scl := mathutil.Decompose(r.local[i], nd.RotationOrder, nd.TransformOrder)
		derived := pose.Params{Pos: pos, Rot: rot, Scl: scl}
		touched := prm.Touched()
		for c := pose.TX; c < pose.NumChannels; c++ {
			if touched.Has(c) {
				derived.Set(c, prm.Get(c))
			}
		}
		prm.Pos, prm.Rot, prm.Scl = derived.Pos, derived.Rot, derived.Scl
		r.local[i] = prm.Compose(nd.RotationOrder, nd.TransformOrder)
	}
}

// channel returns the value of channel c of node: the value written this
// pass if any, else the value decomposed from its local matrix.
func (r *Rig) channel(node int, c pose.Channel) float32 {
	if node < 0 || node >= len(r.params) || c >= pose.NumChannels {
		return 0
	}
	prm := &r.params[node]
	if prm.Touched().Has(c) {
		return prm.Get(c)
	}
	nd := r.skel.Node(node)
	pos, rot, scl := mathutil.Decompose(r.local[node], nd.RotationOrder, nd.TransformOrder)
	derived := pose.Params{Pos: pos, Rot: rot, Scl: scl}
	return derived.Get(c)
}

// host answers expression callbacks for the rig. node is the target of
// the expression being run.
type host struct {
	r      *Rig
	node   int
	result float32
}

// Ch resolves "node/channel" using the last two path components; a bare
// channel name refers to the expression's own node.
func (h *host) Ch(path string) float32 {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	c, ok := pose.ParseChannel(parts[len(parts)-1])
	if !ok {
		return 0
	}
	node := h.node
	if len(parts) > 1 {
		node = h.r.skel.FindByName(parts[len(parts)-2])
	}
	return h.r.channel(node, c)
}

func (h *host) Detail(path, attr string, idx int) float32 {
	if h.r.detail == nil {
		return 0
	}
	return h.r.detail(path, attr, idx)
}

// Var serves user variables first, then $F (whole frame), $FF (exact
// frame), $T (seconds), $FPS and $NFRAMES.
func (h *host) Var(name string) float32 {
	r := h.r
	if v, ok := r.vars[name]; ok {
		return v
	}
	fps := float32(30)
	nframes := float32(0)
	if r.clip != nil {
		fps = r.clip.FPS()
		nframes = float32(r.clip.MaxFno() + 1)
	}
	switch name {
	case "F":
		return float32(math.Floor(float64(r.frame)))
	case "FF":
		return r.frame
	case "T":
		return r.frame / fps
	case "FPS":
		return fps
	case "NFRAMES":
		return nframes
	}
	return 0
}

func (h *host) SetResult(v float32) { h.result = v }
