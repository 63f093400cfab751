// Package rig evaluates one character's pose per frame: curve sampling,
// root motion, motion blending, expressions and world propagation.
package rig

import (
	"fmt"
	"io"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/riglink"
	"rig-runtime/internal/skeleton"
	"rig-runtime/internal/workpool"
)

// DetailFunc resolves detail() calls in expressions.
type DetailFunc func(path, attr string, idx int) float32

// Rig is the mutable pose state of one character. The skeleton, link and
// expression set it references are shared read-only; a Rig itself must be
// driven from one goroutine at a time.
type Rig struct {
	skel  *skeleton.Skeleton
	link  *riglink.Link
	clip  *fcurve.Clip
	exprs *expr.Set

	local, world, prevWorld, blendLocal []mgl32.Mat4
	params                              []pose.Params

	frame          float32
	blendDuration  float32
	blendRemaining float32
	blending       bool

	velocity           mgl32.Vec3
	placePos, placeRot mgl32.Vec3
	placed             bool
	vars               map[string]float32

	machine expr.Machine
	host    host

	pool        *workpool.Pool
	extrapolate bool
	inPlace     bool
	detail      DetailFunc
	logger      *log.Logger
}

// Option configures a Rig.
type Option func(*Rig)

// WithPool fans curve sampling out across p.
func WithPool(p *workpool.Pool) Option {
	return func(r *Rig) { r.pool = p }
}

// WithExtrapolate makes curves continue their last slope across the loop
// seam instead of wrapping toward the first key.
func WithExtrapolate(on bool) Option {
	return func(r *Rig) { r.extrapolate = on }
}

// WithInPlaceMotion resets the movement node to its rest translation after
// the root-motion velocity has been extracted.
func WithInPlaceMotion(on bool) Option {
	return func(r *Rig) { r.inPlace = on }
}

// WithDetail installs the resolver for detail() calls. Without one they
// evaluate to 0.
func WithDetail(fn DetailFunc) Option {
	return func(r *Rig) { r.detail = fn }
}

// WithLogger routes diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(r *Rig) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a rig at rest pose. skel is borrowed, not copied; a nil
// skel gives an empty rig with no nodes.
func New(skel *skeleton.Skeleton, opts ...Option) *Rig {
	n := skel.NodeCount()
	r := &Rig{
		skel:       skel,
		local:      make([]mgl32.Mat4, n),
		world:      make([]mgl32.Mat4, n),
		prevWorld:  make([]mgl32.Mat4, n),
		blendLocal: make([]mgl32.Mat4, n),
		params:     make([]pose.Params, n),
		vars:       make(map[string]float32),
		logger:     log.New(io.Discard, "", 0),
	}
	r.host.r = r
	for _, opt := range opts {
		opt(r)
	}
	r.resetPose()
	skeleton.PropagateWorld(skel, r.local, r.world)
	copy(r.prevWorld, r.world)
	return r
}

// SetMotion starts playing link's clip from frame 0. A nil link stops
// playback and leaves the rig at rest.
func (r *Rig) SetMotion(link *riglink.Link) error {
	if link != nil && link.Skeleton() != r.skel {
		return fmt.Errorf("rig: motion is bound to a different skeleton")
	}
	r.link = link
	r.clip = nil
	if link != nil {
		r.clip = link.Clip()
	}
	r.frame = 0
	r.velocity = mgl32.Vec3{}
	return nil
}

// BindExprs attaches the rig's expressions. Entries aimed at nodes the
// skeleton does not have are skipped when run.
func (r *Rig) BindExprs(set *expr.Set) {
	r.exprs = set
	for i := 0; i < set.Len(); i++ {
		if n := set.Expr(i).Node(); n < 0 || n >= len(r.local) {
			r.logger.Printf("rig: expression %d targets node %d of %d, skipped", i, n, len(r.local))
		}
	}
}

// SetFrame moves the playhead.
func (r *Rig) SetFrame(f float32) { r.frame = f }
func (r *Rig) Frame() float32     { return r.frame }

// SetVar defines a variable for $NAME in expressions. User variables
// shadow the built-in ones.
func (r *Rig) SetVar(name string, v float32) { r.vars[name] = v }

// SetPlacement positions the character in the world: rot (Euler XYZ
// degrees) then pos are applied to the root node after expressions.
func (r *Rig) SetPlacement(pos, rot mgl32.Vec3) {
	r.placePos, r.placeRot = pos, rot
	r.placed = pos != (mgl32.Vec3{}) || rot != (mgl32.Vec3{})
}

// BlendInit snapshots the current local pose and crossfades from it to
// the freshly sampled pose over the next duration evaluations.
func (r *Rig) BlendInit(duration float32) {
	if duration <= 0 {
		r.CancelBlend()
		return
	}
	copy(r.blendLocal, r.local)
	if root := r.skel.RootNode(); r.placed && root >= 0 && root < len(r.local) {
		r.blendLocal[root] = mathutil.Mul(r.local[root], mathutil.Inverse(r.placement()))
	}
	r.blendDuration = duration
	r.blendRemaining = duration
	r.blending = true
}

func (r *Rig) CancelBlend() {
	r.blending = false
	r.blendRemaining = 0
}

func (r *Rig) Blending() bool { return r.blending }

// BlendProgress is the weight of the new pose, 1 when no blend runs.
func (r *Rig) BlendProgress() float32 {
	if !r.blending || r.blendDuration <= 0 {
		return 1
	}
	return (r.blendDuration - r.blendRemaining) / r.blendDuration
}

func (r *Rig) BlendRemaining() float32 { return r.blendRemaining }

// Accessors. Out of range indices give identity / zero values.

func (r *Rig) NodeCount() int               { return len(r.local) }
func (r *Rig) Skeleton() *skeleton.Skeleton { return r.skel }
func (r *Rig) Link() *riglink.Link          { return r.link }
func (r *Rig) Velocity() mgl32.Vec3         { return r.velocity }
func (r *Rig) Locals() []mgl32.Mat4         { return r.local }
func (r *Rig) Worlds() []mgl32.Mat4         { return r.world }
func (r *Rig) Local(i int) mgl32.Mat4       { return matAt(r.local, i) }
func (r *Rig) World(i int) mgl32.Mat4       { return matAt(r.world, i) }
func (r *Rig) PrevWorld(i int) mgl32.Mat4   { return matAt(r.prevWorld, i) }
func (r *Rig) Params(i int) pose.Params     { return paramsAt(r.params, i) }

// SkinningMatrices fills out with the per-node skinning matrices.
func (r *Rig) SkinningMatrices(out []mgl32.Mat4) {
	skeleton.SkinningMatrices(r.skel, r.world, out)
}

func matAt(ms []mgl32.Mat4, i int) mgl32.Mat4 {
	if i < 0 || i >= len(ms) {
		return mgl32.Ident4()
	}
	return ms[i]
}

func paramsAt(ps []pose.Params, i int) pose.Params {
	if i < 0 || i >= len(ps) {
		return pose.Params{Scl: mathutil.One}
	}
	return ps[i]
}
