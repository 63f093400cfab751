package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/mathutil"
)

// Hierarchy is the part of a skeleton world propagation needs.
type Hierarchy interface {
	NodeCount() int
	Parent(i int) int
}

// PropagateWorld computes world[i] = local[i] · world[parent] in storage
// order, which visits parents before children.
func PropagateWorld(h Hierarchy, local, world []mgl32.Mat4) {
	n := h.NodeCount()
	if len(local) < n || len(world) < n {
		return
	}
	for i := 0; i < n; i++ {
		if p := h.Parent(i); p >= 0 {
			world[i] = mathutil.Mul(local[i], world[p])
		} else {
			world[i] = local[i]
		}
	}
}

// SkinningMatrices writes inverse(restWorld[i]) · world[i] into out, the
// per-joint matrices a skinning shader consumes.
func SkinningMatrices(s *Skeleton, world, out []mgl32.Mat4) {
	for i := 0; i < s.NodeCount() && i < len(world) && i < len(out); i++ {
		out[i] = mathutil.Mul(s.InverseWorld(i), world[i])
	}
}
