package preview

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/mathutil"
)

// DefaultFOV is the perspective field of view in degrees.
const DefaultFOV = 40

// Camera orients the figure before projection. Yaw turns about Y, then
// pitch tilts about X.
type Camera struct {
	Yaw, Pitch  float32
	Perspective bool
	FOV         float32
}

// ViewMatrix returns the camera rotation.
func (c Camera) ViewMatrix() mgl32.Mat4 {
	return mathutil.EulerMatrix(mgl32.Vec3{c.Pitch, c.Yaw, 0}, mathutil.RotYXZ)
}

// Projected holds screen coordinates per point; larger Z is nearer.
type Projected struct {
	X, Y, Z []float32
}

// Project frames points into a size×size screen with margin pixels free on
// each side, centred on their bounding box.
func Project(points []mgl32.Vec3, cam Camera, size, margin int) Projected {
	n := len(points)
	out := Projected{X: make([]float32, n), Y: make([]float32, n), Z: make([]float32, n)}
	if n == 0 {
		return out
	}

	view := cam.ViewMatrix()
	ts := make([]mgl32.Vec3, n)
	lo := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := lo.Mul(-1)
	for i, p := range points {
		t := mathutil.TransformPoint(view, p)
		ts[i] = t
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], t[k])
			hi[k] = max(hi[k], t[k])
		}
	}
	center := lo.Add(hi).Mul(0.5)

	// Perspective shrinks far points toward the centre.
	var camDist float32
	if cam.Perspective {
		fov := cam.FOV
		if fov <= 0 {
			fov = DefaultFOV
		}
		var xyMax float32
		for _, t := range ts {
			xyMax = max(xyMax, abs32(t[0]-center[0]), abs32(t[1]-center[1]))
		}
		xyMax = max(xyMax, 0.001)
		camDist = xyMax / float32(math.Tan(float64(mgl32.DegToRad(fov/2))))
		for i, t := range ts {
			f := camDist / max(camDist-(t[2]-center[2]), 0.1)
			ts[i][0] = center[0] + (t[0]-center[0])*f
			ts[i][1] = center[1] + (t[1]-center[1])*f
		}
	}

	span := max(hi[0]-lo[0], hi[1]-lo[1], 0.001)
	scale := float32(size-2*margin) / span
	half := float32(size) / 2
	for i, t := range ts {
		out.X[i] = (t[0]-center[0])*scale + half
		out.Y[i] = -(t[1]-center[1])*scale + half
		out.Z[i] = t[2]
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
