package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RotationOrder names the sequence in which the three Euler rotations are
// applied. XYZ rotates about X first and Z last.
type RotationOrder uint8

const (
	RotXYZ RotationOrder = iota
	RotXZY
	RotYXZ
	RotYZX
	RotZXY
	RotZYX
)

var rotationAxes = [...][3]int{
	RotXYZ: {0, 1, 2},
	RotXZY: {0, 2, 1},
	RotYXZ: {1, 0, 2},
	RotYZX: {1, 2, 0},
	RotZXY: {2, 0, 1},
	RotZYX: {2, 1, 0},
}

var rotationNames = [...]string{"XYZ", "XZY", "YXZ", "YZX", "ZXY", "ZYX"}

// Axes returns the axis indices in application order. Unknown orders fall
// back to XYZ.
func (o RotationOrder) Axes() [3]int {
	if int(o) >= len(rotationAxes) {
		return rotationAxes[RotXYZ]
	}
	return rotationAxes[o]
}

func (o RotationOrder) String() string {
	if int(o) >= len(rotationNames) {
		return "XYZ"
	}
	return rotationNames[o]
}

// ParseRotationOrder maps "XYZ".."ZYX" to an order.
func ParseRotationOrder(s string) (RotationOrder, bool) {
	for i, n := range rotationNames {
		if n == s {
			return RotationOrder(i), true
		}
	}
	return RotXYZ, false
}

// AxisRotation returns a rotation of deg degrees about axis 0, 1 or 2.
func AxisRotation(axis int, deg float32) mgl32.Mat4 {
	rad := mgl32.DegToRad(deg)
	switch axis {
	case 0:
		return mgl32.HomogRotate3DX(rad)
	case 1:
		return mgl32.HomogRotate3DY(rad)
	default:
		return mgl32.HomogRotate3DZ(rad)
	}
}

// EulerMatrix builds the rotation for Euler angles in degrees.
func EulerMatrix(rot mgl32.Vec3, order RotationOrder) mgl32.Mat4 {
	ax := order.Axes()
	m := AxisRotation(ax[0], rot[ax[0]])
	m = Mul(m, AxisRotation(ax[1], rot[ax[1]]))
	return Mul(m, AxisRotation(ax[2], rot[ax[2]]))
}

// MatrixEuler extracts Euler angles in degrees from a pure rotation.
func MatrixEuler(m mgl32.Mat4, order RotationOrder) mgl32.Vec3 {
	ax := order.Axes()
	i, j, k := ax[0], ax[1], ax[2]
	s := 1.0
	if (i+1)%3 != j {
		s = -1
	}
	r := func(row, col int) float64 { return float64(m.At(row, col)) }

	var a, b, c float64
	sb := -s * r(k, i)
	if math.Abs(sb) > 0.9999 {
		// Gimbal lock: fold the last rotation into the first.
		b = math.Copysign(math.Pi/2, sb)
		a = math.Atan2(-s*r(j, k), r(j, j))
		c = 0
	} else {
		b = math.Asin(sb)
		a = math.Atan2(s*r(k, j), r(k, k))
		c = math.Atan2(s*r(j, i), r(i, i))
	}

	var out mgl32.Vec3
	out[i] = float32(a * 180 / math.Pi)
	out[j] = float32(b * 180 / math.Pi)
	out[k] = float32(c * 180 / math.Pi)
	return out
}
