package mathutil

import "github.com/go-gl/mathgl/mgl32"

// EulerQuat converts Euler degrees to a unit quaternion.
func EulerQuat(rot mgl32.Vec3, order RotationOrder) mgl32.Quat {
	return mgl32.Mat4ToQuat(EulerMatrix(rot, order)).Normalize()
}

// QuatEuler converts a quaternion back to Euler degrees.
func QuatEuler(q mgl32.Quat, order RotationOrder) mgl32.Vec3 {
	return MatrixEuler(q.Normalize().Mat4(), order)
}

// Slerp interpolates along the shorter arc between a and b.
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, t)
}

// SlerpEuler interpolates two Euler triples through quaternions.
func SlerpEuler(a, b mgl32.Vec3, t float32, order RotationOrder) mgl32.Vec3 {
	return QuatEuler(Slerp(EulerQuat(a, order), EulerQuat(b, order), t), order)
}
