package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Matrices follow the row-vector convention: a point transforms as v·M and
// the translation sits in elements 12..14. An mgl32.Mat4 built for column
// vectors has exactly this memory layout, so mgl32 constructors are used
// as-is and only the product order flips.

// Mul returns the row-vector product a·b: a is applied first, then b.
func Mul(a, b mgl32.Mat4) mgl32.Mat4 {
	return b.Mul4(a)
}

// Translation returns the translation row of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// TransformPoint returns p·m.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDir returns d·m, ignoring translation.
func TransformDir(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Inverse returns the inverse of m, or identity when m is singular.
func Inverse(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv()
}

// NearlyEqual compares two matrices element-wise.
func NearlyEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		d := a[i] - b[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
