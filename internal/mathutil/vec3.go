package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Lerp returns a + (b-a)·t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Lerp3 interpolates component-wise.
func Lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// One is the unit scale.
var One = mgl32.Vec3{1, 1, 1}
