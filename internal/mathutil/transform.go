package mathutil

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformOrder names the sequence of scale, rotation and translation.
// SRT scales first and translates last.
type TransformOrder uint8

const (
	OrderSRT TransformOrder = iota
	OrderSTR
	OrderRST
	OrderRTS
	OrderTSR
	OrderTRS
)

var transformNames = [...]string{"SRT", "STR", "RST", "RTS", "TSR", "TRS"}

func (o TransformOrder) String() string {
	if int(o) >= len(transformNames) {
		return "SRT"
	}
	return transformNames[o]
}

// ParseTransformOrder maps "SRT".."TRS" to an order.
func ParseTransformOrder(s string) (TransformOrder, bool) {
	for i, n := range transformNames {
		if n == s {
			return TransformOrder(i), true
		}
	}
	return OrderSRT, false
}

// Compose builds a local matrix from translation, Euler degrees and scale.
func Compose(pos, rot, scl mgl32.Vec3, ro RotationOrder, to TransformOrder) mgl32.Mat4 {
	m := mgl32.Ident4()
	for _, step := range to.String() {
		switch step {
		case 'S':
			m = Mul(m, mgl32.Scale3D(scl[0], scl[1], scl[2]))
		case 'R':
			m = Mul(m, EulerMatrix(rot, ro))
		case 'T':
			m = Mul(m, mgl32.Translate3D(pos[0], pos[1], pos[2]))
		}
	}
	return m
}

// Decompose inverts Compose for matrices it could have produced.
func Decompose(m mgl32.Mat4, ro RotationOrder, to TransformOrder) (pos, rot, scl mgl32.Vec3) {
	steps := to.String()
	sFirst := indexOf(steps, 'S') < indexOf(steps, 'R')

	var rows [3]mgl32.Vec3
	for r := 0; r < 3; r++ {
		rows[r] = mgl32.Vec3{m[r*4], m[r*4+1], m[r*4+2]}
	}
	if sFirst {
		// S·R: each row carries one scale factor.
		for r := range rows {
			scl[r] = rows[r].Len()
		}
	} else {
		// R·S: each column does.
		for c := 0; c < 3; c++ {
			scl[c] = mgl32.Vec3{rows[0][c], rows[1][c], rows[2][c]}.Len()
		}
	}
	if m.Mat3().Det() < 0 {
		scl[0] = -scl[0]
	}

	rm := mgl32.Ident4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := rows[r][c]
			d := scl[c]
			if sFirst {
				d = scl[r]
			}
			if d != 0 {
				v /= d
			}
			rm[r*4+c] = v
		}
	}
	rot = MatrixEuler(rm, ro)

	// Undo whatever linear steps follow the translation.
	after := mgl32.Ident4()
	for _, step := range steps[indexOf(steps, 'T')+1:] {
		switch step {
		case 'S':
			after = Mul(after, mgl32.Scale3D(scl[0], scl[1], scl[2]))
		case 'R':
			after = Mul(after, rm)
		}
	}
	pos = TransformDir(Inverse(after), Translation(m))
	return pos, rot, scl
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
