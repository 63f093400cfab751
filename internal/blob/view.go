package blob

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// View addresses one structure inside a blob. Reads past the end of the
// blob return zero values; a zero View reads zero everywhere.
type View struct {
	data []byte
	base int
}

// Valid reports whether the view points inside its blob.
func (v View) Valid() bool {
	return v.data != nil && v.base >= 0 && v.base < len(v.data)
}

// Base is the absolute position of the view inside the blob.
func (v View) Base() int { return v.base }

func (v View) span(off, n int) []byte {
	p := v.base + off
	if off < 0 || p < 0 || p+n > len(v.data) {
		return nil
	}
	return v.data[p : p+n]
}

func (v View) U8(off int) uint8 {
	b := v.span(off, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (v View) U16(off int) uint16 {
	b := v.span(off, 2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (v View) I16(off int) int16 { return int16(v.U16(off)) }

func (v View) U32(off int) uint32 {
	b := v.span(off, 4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (v View) I32(off int) int32 { return int32(v.U32(off)) }

func (v View) F32(off int) float32 {
	return math.Float32frombits(v.U32(off))
}

// Vec3 reads three consecutive floats.
func (v View) Vec3(off int) mgl32.Vec3 {
	return mgl32.Vec3{v.F32(off), v.F32(off + 4), v.F32(off + 8)}
}

// Mat4 reads sixteen consecutive floats.
func (v View) Mat4(off int) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = v.F32(off + i*4)
	}
	return m
}

// Uint reads an n-byte little-endian unsigned integer, n in 1..4.
func (v View) Uint(off, n int) uint32 {
	b := v.span(off, n)
	if b == nil {
		return 0
	}
	var x uint32
	for i := n - 1; i >= 0; i-- {
		x = x<<8 | uint32(b[i])
	}
	return x
}

// Sub follows the u32 offset field at off. An offset of 0, or one that
// lands outside the blob, yields ok == false.
func (v View) Sub(off int) (View, bool) {
	rel := v.U32(off)
	if rel == 0 {
		return View{}, false
	}
	p := v.base + int(rel)
	if p < 0 || p >= len(v.data) {
		return View{}, false
	}
	return View{data: v.data, base: p}, true
}

// Remaining is the number of blob bytes from the view's base to the end.
func (v View) Remaining() int {
	if !v.Valid() {
		return 0
	}
	return len(v.data) - v.base
}

// At returns the view at a fixed distance from this one, typically an
// array element.
func (v View) At(off int) View {
	return View{data: v.data, base: v.base + off}
}

// CString returns the NUL-terminated bytes starting at off.
func (v View) CString(off int) []byte {
	p := v.base + off
	if off < 0 || p < 0 || p >= len(v.data) {
		return nil
	}
	end := p
	for end < len(v.data) && v.data[end] != 0 {
		end++
	}
	return v.data[p:end]
}
