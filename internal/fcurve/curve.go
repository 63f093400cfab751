package fcurve

import (
	"math"

	"rig-runtime/internal/blob"
)

// Function is the interpolation applied from a key to the next one.
type Function uint8

const (
	Constant Function = iota
	Linear
	Cubic
)

func (f Function) String() string {
	switch f {
	case Constant:
		return "constant"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	}
	return "unknown"
}

// ParseFunction maps "constant", "linear" or "cubic" to a Function.
func ParseFunction(s string) (Function, bool) {
	for f := Constant; f <= Cubic; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return Constant, false
}

// FCurveInfo field offsets, relative to the info base.
const (
	infoKeyCount    = 0
	infoMinVal      = 4
	infoMaxVal      = 8
	infoValues      = 12
	infoLeftSlope   = 16
	infoRightSlope  = 20
	infoFrameNumber = 24
	infoPerKeyFunc  = 28
	infoCommonFunc  = 32
	curveInfoSize   = 36
)

// binarySearchAbove is the key count above which FindKey bisects.
const binarySearchAbove = 10

// Curve is one channel's keyframes inside a clip.
type Curve struct {
	v    blob.View
	clip *Clip
}

// Valid reports whether the curve refers to real data.
func (c Curve) Valid() bool { return c.clip != nil }

func (c Curve) KeyCount() int { return int(c.v.U32(infoKeyCount)) }

// IsConstant reports a keyless curve whose value is MinVal.
func (c Curve) IsConstant() bool { return c.KeyCount() == 0 }

func (c Curve) MinVal() float32 { return c.v.F32(infoMinVal) }
func (c Curve) MaxVal() float32 { return c.v.F32(infoMaxVal) }

// HasFrameList reports explicit key frame numbers. Without them key i
// sits on frame i.
func (c Curve) HasFrameList() bool { return c.v.U32(infoFrameNumber) != 0 }

func (c Curve) Value(i int) float32 {
	vals, ok := c.v.Sub(infoValues)
	if !ok || i < 0 || i >= c.KeyCount() {
		return 0
	}
	return vals.F32(i * 4)
}

// KeyFrame returns the frame number of key i.
func (c Curve) KeyFrame(i int) int {
	frames, ok := c.v.Sub(infoFrameNumber)
	if !ok {
		return i
	}
	w := c.clip.fnoBytes
	return int(frames.Uint(i*w, w))
}

// Function returns the interpolation leaving key i.
func (c Curve) Function(i int) Function {
	if funcs, ok := c.v.Sub(infoPerKeyFunc); ok && i >= 0 && i < c.KeyCount() {
		return Function(funcs.U8(i))
	}
	return Function(c.v.U8(infoCommonFunc))
}

func (c Curve) slope(field, i int) float32 {
	s, ok := c.v.Sub(field)
	if !ok || i < 0 || i >= c.KeyCount() {
		return 0
	}
	return s.F32(i * 4)
}

// LeftSlope and RightSlope are the incoming and outgoing tangents of key
// i in value units per second.
func (c Curve) LeftSlope(i int) float32  { return c.slope(infoLeftSlope, i) }
func (c Curve) RightSlope(i int) float32 { return c.slope(infoRightSlope, i) }

// FindKey returns the greatest key index whose frame is <= fno, clamped
// to the key range.
func (c Curve) FindKey(fno int) int {
	n := c.KeyCount()
	if n == 0 {
		return 0
	}
	if !c.HasFrameList() {
		return clampIdx(fno, n)
	}
	if n > binarySearchAbove {
		return c.findKeyBinary(fno, n)
	}
	return c.findKeyLinear(fno, n)
}

func (c Curve) findKeyBinary(fno, n int) int {
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.KeyFrame(mid) <= fno {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func (c Curve) findKeyLinear(fno, n int) int {
	i := 0
	for i+1 < n && c.KeyFrame(i+1) <= fno {
		i++
	}
	return i
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Eval samples the curve at frame. Frames outside [0, MaxFno] give 0.
// Between the last key and the frame after it, a curve with a frame list
// wraps back toward key 0; with extrapolate set it instead continues the
// slope of its last segment.
func (c Curve) Eval(frame float32, extrapolate bool) float32 {
	if !c.Valid() {
		return 0
	}
	n := c.KeyCount()
	if n == 0 {
		return c.MinVal()
	}
	fno := int(math.Floor(float64(frame)))

	if c.HasFrameList() {
		lastFrame := c.KeyFrame(n - 1)
		if float32(lastFrame) < frame && frame < float32(lastFrame+1) {
			return c.evalLoop(frame-float32(fno), extrapolate)
		}
	}

	if fno < 0 || fno > c.clip.MaxFno() {
		return 0
	}
	i0 := c.FindKey(fno)
	f0 := float32(c.KeyFrame(i0))
	v0 := c.Value(i0)
	if frame <= f0 || i0+1 >= n {
		return v0
	}
	i1 := i0 + 1
	f1 := float32(c.KeyFrame(i1))
	v1 := c.Value(i1)
	if f1 <= f0 {
		return v0
	}
	t := (frame - f0) / (f1 - f0)

	switch c.Function(i0) {
	case Linear:
		return v0 + (v1-v0)*t
	case Cubic:
		seconds := (f1 - f0) / c.clip.fps
		return hermite(v0, c.RightSlope(i0)*seconds, v1, c.LeftSlope(i1)*seconds, t)
	}
	return v0
}

// evalLoop covers the seam after the last key. With extrapolate it
// continues the slope from key n-2 to key n-1; otherwise it heads back to
// key 0's value.
func (c Curve) evalLoop(t float32, extrapolate bool) float32 {
	n := c.KeyCount()
	last := c.Value(n - 1)
	if c.Function(n-1) == Constant {
		return last
	}
	if !extrapolate {
		return last + (c.Value(0)-last)*t
	}
	if n < 2 {
		return last
	}
	span := float32(c.KeyFrame(n-1) - c.KeyFrame(n-2))
	if span <= 0 {
		return last
	}
	return last + (last-c.Value(n-2))/span*t
}

// hermite evaluates the cubic Hermite basis with tangents already scaled
// to the segment.
func hermite(p0, m0, p1, m1, t float32) float32 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*p0 + h10*m0 + h01*p1 + h11*m1
}
