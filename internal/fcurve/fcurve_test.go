package fcurve

import (
	"math"
	"testing"

	"rig-runtime/internal/blob"
)

func openClip(t *testing.T, d ClipDesc) *Clip {
	t.Helper()
	data, err := Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := blob.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := Open(b)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func oneCurve(t *testing.T, maxFrame int, cd CurveDesc) Curve {
	t.Helper()
	cd.Node, cd.Channel = "n", "tx"
	c := openClip(t, ClipDesc{MaxFrame: maxFrame, FPS: 30, Curves: []CurveDesc{cd}})
	return c.Curve(c.FindCurve("n", "tx"))
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestConstantCurveIgnoresFrame(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Value: 3.5})
	if !c.IsConstant() {
		t.Fatal("curve without keys is not constant")
	}
	for _, f := range []float32{-100, 0, 0.5, 9.99, 10, 1e6} {
		if got := c.Eval(f, false); got != 3.5 {
			t.Errorf("Eval(%v) = %v, want 3.5", f, got)
		}
	}
}

func TestFrameZeroIsExact(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Function: Cubic, Keys: []Key{
		{Frame: 0, Value: 0.1234567, RightSlope: 99},
		{Frame: 10, Value: -4, LeftSlope: -7},
	}})
	if got := c.Eval(0, false); got != 0.1234567 {
		t.Errorf("Eval(0) = %v", got)
	}
}

func TestLinearExactness(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Function: Linear, Keys: []Key{{Frame: 0, Value: 0}, {Frame: 10, Value: 5}}})
	for _, tt := range []float32{0, 0.25, 0.5, 0.75, 1} {
		if got, want := c.Eval(10*tt, false), 5*tt; got != want {
			t.Errorf("Eval(%v) = %v, want %v", 10*tt, got, want)
		}
	}
}

func TestCubicHermite(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Function: Cubic, Keys: []Key{
		{Frame: 0, Value: 0, RightSlope: 30},
		{Frame: 10, Value: 10},
	}})
	if got := c.Eval(10, false); got != 10 {
		t.Errorf("end = %v", got)
	}
	// 10 frames at 30fps scale the 30/s tangent to 10; h10(0.5) = 0.125.
	if got := c.Eval(5, false); !near(got, 6.25) {
		t.Errorf("mid = %v, want 6.25", got)
	}
}

func TestPerKeyFunctions(t *testing.T) {
	c := oneCurve(t, 20, CurveDesc{Function: Linear, PerKey: true, Keys: []Key{
		{Frame: 0, Value: 1, Function: Constant},
		{Frame: 10, Value: 3, Function: Linear},
		{Frame: 20, Value: 5, Function: Linear},
	}})
	if got := c.Eval(5, false); got != 1 {
		t.Errorf("constant segment = %v", got)
	}
	if got := c.Eval(15, false); got != 4 {
		t.Errorf("linear segment = %v", got)
	}
}

func TestOutOfRangeAndHold(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Function: Linear, Keys: []Key{{Frame: 2, Value: 7}, {Frame: 6, Value: 9}}})
	cases := []struct {
		frame float32
		want  float32
	}{
		{-1, 0},
		{11, 0},
		{1, 7}, // before the first key
		{8, 9}, // past the last key, inside the clip
	}
	for _, tc := range cases {
		if got := c.Eval(tc.frame, false); got != tc.want {
			t.Errorf("Eval(%v) = %v, want %v", tc.frame, got, tc.want)
		}
	}
	var none Curve
	if none.Valid() || none.Eval(3, true) != 0 {
		t.Error("invalid curve is not inert")
	}
	clip := openClip(t, ClipDesc{MaxFrame: 1})
	if clip.Curve(-1).Valid() || clip.Curve(5).Valid() {
		t.Error("bad ids produced valid curves")
	}
}

func TestLoopCase(t *testing.T) {
	keys := []Key{{Frame: 0, Value: 0}, {Frame: 5, Value: 4}, {Frame: 10, Value: 6}}
	c := oneCurve(t, 10, CurveDesc{Function: Linear, Keys: keys})

	// Wraps back toward key 0.
	if got := c.Eval(10.5, false); got != 3 {
		t.Errorf("wrapped = %v, want 3", got)
	}
	// Continues the last segment's slope of 0.4 per frame.
	if got := c.Eval(10.5, true); !near(got, 6.2) {
		t.Errorf("extrapolated = %v, want 6.2", got)
	}

	held := oneCurve(t, 10, CurveDesc{Function: Constant, Keys: keys})
	if got := held.Eval(10.5, false); got != 6 {
		t.Errorf("constant loop = %v, want 6", got)
	}
}

func TestLoopingContinuity(t *testing.T) {
	c := oneCurve(t, 10, CurveDesc{Function: Linear, Keys: []Key{
		{Frame: 0, Value: 1}, {Frame: 5, Value: 3}, {Frame: 10, Value: 1},
	}})
	clip := c.clip
	frame, looped := clip.Advance(10, float32(clip.MaxFno()))
	if !looped {
		t.Fatal("full cycle did not wrap")
	}
	if a, b := c.Eval(10, false), c.Eval(frame, false); a != b {
		t.Errorf("eval(last) = %v, eval(last+cycle) = %v", a, b)
	}
	if got := c.Eval(10.5, false); got != 1 {
		t.Errorf("seam = %v", got)
	}
}

func TestFindKeyStrategiesAgree(t *testing.T) {
	keys := make([]Key, 20)
	for i := range keys {
		keys[i] = Key{Frame: 2 + i*3, Value: float32(i)}
	}
	c := oneCurve(t, 70, CurveDesc{Function: Linear, Keys: keys})
	n := c.KeyCount()
	for fno := -2; fno < 72; fno++ {
		want := 0
		for i := 0; i < n; i++ {
			if c.KeyFrame(i) <= fno {
				want = i
			}
		}
		if got := c.findKeyBinary(fno, n); got != want {
			t.Errorf("binary(%d) = %d, want %d", fno, got, want)
		}
		if got := c.findKeyLinear(fno, n); got != want {
			t.Errorf("linear(%d) = %d, want %d", fno, got, want)
		}
	}
}

func TestImplicitFrames(t *testing.T) {
	c := oneCurve(t, 3, CurveDesc{Function: Linear, Implicit: true, Keys: []Key{
		{Frame: 0, Value: 0}, {Frame: 1, Value: 10}, {Frame: 2, Value: 20}, {Frame: 3, Value: 30},
	}})
	if c.HasFrameList() {
		t.Fatal("implicit curve stored frames")
	}
	if got := c.Eval(2.5, false); got != 25 {
		t.Errorf("Eval(2.5) = %v", got)
	}
	if got := c.FindKey(99); got != 3 {
		t.Errorf("FindKey clamp = %d", got)
	}
}

func TestAdvanceWraps(t *testing.T) {
	clip := openClip(t, ClipDesc{MinFrame: 5, MaxFrame: 15})
	if clip.MaxFno() != 10 {
		t.Fatalf("MaxFno = %d", clip.MaxFno())
	}
	cases := []struct {
		frame, step, want float32
		looped            bool
	}{
		{5, 1, 6, false},
		{9, 1, 0, true},
		{9.5, 2, 1.5, true},
		{0.5, -1, 9.5, true},
		{3, -3, 0, false},
	}
	for _, tc := range cases {
		got, looped := clip.Advance(tc.frame, tc.step)
		if !near(got, tc.want) || looped != tc.looped {
			t.Errorf("Advance(%v, %v) = %v %v, want %v %v", tc.frame, tc.step, got, looped, tc.want, tc.looped)
		}
	}
}

func TestFrameNumberWidth(t *testing.T) {
	for _, tc := range []struct{ max, want int }{{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {65536, 3}} {
		if got := FrameNumberBytes(tc.max); got != tc.want {
			t.Errorf("FrameNumberBytes(%d) = %d", tc.max, got)
		}
	}
	c := openClip(t, ClipDesc{MaxFrame: 300, Curves: []CurveDesc{{Node: "a", Channel: "ry",
		Function: Linear, Keys: []Key{{Frame: 0}, {Frame: 300, Value: 3}}}}})
	if c.FrameNumberBytes() != 2 {
		t.Errorf("clip width = %d", c.FrameNumberBytes())
	}
	if got := c.Curve(0).KeyFrame(1); got != 300 {
		t.Errorf("packed frame = %d", got)
	}
	if c.FPS() != DefaultFPS {
		t.Errorf("default fps = %v", c.FPS())
	}
}

func TestBuildValidation(t *testing.T) {
	bad := []ClipDesc{
		{MinFrame: 5, MaxFrame: 1},
		{MaxFrame: 10, Curves: []CurveDesc{{Node: "a", Channel: "tx", Keys: []Key{{Frame: 3}, {Frame: 3}}}}},
		{MaxFrame: 10, Curves: []CurveDesc{{Channel: "tx"}}},
		{MaxFrame: 10, Curves: []CurveDesc{{Node: "a", Channel: "tx", Keys: []Key{{Frame: -1}}}}},
	}
	for i, d := range bad {
		if _, err := Build(d); err == nil {
			t.Errorf("case %d accepted", i)
		}
	}
}

func TestClipNodesAndLookup(t *testing.T) {
	c := openClip(t, ClipDesc{MaxFrame: 10, Curves: []CurveDesc{
		{Node: "hip", Channel: "tx", Value: 1},
		{Node: "hip", Channel: "tx", Value: 2},
		{Node: "knee", Channel: "rz", Value: 3},
	}})
	if c.NodeCount() != 2 || c.NodeName(1) != "knee" {
		t.Errorf("nodes = %d %q", c.NodeCount(), c.NodeName(1))
	}
	if id := c.FindCurve("hip", "tx"); id != 0 {
		t.Errorf("duplicate curve resolved to %d, want first", id)
	}
	if c.FindCurve("knee", "tx") != -1 {
		t.Error("missing curve found")
	}
	if c.CurveChannel(2) != "rz" || c.CurveNode(2) != "knee" {
		t.Error("curve names wrong")
	}
}
