package expr

import (
	"math"
	"testing"
)

type fakeHost struct {
	channels map[string]float32
	vars     map[string]float32
	detail   []string
	result   float32
	results  int
}

func (h *fakeHost) Ch(path string) float32  { return h.channels[path] }
func (h *fakeHost) Var(name string) float32 { return h.vars[name] }
func (h *fakeHost) Detail(path, attr string, idx int) float32 {
	h.detail = append(h.detail, path, attr)
	return float32(idx) * 10
}
func (h *fakeHost) SetResult(v float32) {
	h.result = v
	h.results++
}

func run(t *testing.T, p Program) float32 {
	t.Helper()
	var m Machine
	h := &fakeHost{}
	got := m.Run(p, h)
	if h.results != 1 || h.result != got {
		t.Fatalf("SetResult called %d times with %v, Run returned %v", h.results, h.result, got)
	}
	return got
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestDegreeConvention(t *testing.T) {
	cases := []struct {
		name string
		tape *Tape
		want float32
	}{
		{"sin 90", new(Tape).PushNumber(90).Call(FnSin), 1},
		{"cos 180", new(Tape).PushNumber(180).Call(FnCos), -1},
		{"tan 45", new(Tape).PushNumber(45).Call(FnTan), 1},
		{"asin 1", new(Tape).PushNumber(1).Call(FnAsin), 90},
		{"acos 0", new(Tape).PushNumber(0).Call(FnAcos), 90},
		{"atan 1", new(Tape).PushNumber(1).Call(FnAtan), 45},
		{"atan2 1 0", new(Tape).PushNumber(1).PushNumber(0).Call(FnAtan2), 90},
		{"rad 180", new(Tape).PushNumber(180).Call(FnRad), math.Pi},
		{"deg pi", new(Tape).PushNumber(math.Pi).Call(FnDeg), 180},
	}
	for _, tc := range cases {
		if got := run(t, tc.tape); !approx(got, tc.want) {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestArityUnderflowIsSafe(t *testing.T) {
	// Every opcode and function against an empty stack.
	tape := &Tape{}
	for op := NOP; op <= OR; op++ {
		if op == END {
			continue
		}
		tape.Emit(op, 0)
	}
	for f := Func(0); f < NumFuncs; f++ {
		tape.Call(f)
		tape.Emit(ADD, 0).Emit(SUB, 0).Emit(MUL, 0)
	}
	tape.Emit(FUN, 999).Emit(FUN, -3).Emit(Opcode(77), 5).Emit(NUM, 40).Emit(STR, -1).Emit(VAR, 0)
	tape.Emit(CMP, 42)

	first := run(t, tape)
	second := run(t, tape)
	if first != second {
		t.Errorf("runs disagree: %v vs %v", first, second)
	}
	if run(t, &Tape{}) != 0 {
		t.Error("empty program is not 0")
	}
}

func TestOverflowDropsPushes(t *testing.T) {
	tape := &Tape{}
	for i := 0; i < StackSize+10; i++ {
		tape.PushNumber(float32(i))
	}
	// The stored values are 0..StackSize-1; later pushes were dropped.
	if got := run(t, tape); got != StackSize-1 {
		t.Errorf("top = %v, want %d", got, StackSize-1)
	}

	var s Stack
	for i := 0; i < StackSize; i++ {
		if !s.PushNum(1) {
			t.Fatalf("push %d refused", i)
		}
	}
	if s.PushNum(2) || s.Len() != StackSize {
		t.Error("push on full stack stored a value")
	}
	s.Reset()
	if v := s.Pop(); v != Num(0) {
		t.Errorf("empty pop = %+v", v)
	}
	if _, ok := s.PopStr(); ok {
		t.Error("empty PopStr ok")
	}
}

func TestArithmetic(t *testing.T) {
	bin := func(a, b float32, op Opcode) *Tape {
		return new(Tape).PushNumber(a).PushNumber(b).Emit(op, 0)
	}
	cases := []struct {
		name string
		tape *Tape
		want float32
	}{
		{"sub order", bin(10, 4, SUB), 6},
		{"div", bin(9, 3, DIV), 3},
		{"div zero", bin(9, 0, DIV), 0},
		{"mod", bin(7.5, 2, MOD), 1.5},
		{"mod zero", bin(7, 0, MOD), 0},
		{"xor", bin(6.9, 3.2, XOR), 5},
		{"and", bin(6, 3, AND), 2},
		{"or", bin(4, 1, OR), 5},
		{"neg", new(Tape).PushNumber(3).Emit(NEG, 0), -3},
		{"lt", bin(1, 2, CMP).withInfo(int16(LT)), 1},
		{"ge", bin(1, 2, CMP).withInfo(int16(GE)), 0},
		{"eq", bin(2, 2, CMP).withInfo(int16(EQ)), 1},
	}
	for _, tc := range cases {
		if got := run(t, tc.tape); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// withInfo rewrites the info of the last instruction.
func (t *Tape) withInfo(info int16) *Tape {
	t.Codes[len(t.Codes)-1].Info = info
	return t
}

func TestFunctions(t *testing.T) {
	call := func(f Func, args ...float32) *Tape {
		tp := &Tape{}
		for _, a := range args {
			tp.PushNumber(a)
		}
		return tp.Call(f)
	}
	cases := []struct {
		name string
		tape *Tape
		want float32
	}{
		{"abs", call(FnAbs, -2), 2},
		{"ceil", call(FnCeil, 1.2), 2},
		{"floor", call(FnFloor, -1.2), -2},
		{"frac", call(FnFrac, 2.25), 0.25},
		{"int", call(FnInt, -2.7), -2},
		{"rint half even", call(FnRint, 2.5), 2},
		{"round half away", call(FnRound, 2.5), 3},
		{"sign", call(FnSign, -0.1), -1},
		{"clamp", call(FnClamp, 5, 0, 3), 3},
		{"if true", call(FnIf, 1, 10, 20), 10},
		{"if false", call(FnIf, 0, 10, 20), 20},
		{"max", call(FnMax, 1, 4), 4},
		{"min", call(FnMin, 1, 4), 1},
		{"pow", call(FnPow, 2, 10), 1024},
		{"sqrt", call(FnSqrt, 16), 4},
		{"sqrt negative", call(FnSqrt, -16), 0},
		{"log negative", call(FnLog, -1), 0},
		{"log10", call(FnLog10, 1000), 3},
		{"exp", call(FnExp, 0), 1},
		{"length", call(FnLength, 3, 4, 12), 13},
		{"distance", call(FnDistance, 1, 1, 1, 4, 5, 1), 5},
		{"fit", call(FnFit, 5, 0, 10, 100, 200), 150},
		{"fit clamps", call(FnFit, 20, 0, 10, 100, 200), 200},
		{"fit01", call(FnFit01, 0.25, 0, 8), 2},
		{"fit10", call(FnFit10, 0.25, 0, 8), 6},
		{"fit11", call(FnFit11, 0, -4, 4), 0},
		{"pow inf", call(FnPow, 0, -1), 0},
	}
	for _, tc := range cases {
		if got := run(t, tc.tape); !approx(got, tc.want) {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHostCallbacks(t *testing.T) {
	h := &fakeHost{
		channels: map[string]float32{"j_Arm/rz": 30},
		vars:     map[string]float32{"F": 12},
	}
	tape := new(Tape).
		PushString("j_Arm/rz").Call(FnCh).
		PushString("F").Emit(VAR, 0).
		Emit(ADD, 0).
		PushString("geo").PushString("P").PushNumber(2).Call(FnDetail).
		Emit(ADD, 0)
	var m Machine
	if got := m.Run(tape, h); got != 62 {
		t.Errorf("result = %v, want 62", got)
	}
	if h.result != 62 || len(h.detail) != 2 || h.detail[0] != "geo" || h.detail[1] != "P" {
		t.Errorf("host saw result=%v detail=%v", h.result, h.detail)
	}

	// A number where ch expects a path never reaches the host.
	if got := m.Run(new(Tape).PushNumber(1).Call(FnCh), h); got != 0 {
		t.Errorf("ch(number) = %v", got)
	}
}

func TestEndStopsEarly(t *testing.T) {
	tape := new(Tape).PushNumber(1).Emit(END, 0).PushNumber(2)
	if got := run(t, tape); got != 1 {
		t.Errorf("result = %v, want 1", got)
	}
}

func TestFuncTable(t *testing.T) {
	if NumFuncs != 34 {
		t.Fatalf("NumFuncs = %d", NumFuncs)
	}
	prev := ""
	for f := Func(0); f < NumFuncs; f++ {
		name := f.String()
		if name <= prev {
			t.Errorf("%q out of order after %q", name, prev)
		}
		prev = name
		if g, ok := LookupFunc(name); !ok || g != f {
			t.Errorf("LookupFunc(%q) = %v %v", name, g, ok)
		}
	}
	if Func(99).Arity() != -1 {
		t.Error("unknown function has an arity")
	}
}
