package expr

// StackSize is the operand stack capacity.
const StackSize = 32

// Kind tags a stack value.
type Kind uint8

const (
	KindNum Kind = iota
	KindStr
)

// Value is a number or a string pool index.
type Value struct {
	Kind Kind
	Num  float32
	Str  int16
}

func Num(f float32) Value { return Value{Kind: KindNum, Num: f} }
func Str(idx int16) Value { return Value{Kind: KindStr, Str: idx} }

// Stack is a fixed-capacity operand stack. Pushing onto a full stack
// drops the value and popping an empty one yields the number 0, so a
// malformed program degrades instead of failing.
type Stack struct {
	vals [StackSize]Value
	n    int
}

func (s *Stack) Len() int { return s.n }
func (s *Stack) Reset()   { s.n = 0 }

// Push reports whether v was stored.
func (s *Stack) Push(v Value) bool {
	if s.n >= StackSize {
		return false
	}
	s.vals[s.n] = v
	s.n++
	return true
}

// Pop returns the top value, or Num(0) when empty.
func (s *Stack) Pop() Value {
	if s.n == 0 {
		return Num(0)
	}
	s.n--
	return s.vals[s.n]
}

// PopNum pops a number. Strings read as 0.
func (s *Stack) PopNum() float32 {
	v := s.Pop()
	if v.Kind != KindNum {
		return 0
	}
	return v.Num
}

// PopStr pops a string index; ok is false for numbers and underflow.
func (s *Stack) PopStr() (idx int16, ok bool) {
	v := s.Pop()
	if v.Kind != KindStr {
		return 0, false
	}
	return v.Str, true
}

func (s *Stack) PushNum(f float32) bool { return s.Push(Num(f)) }
