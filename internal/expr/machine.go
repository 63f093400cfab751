package expr

import (
	"math"
)

// Host answers the questions a program asks about the outside world.
type Host interface {
	// Ch resolves a "node/channel" path to its current value.
	Ch(path string) float32
	// Detail reads an attribute of external geometry.
	Detail(path, attr string, idx int) float32
	Var(name string) float32
	SetResult(v float32)
}

// Program is an instruction tape with its constant pools.
type Program interface {
	Len() int
	Code(i int) Code
	Number(i int) float32
	String(i int) string
}

// Machine executes programs. The zero value is ready to use; a Machine
// is not safe for concurrent use.
type Machine struct {
	stack Stack
}

// Run executes p and hands the final stack top to h.SetResult.
func (m *Machine) Run(p Program, h Host) float32 {
	s := &m.stack
	s.Reset()
	n := p.Len()
loop:
	for pc := 0; pc < n; pc++ {
		c := p.Code(pc)
		switch c.Op {
		case END:
			break loop
		case NUM:
			s.PushNum(p.Number(int(c.Info)))
		case STR:
			s.Push(Str(c.Info))
		case VAR:
			var v float32
			if idx, ok := s.PopStr(); ok {
				v = h.Var(p.String(int(idx)))
			}
			s.PushNum(v)
		case CMP:
			b, a := s.PopNum(), s.PopNum()
			s.PushNum(boolNum(Relation(c.Info).apply(a, b)))
		case ADD, SUB, MUL, DIV, MOD, XOR, AND, OR:
			b, a := s.PopNum(), s.PopNum()
			s.PushNum(arith(c.Op, a, b))
		case NEG:
			s.PushNum(-s.PopNum())
		case FUN:
			s.PushNum(m.call(Func(c.Info), p, h))
		}
	}
	r := s.PopNum()
	h.SetResult(r)
	return r
}

func arith(op Opcode, a, b float32) float32 {
	switch op {
	case ADD:
		return a + b
	case SUB:
		return a - b
	case MUL:
		return a * b
	case DIV:
		if b == 0 {
			return 0
		}
		return a / b
	case MOD:
		if b == 0 {
			return 0
		}
		return float32(math.Mod(float64(a), float64(b)))
	case XOR:
		return float32(int32(a) ^ int32(b))
	case AND:
		return float32(int32(a) & int32(b))
	case OR:
		return float32(int32(a) | int32(b))
	}
	return 0
}

func (m *Machine) call(f Func, p Program, h Host) float32 {
	s := &m.stack
	switch f {
	case FnCh:
		idx, ok := s.PopStr()
		if !ok {
			return 0
		}
		return h.Ch(p.String(int(idx)))
	case FnDetail:
		i := s.PopNum()
		attr, okAttr := s.PopStr()
		path, okPath := s.PopStr()
		if !okAttr || !okPath {
			return 0
		}
		return h.Detail(p.String(int(path)), p.String(int(attr)), int(i))
	}

	n := f.Arity()
	if n < 0 {
		return 0
	}
	var buf [6]float64
	args := buf[:n]
	for i := n - 1; i >= 0; i-- {
		args[i] = float64(s.PopNum())
	}
	r := numeric(f, args)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return float32(r)
}

func boolNum(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
