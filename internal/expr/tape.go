package expr

import (
	"fmt"
	"math"
	"strings"
)

// Tape is an in-memory Program, the output of Compile.
type Tape struct {
	Codes   []Code
	Numbers []float32
	Strings []string
}

func (t *Tape) Len() int { return len(t.Codes) }

func (t *Tape) Code(i int) Code {
	if i < 0 || i >= len(t.Codes) {
		return Code{}
	}
	return t.Codes[i]
}

func (t *Tape) Number(i int) float32 {
	if i < 0 || i >= len(t.Numbers) {
		return 0
	}
	return t.Numbers[i]
}

func (t *Tape) String(i int) string {
	if i < 0 || i >= len(t.Strings) {
		return ""
	}
	return t.Strings[i]
}

// Emit appends one instruction.
func (t *Tape) Emit(op Opcode, info int16) *Tape {
	t.Codes = append(t.Codes, Code{Op: op, Info: info})
	return t
}

// PushNumber appends a NUM for f, reusing an equal pool entry.
func (t *Tape) PushNumber(f float32) *Tape {
	idx := -1
	for i, n := range t.Numbers {
		if math.Float32bits(n) == math.Float32bits(f) {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(t.Numbers)
		t.Numbers = append(t.Numbers, f)
	}
	return t.Emit(NUM, int16(idx))
}

// PushString appends a STR for s, reusing an equal pool entry.
func (t *Tape) PushString(s string) *Tape {
	idx := -1
	for i, v := range t.Strings {
		if v == s {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(t.Strings)
		t.Strings = append(t.Strings, s)
	}
	return t.Emit(STR, int16(idx))
}

// Call appends a FUN.
func (t *Tape) Call(f Func) *Tape { return t.Emit(FUN, int16(f)) }

// Disassemble renders a program one instruction per line.
func Disassemble(p Program) string {
	var sb strings.Builder
	for i := 0; i < p.Len(); i++ {
		c := p.Code(i)
		fmt.Fprintf(&sb, "%4d  %-4s", i, c.Op)
		switch c.Op {
		case NUM:
			fmt.Fprintf(&sb, " %g", p.Number(int(c.Info)))
		case STR:
			fmt.Fprintf(&sb, " %q", p.String(int(c.Info)))
		case CMP:
			fmt.Fprintf(&sb, " %s", Relation(c.Info))
		case FUN:
			fmt.Fprintf(&sb, " %s", Func(c.Info))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
