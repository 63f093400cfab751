// Package expr is a small stack machine for per-channel rig expressions.
// Programs are straight-line: every instruction runs once, in order, and
// conditionals are eager function calls.
package expr

import "fmt"

// Opcode is one instruction.
type Opcode int16

const (
	NOP Opcode = iota // no-op
	END               // stop early
	NUM               // push number pool[info]
	STR               // push string pool[info]
	VAR               // pop a string, push the host variable it names
	CMP               // pop b, a; push 1 if a <info> b, else 0
	ADD
	SUB
	MUL
	DIV
	MOD
	NEG
	FUN // call function info
	XOR
	AND
	OR
)

var opNames = [...]string{"NOP", "END", "NUM", "STR", "VAR", "CMP", "ADD", "SUB", "MUL", "DIV", "MOD", "NEG", "FUN", "XOR", "AND", "OR"}

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("OP(%d)", int16(op))
	}
	return opNames[op]
}

// Relation is the comparison a CMP performs.
type Relation int16

const (
	EQ Relation = iota
	NE
	LT
	LE
	GT
	GE
)

var relNames = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (r Relation) String() string {
	if r < 0 || int(r) >= len(relNames) {
		return "?"
	}
	return relNames[r]
}

func (r Relation) apply(a, b float32) bool {
	switch r {
	case EQ:
		return a == b
	case NE:
		return a != b
	case LT:
		return a < b
	case LE:
		return a <= b
	case GT:
		return a > b
	case GE:
		return a >= b
	}
	return false
}

// Code is one encoded instruction.
type Code struct {
	Op   Opcode
	Info int16
}
