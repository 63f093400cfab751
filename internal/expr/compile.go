package expr

import (
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// Compile translates infix source such as
//
//	fit(ch("../j_Arm/rz"), 0, 90, 0, 1) * $BLEND + 2
//
// into a Tape. Operators, loosest first: | ^ & comparisons + - * / %
// and unary minus. $NAME reads a host variable.
func Compile(src string) (*Tape, error) {
	p := &parser{src: []rune(src), tape: &Tape{}}
	p.next()
	if err := p.or(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s", p.tok)
	}
	if len(p.tape.Numbers) > math.MaxInt16 || len(p.tape.Strings) > math.MaxInt16 {
		return nil, fmt.Errorf("expr: constant pool overflow")
	}
	p.tape.Emit(END, 0)
	return p.tape, nil
}

// MustCompile is Compile for known-good source; it panics on error.
func MustCompile(src string) *Tape {
	t, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return t
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokStr
	tokIdent
	tokVar
	tokOp
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokStr:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

type parser struct {
	src  []rune
	pos  int
	tok  token
	err  error
	tape *Tape
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("expr: at %d: %s", p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	r := p.src[p.pos]
	switch {
	case unicode.IsDigit(r) || r == '.':
		p.lexNumber(start)
	case r == '"':
		p.lexString(start)
	case r == '$':
		p.pos++
		name := p.ident()
		p.tok = token{kind: tokVar, text: name, pos: start}
		if name == "" {
			p.err = p.errorf("empty variable name")
		}
	case unicode.IsLetter(r) || r == '_':
		p.tok = token{kind: tokIdent, text: p.ident(), pos: start}
	default:
		op := string(r)
		p.pos++
		if p.pos < len(p.src) && p.src[p.pos] == '=' && (r == '=' || r == '!' || r == '<' || r == '>') {
			op += "="
			p.pos++
		}
		p.tok = token{kind: tokOp, text: op, pos: start}
	}
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) lexNumber(start int) {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsDigit(r) || r == '.' {
			p.pos++
			continue
		}
		if (r == 'e' || r == 'E') && p.pos+1 < len(p.src) {
			p.pos++
			if s := p.src[p.pos]; s == '+' || s == '-' {
				p.pos++
			}
			continue
		}
		break
	}
	text := string(p.src[start:p.pos])
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		p.err = fmt.Errorf("expr: at %d: bad number %q", start, text)
	}
	p.tok = token{kind: tokNum, text: text, num: f, pos: start}
}

func (p *parser) lexString(start int) {
	p.pos++
	var out []rune
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		r := p.src[p.pos]
		if r == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			r = p.src[p.pos]
		}
		out = append(out, r)
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.err = fmt.Errorf("expr: at %d: unterminated string", start)
	} else {
		p.pos++
	}
	p.tok = token{kind: tokStr, text: string(out), pos: start}
}

func (p *parser) isOp(ops ...string) (string, bool) {
	if p.tok.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if p.tok.text == op {
			return op, true
		}
	}
	return "", false
}

// binary parses operand (op operand)* for one precedence level.
func (p *parser) binary(operand func() error, ops []string, emit func(op string)) error {
	if err := operand(); err != nil {
		return err
	}
	for {
		op, ok := p.isOp(ops...)
		if !ok {
			return nil
		}
		p.next()
		if err := operand(); err != nil {
			return err
		}
		emit(op)
	}
}

func (p *parser) or() error {
	return p.binary(p.xor, []string{"|"}, func(string) { p.tape.Emit(OR, 0) })
}

func (p *parser) xor() error {
	return p.binary(p.and, []string{"^"}, func(string) { p.tape.Emit(XOR, 0) })
}

func (p *parser) and() error {
	return p.binary(p.cmp, []string{"&"}, func(string) { p.tape.Emit(AND, 0) })
}

var relations = map[string]Relation{"==": EQ, "!=": NE, "<": LT, "<=": LE, ">": GT, ">=": GE}

func (p *parser) cmp() error {
	return p.binary(p.add, []string{"==", "!=", "<", "<=", ">", ">="}, func(op string) {
		p.tape.Emit(CMP, int16(relations[op]))
	})
}

func (p *parser) add() error {
	return p.binary(p.mul, []string{"+", "-"}, func(op string) {
		if op == "+" {
			p.tape.Emit(ADD, 0)
		} else {
			p.tape.Emit(SUB, 0)
		}
	})
}

var mulOps = map[string]Opcode{"*": MUL, "/": DIV, "%": MOD}

func (p *parser) mul() error {
	return p.binary(p.unary, []string{"*", "/", "%"}, func(op string) {
		p.tape.Emit(mulOps[op], 0)
	})
}

func (p *parser) unary() error {
	if op, ok := p.isOp("-", "+"); ok {
		p.next()
		if err := p.unary(); err != nil {
			return err
		}
		if op == "-" {
			p.tape.Emit(NEG, 0)
		}
		return nil
	}
	return p.primary()
}

func (p *parser) primary() error {
	if p.err != nil {
		return p.err
	}
	tok := p.tok
	switch tok.kind {
	case tokNum:
		p.tape.PushNumber(float32(tok.num))
		p.next()
		return nil
	case tokStr:
		p.tape.PushString(tok.text)
		p.next()
		return nil
	case tokVar:
		p.tape.PushString(tok.text)
		p.tape.Emit(VAR, 0)
		p.next()
		return nil
	case tokIdent:
		return p.call(tok)
	case tokOp:
		if tok.text == "(" {
			p.next()
			if err := p.or(); err != nil {
				return err
			}
			return p.expect(")")
		}
	}
	return p.errorf("unexpected %s", tok)
}

func (p *parser) expect(op string) error {
	if p.err != nil {
		return p.err
	}
	if _, ok := p.isOp(op); !ok {
		return p.errorf("expected %q, got %s", op, p.tok)
	}
	p.next()
	return nil
}

func (p *parser) call(name token) error {
	f, ok := LookupFunc(name.text)
	if !ok {
		return p.errorf("unknown function %q", name.text)
	}
	p.next()
	if err := p.expect("("); err != nil {
		return err
	}
	argc := 0
	if _, closing := p.isOp(")"); !closing {
		for {
			if err := p.or(); err != nil {
				return err
			}
			argc++
			if _, comma := p.isOp(","); !comma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(")"); err != nil {
		return err
	}
	if argc != f.Arity() {
		return fmt.Errorf("expr: at %d: %s takes %d arguments, got %d", name.pos, f, f.Arity(), argc)
	}
	p.tape.Call(f)
	return nil
}
