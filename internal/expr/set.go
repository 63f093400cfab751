package expr

import (
	"fmt"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/pose"
)

const (
	offExprCount = 16
	offExprs     = 20
	offStrings   = 24
	headerSize   = 28
	entrySize    = 32
	codeSize     = 4
)

// Set is a read-only view over an expression blob: the expressions bound
// to one rig, in execution order.
type Set struct {
	blob    *blob.Blob
	names   blob.Names
	count   int
	entries blob.View
}

// Open checks the blob kind and entry table bounds.
func Open(b *blob.Blob) (*Set, error) {
	if err := b.Expect(blob.KindExpressions); err != nil {
		return nil, fmt.Errorf("expr: %w", err)
	}
	hdr := b.Root()
	s := &Set{
		blob:  b,
		names: b.Names(offStrings),
		count: int(hdr.U32(offExprCount)),
	}
	entries, ok := hdr.Sub(offExprs)
	if s.count > 0 && (!ok || entries.Base()+s.count*entrySize > b.Size()) {
		return nil, fmt.Errorf("expr: table for %d expressions out of range", s.count)
	}
	s.entries = entries
	return s, nil
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Expr returns expression i; out of range gives an empty program bound to
// no node.
func (s *Set) Expr(i int) Expr {
	if s == nil || i < 0 || i >= s.count {
		return Expr{}
	}
	return Expr{v: s.entries.At(i * entrySize), names: s.names}
}

// Expr is one compiled expression and the node channel it drives. It
// implements Program.
type Expr struct {
	v     blob.View
	names blob.Names
}

// Node is the target node index, -1 when unbound.
func (e Expr) Node() int {
	if !e.v.Valid() {
		return -1
	}
	return int(e.v.I16(0))
}

func (e Expr) Channel() pose.Channel { return pose.Channel(e.v.U8(2)) }

func (e Expr) Len() int { return e.count(4, 8, codeSize) }

// count reads the element count at countOff, clamped to the elements that
// fit between the array at ptrOff and the end of the blob. An absent array
// holds nothing.
func (e Expr) count(countOff, ptrOff, size int) int {
	arr, ok := e.v.Sub(ptrOff)
	if !ok {
		return 0
	}
	return int(min(int64(e.v.U32(countOff)), int64(arr.Remaining()/size)))
}

func (e Expr) Code(i int) Code {
	codes, ok := e.v.Sub(8)
	if !ok || i < 0 || i >= e.Len() {
		return Code{}
	}
	return Code{Op: Opcode(codes.I16(i * codeSize)), Info: codes.I16(i*codeSize + 2)}
}

func (e Expr) Number(i int) float32 {
	nums, ok := e.v.Sub(16)
	if !ok || i < 0 || i >= e.count(12, 16, 4) {
		return 0
	}
	return nums.F32(i * 4)
}

func (e Expr) String(i int) string {
	strs, ok := e.v.Sub(24)
	if !ok || i < 0 || i >= e.count(20, 24, 4) {
		return ""
	}
	return e.names.Lookup(strs.U32(i * 4))
}

// Entry is one expression for Build.
type Entry struct {
	Node    int
	Channel pose.Channel
	Program *Tape
}

// Build encodes an expression blob.
func Build(entries []Entry, shiftJIS bool) ([]byte, error) {
	var flags uint32
	if shiftJIS {
		flags |= blob.FlagShiftJIS
	}
	names := blob.NewStringTable(shiftJIS)
	b := blob.NewBuilder(blob.KindExpressions, flags, headerSize)
	b.PutU32(offExprCount, uint32(len(entries)))
	if len(entries) > 0 {
		tbl := b.Reserve(len(entries) * entrySize)
		b.Link(0, offExprs, tbl)
		for i, e := range entries {
			if e.Channel >= pose.NumChannels {
				return nil, fmt.Errorf("expr: entry %d targets channel %d", i, e.Channel)
			}
			if e.Node < 0 || e.Node > 0x7FFF {
				return nil, fmt.Errorf("expr: entry %d targets node %d", i, e.Node)
			}
			t := e.Program
			if t == nil {
				t = &Tape{}
			}
			ent := tbl + i*entrySize
			b.PutI16(ent, int16(e.Node))
			b.PutU8(ent+2, uint8(e.Channel))

			b.PutU32(ent+4, uint32(len(t.Codes)))
			if len(t.Codes) > 0 {
				codes := b.Reserve(len(t.Codes) * codeSize)
				for k, c := range t.Codes {
					b.PutI16(codes+k*codeSize, int16(c.Op))
					b.PutI16(codes+k*codeSize+2, c.Info)
				}
				b.Link(ent, 8, codes)
			}
			b.PutU32(ent+12, uint32(len(t.Numbers)))
			b.Link(ent, 16, b.AppendF32s(t.Numbers))
			b.PutU32(ent+20, uint32(len(t.Strings)))
			if len(t.Strings) > 0 {
				strs := b.Reserve(len(t.Strings) * 4)
				for k, s := range t.Strings {
					b.PutU32(strs+k*4, names.ID(s))
				}
				b.Link(ent, 24, strs)
			}
		}
	}
	if err := names.Err(); err != nil {
		return nil, fmt.Errorf("expr: encode names: %w", err)
	}
	b.Link(0, offStrings, b.AppendBytes(names.Bytes()))
	return b.Bytes(), nil
}
