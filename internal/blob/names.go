package blob

import (
	"golang.org/x/text/encoding/japanese"
)

// Names is a string table: NUL-terminated strings addressed by their
// byte offset. Id 0 is the empty string.
type Names struct {
	v    View
	sjis bool
}

// Lookup returns the string with the given id, or "" when the table is
// absent or the id is out of range.
func (n Names) Lookup(id uint32) string {
	if !n.v.Valid() || id == 0 {
		return ""
	}
	raw := n.v.CString(int(id))
	if len(raw) == 0 {
		return ""
	}
	if n.sjis {
		s, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
		if err == nil {
			return string(s)
		}
	}
	return string(raw)
}

// StringTable collects names for a blob under construction.
type StringTable struct {
	buf  []byte
	ids  map[string]uint32
	sjis bool
	err  error
}

func NewStringTable(shiftJIS bool) *StringTable {
	return &StringTable{
		buf:  []byte{0},
		ids:  map[string]uint32{"": 0},
		sjis: shiftJIS,
	}
}

// ID interns s and returns its id.
func (t *StringTable) ID(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	raw := []byte(s)
	if t.sjis {
		enc, err := japanese.ShiftJIS.NewEncoder().Bytes(raw)
		if err != nil {
			if t.err == nil {
				t.err = err
			}
		} else {
			raw = enc
		}
	}
	id := uint32(len(t.buf))
	t.buf = append(t.buf, raw...)
	t.buf = append(t.buf, 0)
	t.ids[s] = id
	return id
}

// Err returns the first encoding failure, if any.
func (t *StringTable) Err() error { return t.err }

func (t *StringTable) Bytes() []byte { return t.buf }
