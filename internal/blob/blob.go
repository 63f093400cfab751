package blob

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the size of the header shared by every blob kind.
const HeaderSize = 16

// Header flags.
const (
	FlagShiftJIS uint32 = 1 << 0 // string tables are Shift-JIS encoded
)

var (
	ErrTruncated    = errors.New("blob: truncated header")
	ErrSizeMismatch = errors.New("blob: size mismatch")
	ErrKindMismatch = errors.New("blob: kind mismatch")
)

// Kind is the 4-byte tag at the start of every blob.
type Kind [4]byte

var (
	KindSkeleton    = Kind{'S', 'K', 'E', 'L'}
	KindMotion      = Kind{'M', 'O', 'T', 'N'}
	KindExpressions = Kind{'E', 'X', 'P', 'R'}
)

func (k Kind) String() string { return string(k[:]) }

// Blob is a loaded, size-checked data blob. It never holds absolute
// pointers; every internal reference is an offset from the structure that
// owns it, so the bytes can be copied anywhere.
type Blob struct {
	data []byte
}

// Parse validates the common header of data and wraps it. The slice is
// retained, not copied.
func Parse(data []byte) (*Blob, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	size := binary.LittleEndian.Uint32(data[4:8])
	if int64(size) != int64(len(data)) {
		return nil, fmt.Errorf("%w: header says %d, read %d", ErrSizeMismatch, size, len(data))
	}
	return &Blob{data: data}, nil
}

func (b *Blob) Kind() Kind {
	var k Kind
	copy(k[:], b.data[:4])
	return k
}

func (b *Blob) Size() int      { return len(b.data) }
func (b *Blob) Flags() uint32  { return binary.LittleEndian.Uint32(b.data[8:12]) }
func (b *Blob) Bytes() []byte  { return b.data }
func (b *Blob) ShiftJIS() bool { return b.Flags()&FlagShiftJIS != 0 }

// Is reports whether the blob carries the given kind tag.
func (b *Blob) Is(k Kind) bool {
	return b != nil && b.Kind() == k
}

// Expect is the checked downcast used by the typed views.
func (b *Blob) Expect(k Kind) error {
	if b == nil {
		return fmt.Errorf("%w: no blob, want %s", ErrKindMismatch, k)
	}
	if got := b.Kind(); got != k {
		return fmt.Errorf("%w: got %q, want %q", ErrKindMismatch, got.String(), k.String())
	}
	return nil
}

// Root returns a view whose base is the blob start.
func (b *Blob) Root() View {
	return View{data: b.data}
}

// Names returns the string table referenced by the offset field at off
// in the blob header.
func (b *Blob) Names(off int) Names {
	v, _ := b.Root().Sub(off)
	return Names{v: v, sjis: b.ShiftJIS()}
}
