package blob

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Builder lays out a blob in memory. Positions handed out by Reserve and
// the Append helpers are absolute; Link turns them into self-relative
// offset fields.
type Builder struct {
	buf []byte
}

// NewBuilder starts a blob of the given kind whose kind-specific header
// occupies headerSize bytes (common header included).
func NewBuilder(kind Kind, flags uint32, headerSize int) *Builder {
	if headerSize < HeaderSize {
		headerSize = HeaderSize
	}
	b := &Builder{buf: make([]byte, headerSize)}
	copy(b.buf[:4], kind[:])
	b.PutU32(8, flags)
	return b
}

func (b *Builder) Len() int { return len(b.buf) }

// Align pads the buffer to a multiple of n.
func (b *Builder) Align(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

// Reserve appends n zero bytes at 4-byte alignment and returns their position.
func (b *Builder) Reserve(n int) int {
	b.Align(4)
	p := len(b.buf)
	b.buf = append(b.buf, make([]byte, n)...)
	return p
}

func (b *Builder) PutU8(pos int, v uint8)   { b.buf[pos] = v }
func (b *Builder) PutU16(pos int, v uint16) { binary.LittleEndian.PutUint16(b.buf[pos:], v) }
func (b *Builder) PutI16(pos int, v int16)  { b.PutU16(pos, uint16(v)) }
func (b *Builder) PutU32(pos int, v uint32) { binary.LittleEndian.PutUint32(b.buf[pos:], v) }
func (b *Builder) PutI32(pos int, v int32)  { b.PutU32(pos, uint32(v)) }
func (b *Builder) PutF32(pos int, v float32) {
	b.PutU32(pos, math.Float32bits(v))
}

func (b *Builder) PutVec3(pos int, v mgl32.Vec3) {
	for i := range v {
		b.PutF32(pos+i*4, v[i])
	}
}

func (b *Builder) PutMat4(pos int, m mgl32.Mat4) {
	for i := range m {
		b.PutF32(pos+i*4, m[i])
	}
}

// Link stores target as an offset relative to owner in the u32 field at
// owner+field. A negative target leaves the field at 0 (absent).
func (b *Builder) Link(owner, field, target int) {
	if target < 0 {
		return
	}
	b.PutU32(owner+field, uint32(target-owner))
}

// AppendBytes copies raw bytes and returns their position.
func (b *Builder) AppendBytes(p []byte) int {
	b.Align(4)
	pos := len(b.buf)
	b.buf = append(b.buf, p...)
	return pos
}

// AppendF32s appends a float array, returning -1 for an empty one.
func (b *Builder) AppendF32s(vs []float32) int {
	if len(vs) == 0 {
		return -1
	}
	pos := b.Reserve(len(vs) * 4)
	for i, v := range vs {
		b.PutF32(pos+i*4, v)
	}
	return pos
}

// AppendUints packs vs as width-byte little-endian integers.
func (b *Builder) AppendUints(vs []uint32, width int) int {
	if len(vs) == 0 {
		return -1
	}
	pos := b.Reserve(len(vs) * width)
	for i, v := range vs {
		for k := 0; k < width; k++ {
			b.buf[pos+i*width+k] = byte(v >> (8 * k))
		}
	}
	return pos
}

// Bytes finalizes the size field and returns the blob bytes.
func (b *Builder) Bytes() []byte {
	b.Align(4)
	b.PutU32(4, uint32(len(b.buf)))
	return b.buf
}
