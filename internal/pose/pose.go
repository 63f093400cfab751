// Package pose holds the per-node channel state shared by curve sampling,
// expressions and blending.
package pose

import (
	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/mathutil"
)

// Channel is one animatable scalar of a node.
type Channel uint8

const (
	TX Channel = iota
	TY
	TZ
	RX
	RY
	RZ
	SX
	SY
	SZ

	NumChannels
)

var channelNames = [NumChannels]string{"tx", "ty", "tz", "rx", "ry", "rz", "sx", "sy", "sz"}

func (c Channel) String() string {
	if c >= NumChannels {
		return "?"
	}
	return channelNames[c]
}

// ParseChannel maps "tx".."sz" to a channel.
func ParseChannel(s string) (Channel, bool) {
	for i, n := range channelNames {
		if n == s {
			return Channel(i), true
		}
	}
	return 0, false
}

// Group is 0 for translation, 1 for rotation and 2 for scale.
func (c Channel) Group() int { return int(c) / 3 }

// Axis is 0, 1 or 2.
func (c Channel) Axis() int { return int(c) % 3 }

// Names of the channels of one group, in axis order.
func GroupChannels(group int) [3]string {
	return [3]string{channelNames[group*3], channelNames[group*3+1], channelNames[group*3+2]}
}

// Mask is a set of channels.
type Mask uint16

const (
	PosMask Mask = 0x7 << (3 * iota)
	RotMask
	SclMask

	AllMask = PosMask | RotMask | SclMask
)

func (m Mask) Has(c Channel) bool     { return m&(1<<c) != 0 }
func (m Mask) With(c Channel) Mask    { return m | 1<<c }
func (m Mask) Without(c Channel) Mask { return m &^ (1 << c) }
func (m Mask) Group(group int) bool   { return m&(0x7<<(3*group)) != 0 }

// Params is the channel state of one node for the current evaluation.
// Rotations are Euler degrees.
type Params struct {
	Pos, Rot, Scl mgl32.Vec3
	Anim          Mask // written by curve sampling this pass
	Expr          Mask // written by expressions this pass
}

// Reset seeds the channels and clears both masks.
func (p *Params) Reset(pos, rot, scl mgl32.Vec3) {
	*p = Params{Pos: pos, Rot: rot, Scl: scl}
}

func (p *Params) vec(group int) *mgl32.Vec3 {
	switch group {
	case 0:
		return &p.Pos
	case 1:
		return &p.Rot
	}
	return &p.Scl
}

// Get returns the value of channel c.
func (p *Params) Get(c Channel) float32 {
	if c >= NumChannels {
		return 0
	}
	return p.vec(c.Group())[c.Axis()]
}

// Set writes channel c without touching the masks.
func (p *Params) Set(c Channel, v float32) {
	if c >= NumChannels {
		return
	}
	p.vec(c.Group())[c.Axis()] = v
}

// Touched returns every channel written this pass.
func (p *Params) Touched() Mask { return p.Anim | p.Expr }

// Compose builds the local matrix for the given orders.
func (p *Params) Compose(ro mathutil.RotationOrder, to mathutil.TransformOrder) mgl32.Mat4 {
	return mathutil.Compose(p.Pos, p.Rot, p.Scl, ro, to)
}
