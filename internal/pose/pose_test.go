package pose

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestChannelNames(t *testing.T) {
	for c := TX; c < NumChannels; c++ {
		got, ok := ParseChannel(c.String())
		if !ok || got != c {
			t.Errorf("ParseChannel(%q) = %v %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseChannel("tw"); ok {
		t.Error("unknown channel parsed")
	}
	if RY.Group() != 1 || RY.Axis() != 1 || SZ.Group() != 2 {
		t.Error("group/axis mapping wrong")
	}
	if GroupChannels(2) != [3]string{"sx", "sy", "sz"} {
		t.Error("GroupChannels(2) wrong")
	}
}

func TestMaskGroups(t *testing.T) {
	var m Mask
	m = m.With(RZ)
	if !m.Group(1) || m.Group(0) || m.Group(2) {
		t.Errorf("mask %b groups wrong", m)
	}
	if !m.Has(RZ) || m.Has(RX) {
		t.Error("Has wrong")
	}
	if m.Without(RZ) != 0 {
		t.Error("Without did not clear")
	}
	if AllMask != 0x1FF || RotMask != 0x38 || SclMask != 0x1C0 {
		t.Errorf("masks %x %x %x", AllMask, RotMask, SclMask)
	}
}

func TestParamsGetSet(t *testing.T) {
	var p Params
	p.Reset(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	p.Anim = p.Anim.With(TX)
	p.Set(SY, 4)
	p.Set(RX, 90)
	if p.Get(TZ) != 3 || p.Get(SY) != 4 || p.Rot[0] != 90 {
		t.Errorf("params = %+v", p)
	}
	if p.Get(NumChannels) != 0 {
		t.Error("out of range channel read")
	}
	p.Expr = p.Expr.With(SX)
	if p.Touched() != (Mask(0).With(TX).With(SX)) {
		t.Errorf("touched = %b", p.Touched())
	}
	p.Reset(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{})
	if p.Touched() != 0 {
		t.Error("Reset kept masks")
	}
}
