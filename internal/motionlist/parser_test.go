package motionlist

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `<?xml version="1.0"?>
<MotionList>
  <Character Name="hero" Skeleton="hero.skel" Expressions="hero.expr">
    <Motion Index="0" Name="idle" File="idle.motn"/>
    <Motion Index="1" Name="walk" File="walk.motn" Frames="0, 2.5,10" Step="0.5" InPlace="true"/>
    <Motion Index="x" Name="broken" File="broken.motn"/>
    <Motion Index="3" Name="nofile"/>
  </Character>
  <Character Name="prop">
    <Motion Index="0" Name="spin" File="spin.motn"/>
  </Character>
</MotionList>`

func TestDecode(t *testing.T) {
	defs, err := Decode([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d motions, want 2: %+v", len(defs), defs)
	}
	idle, walk := defs[0], defs[1]
	if idle.Character != "hero" || idle.Skeleton != "hero.skel" || idle.Expressions != "hero.expr" {
		t.Errorf("idle character fields = %+v", idle)
	}
	if len(idle.Frames) != 1 || idle.Frames[0] != 0 || idle.Step != 1 || idle.InPlace {
		t.Errorf("idle defaults = %+v", idle)
	}
	want := []float32{0, 2.5, 10}
	if len(walk.Frames) != len(want) {
		t.Fatalf("walk frames = %v", walk.Frames)
	}
	for i, f := range want {
		if walk.Frames[i] != f {
			t.Errorf("walk frame %d = %v, want %v", i, walk.Frames[i], f)
		}
	}
	if walk.Index != 1 || walk.MotionFile != "walk.motn" || walk.Step != 0.5 || !walk.InPlace {
		t.Errorf("walk = %+v", walk)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []string{
		`<MotionList><Character`,
		`<MotionList><Character Name="a" Skeleton="a.skel"><Motion Index="0" File="m" Frames="1,x"/></Character></MotionList>`,
		`<MotionList><Character Name="a" Skeleton="a.skel"><Motion Index="0" File="m" Step="fast"/></Character></MotionList>`,
	}
	for _, src := range tests {
		if _, err := Decode([]byte(src)); err == nil {
			t.Errorf("Decode(%q) succeeded", src)
		}
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motions.xml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	defs, err := Parse(path)
	if err != nil || len(defs) != 2 {
		t.Fatalf("Parse = %d defs, %v", len(defs), err)
	}
	if _, err := Parse(filepath.Join(t.TempDir(), "none.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}
