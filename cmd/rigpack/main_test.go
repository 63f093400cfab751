package main

import (
	"os"
	"path/filepath"
	"testing"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/skeleton"
)

const heroJSON = `{
  "skeleton": {
    "move_node": "n_Move",
    "nodes": [
      {"name": "root"},
      {"name": "n_Move", "parent": "root", "pos": [0, 1, 0]},
      {"name": "j_Spine", "path": "root/n_Move/j_Spine", "parent": "n_Move",
       "rotation_order": "ZXY", "transform_order": "TRS", "slerp": true, "scale": [1, 2, 1]}
    ]
  },
  "motions": [{
    "name": "walk", "max_frame": 10, "fps": 24,
    "curves": [
      {"node": "n_Move", "channel": "tx", "keys": [{"frame": 0, "value": 0}, {"frame": 10, "value": 5}]},
      {"node": "j_Spine", "channel": "rz", "function": "cubic",
       "keys": [{"frame": 0, "value": 0}, {"frame": 5, "value": 30, "function": "linear"}, {"frame": 10, "value": 0}]}
    ]
  }],
  "expressions": [
    {"node": "j_Spine", "channel": "ty", "source": "ch(\"n_Move/tx\") * 0.5"}
  ]
}`

func writeSource(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hero.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, path string) *blob.Blob {
	t.Helper()
	b, err := blob.FileLoader{}.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPack(t *testing.T) {
	out := t.TempDir()
	written, err := pack(writeSource(t, heroJSON), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 3 {
		t.Fatalf("wrote %v", written)
	}

	skel, err := skeleton.Open(load(t, filepath.Join(out, "hero.skel")))
	if err != nil {
		t.Fatal(err)
	}
	if skel.NodeCount() != 3 || skel.MoveNode() != 1 || skel.Parent(2) != 1 {
		t.Errorf("skeleton count=%d move=%d parent(2)=%d", skel.NodeCount(), skel.MoveNode(), skel.Parent(2))
	}
	n := skel.Node(2)
	if n.RotationOrder != mathutil.RotZXY || n.TransformOrder != mathutil.OrderTRS || !skel.Slerp(2) {
		t.Errorf("j_Spine node = %+v", n)
	}
	if skel.Path(1) != "n_Move" || skel.Path(2) != "root/n_Move/j_Spine" {
		t.Errorf("paths = %q %q", skel.Path(1), skel.Path(2))
	}
	if skel.RestScale(2)[1] != 2 {
		t.Errorf("j_Spine scale = %v", skel.RestScale(2))
	}

	clip, err := fcurve.Open(load(t, filepath.Join(out, "walk.motn")))
	if err != nil {
		t.Fatal(err)
	}
	if clip.FPS() != 24 || clip.CurveCount() != 2 {
		t.Errorf("clip fps=%v curves=%d", clip.FPS(), clip.CurveCount())
	}
	if v := clip.Curve(clip.FindCurve("n_Move", "tx")).Eval(5, false); v != 2.5 {
		t.Errorf("tx at 5 = %v, want 2.5", v)
	}
	rz := clip.Curve(clip.FindCurve("j_Spine", "rz"))
	if rz.Function(0) != fcurve.Cubic || rz.Function(1) != fcurve.Linear {
		t.Errorf("per-key functions = %s %s", rz.Function(0), rz.Function(1))
	}

	set, err := expr.Open(load(t, filepath.Join(out, "hero.expr")))
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 1 || set.Expr(0).Node() != 2 || set.Expr(0).Channel() != pose.TY {
		t.Errorf("expression 0 node=%d channel=%s", set.Expr(0).Node(), set.Expr(0).Channel())
	}
}

func TestPackErrors(t *testing.T) {
	tests := []struct {
		name, body string
	}{
		{"bad json", `{`},
		{"unknown parent", `{"skeleton": {"nodes": [{"name": "a", "parent": "ghost"}]}}`},
		{"bad rotation order", `{"skeleton": {"nodes": [{"name": "a", "rotation_order": "XXY"}]}}`},
		{"bad function", `{"skeleton": {"nodes": [{"name": "a"}]},
			"motions": [{"name": "m", "max_frame": 1, "curves": [{"node": "a", "channel": "tx", "function": "step"}]}]}`},
		{"unnamed motion", `{"skeleton": {"nodes": [{"name": "a"}]}, "motions": [{"max_frame": 1}]}`},
		{"bad channel", `{"skeleton": {"nodes": [{"name": "a"}]}, "expressions": [{"node": "a", "channel": "qq", "source": "1"}]}`},
		{"bad source", `{"skeleton": {"nodes": [{"name": "a"}]}, "expressions": [{"node": "a", "channel": "tx", "source": "1 +"}]}`},
	}
	for _, tt := range tests {
		if _, err := pack(writeSource(t, tt.body), t.TempDir()); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
