package skeleton

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/mathutil"
)

func open(t *testing.T, d Desc) *Skeleton {
	t.Helper()
	data, err := Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := blob.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := Open(b)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func chain() Desc {
	return Desc{
		Nodes: []NodeDesc{
			{Name: "root", Path: "root", Parent: -1, Pos: mgl32.Vec3{0, 0, 1}},
			{Name: "A", Path: "root/A", Parent: 0, Pos: mgl32.Vec3{1, 0, 0}, Rot: mgl32.Vec3{0, 0, 90}},
			{Name: "B", Path: "root/A/B", Parent: 1, Pos: mgl32.Vec3{2, 0, 0}, Scale: mgl32.Vec3{2, 2, 2}},
		},
		MoveNode: -1,
	}
}

func TestHierarchyPropagation(t *testing.T) {
	s := open(t, chain())
	local := make([]mgl32.Mat4, 3)
	world := make([]mgl32.Mat4, 3)
	s.RestLocals(local)
	PropagateWorld(s, local, world)

	want := mathutil.Mul(mathutil.Mul(local[2], local[1]), local[0])
	if !mathutil.NearlyEqual(world[2], want, 1e-5) {
		t.Errorf("world[B] = %v, want %v", world[2], want)
	}
	// A sits at (1,0,1) and is rotated 90° about z, so B's offset turns onto y.
	if got := mathutil.Translation(world[2]); !nearVec(got, mgl32.Vec3{1, 2, 1}) {
		t.Errorf("B origin = %v", got)
	}
	if !mathutil.NearlyEqual(world[2], s.RestWorld(2), 1e-5) {
		t.Error("stored rest world disagrees with propagation")
	}
}

func TestDerivesLocalFromWorld(t *testing.T) {
	full := open(t, chain())
	d := chain()
	d.Rest = RestWorld
	sparse := open(t, d)
	for i := 0; i < 3; i++ {
		if !mathutil.NearlyEqual(sparse.RestLocal(i), full.RestLocal(i), 1e-4) {
			t.Errorf("local[%d] = %v, want %v", i, sparse.RestLocal(i), full.RestLocal(i))
		}
		if !mathutil.NearlyEqual(sparse.InverseWorld(i), full.InverseWorld(i), 1e-4) {
			t.Errorf("invWorld[%d] differs", i)
		}
	}
	if got := sparse.RestScale(2); !nearVec(got, mgl32.Vec3{2, 2, 2}) {
		t.Errorf("derived scale = %v", got)
	}
	if got := sparse.RestRot(1); !nearVec(got, mgl32.Vec3{0, 0, 90}) {
		t.Errorf("derived rotation = %v", got)
	}
}

func TestDerivesFromChannelsOnly(t *testing.T) {
	d := chain()
	d.Rest = RestChannels
	s := open(t, d)
	full := open(t, chain())
	if !mathutil.NearlyEqual(s.RestWorld(2), full.RestWorld(2), 1e-4) {
		t.Errorf("world from channels = %v", s.RestWorld(2))
	}
}

func TestLookupAndBounds(t *testing.T) {
	d := chain()
	d.Nodes = append(d.Nodes, NodeDesc{Name: "A", Path: "root/A2", Parent: 0, Type: TypeSlerp})
	d.MoveNode = 1
	s := open(t, d)

	if got := s.FindByName("A"); got != 1 {
		t.Errorf("FindByName(A) = %d, want first match 1", got)
	}
	if got := s.FindByPath("root/A2"); got != 3 {
		t.Errorf("FindByPath = %d", got)
	}
	if s.FindByName("missing") != -1 {
		t.Error("missing name resolved")
	}
	if !s.Slerp(3) || s.Slerp(1) {
		t.Error("slerp flag mismatch")
	}
	if s.MoveNode() != 1 || s.RootNode() != 0 {
		t.Errorf("move=%d root=%d", s.MoveNode(), s.RootNode())
	}
	if s.Node(2).Level != 2 {
		t.Errorf("level = %d", s.Node(2).Level)
	}
	if s.Parent(99) != -1 || s.Name(-1) != "" || s.RestScale(99) != mathutil.One {
		t.Error("out of range lookups are not inert")
	}
	if s.RestLocal(42) != mgl32.Ident4() {
		t.Error("out of range local is not identity")
	}
}

func TestBuildRejectsForwardParent(t *testing.T) {
	_, err := Build(Desc{Nodes: []NodeDesc{{Name: "a", Parent: 1}, {Name: "b", Parent: -1}}})
	if err == nil {
		t.Fatal("forward parent accepted")
	}
}

func TestOpenRejectsOtherKinds(t *testing.T) {
	bld := blob.NewBuilder(blob.KindMotion, 0, blob.HeaderSize)
	b, err := blob.Parse(bld.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(b); !errors.Is(err, blob.ErrKindMismatch) {
		t.Errorf("Open(MOTN) = %v", err)
	}
}

func TestSkinningMatricesAtRest(t *testing.T) {
	s := open(t, chain())
	world := make([]mgl32.Mat4, 3)
	for i := range world {
		world[i] = s.RestWorld(i)
	}
	out := make([]mgl32.Mat4, 3)
	SkinningMatrices(s, world, out)
	for i, m := range out {
		if !mathutil.NearlyEqual(m, mgl32.Ident4(), 1e-4) {
			t.Errorf("skin[%d] at rest = %v", i, m)
		}
	}
}

func nearVec(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-3)
}
