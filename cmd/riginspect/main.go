package main

import (
	"flag"
	"fmt"
	"os"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/riglink"
	"rig-runtime/internal/skeleton"
)

func main() {
	frame := flag.Float64("frame", -1, "Also print every curve's value at this frame")
	skelPath := flag.String("skel", "", "Skeleton blob to bind motions against")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: riginspect [-frame F] [-skel file.skel] file...")
		os.Exit(2)
	}

	var skel *skeleton.Skeleton
	if *skelPath != "" {
		b, err := blob.FileLoader{}.Load(*skelPath)
		if err == nil {
			skel, err = skeleton.Open(b)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path, skel, float32(*frame)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string, skel *skeleton.Skeleton, frame float32) error {
	b, err := blob.FileLoader{}.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: kind=%s size=%d shift-jis=%v\n", path, b.Kind(), b.Size(), b.ShiftJIS())

	switch b.Kind() {
	case blob.KindSkeleton:
		s, err := skeleton.Open(b)
		if err != nil {
			return err
		}
		dumpSkeleton(s)
	case blob.KindMotion:
		c, err := fcurve.Open(b)
		if err != nil {
			return err
		}
		dumpClip(c, frame)
		if skel != nil {
			dumpLink(riglink.Build(c, skel))
		}
	case blob.KindExpressions:
		set, err := expr.Open(b)
		if err != nil {
			return err
		}
		for i := 0; i < set.Len(); i++ {
			e := set.Expr(i)
			fmt.Printf("  Expr[%d]: node=%d channel=%s\n", i, e.Node(), e.Channel())
			fmt.Print(expr.Disassemble(e))
		}
	default:
		return fmt.Errorf("%s: unknown blob kind %q", path, b.Kind())
	}
	return nil
}

func dumpSkeleton(s *skeleton.Skeleton) {
	fmt.Printf("Nodes: %d, move=%d, root=%d\n", s.NodeCount(), s.MoveNode(), s.RootNode())
	for i := 0; i < s.NodeCount(); i++ {
		n := s.Node(i)
		fmt.Printf("  Node[%d] %q parent=%d %s/%s slerp=%v\n",
			i, s.Path(i), n.Parent, n.RotationOrder, n.TransformOrder, s.Slerp(i))
		p, r, sc := s.RestPos(i), s.RestRot(i), s.RestScale(i)
		fmt.Printf("    T[%.3f %.3f %.3f] R[%.2f %.2f %.2f] S[%.3f %.3f %.3f]\n",
			p[0], p[1], p[2], r[0], r[1], r[2], sc[0], sc[1], sc[2])
	}
}

func dumpClip(c *fcurve.Clip, frame float32) {
	fmt.Printf("Frames: %d..%d (%d), fps=%.1f, duration=%.2fs, fno bytes=%d\n",
		c.MinFrame(), c.MaxFrame(), c.MaxFno(), c.FPS(), c.Duration(), c.FrameNumberBytes())
	fmt.Printf("Nodes: %d, Curves: %d\n", c.NodeCount(), c.CurveCount())
	for id := 0; id < c.CurveCount(); id++ {
		cv := c.Curve(id)
		fmt.Printf("  Curve[%d] %s.%s keys=%d range=[%.3f, %.3f]",
			id, c.CurveNode(id), c.CurveChannel(id), cv.KeyCount(), cv.MinVal(), cv.MaxVal())
		if cv.KeyCount() > 0 {
			fmt.Printf(" fn=%s", cv.Function(0))
		}
		if frame >= 0 {
			fmt.Printf(" @%g=%.4f", frame, cv.Eval(frame, false))
		}
		fmt.Println()
	}
}

func dumpLink(l *riglink.Link) {
	s := l.Skeleton()
	fmt.Printf("Bound: %d nodes, %d channel groups\n", l.NodeCount(), l.ValCount())
	for i := 0; i < l.NodeCount(); i++ {
		n := l.Node(i)
		groups := ""
		for g, v := range []*riglink.Val{n.Pos, n.Rot, n.Scl} {
			if v != nil {
				groups += string("TRS"[g])
			}
		}
		fmt.Printf("  %s -> node %d (%s) slerp=%v\n", l.Clip().NodeName(n.ClipNode), n.RigNode, groups, n.UseSlerp)
	}
	unbound := 0
	for i := 0; i < s.NodeCount(); i++ {
		if l.LinkIndex(i) < 0 {
			unbound++
		}
	}
	fmt.Printf("Unanimated skeleton nodes: %d\n", unbound)
}
