// Package preview draws a posed skeleton as a stick figure and encodes
// the result for contact sheets and regression images.
package preview

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/skeleton"
)

// Options controls a preview render.
type Options struct {
	Size        int
	Supersample int
	Camera      Camera
	Bone        color.NRGBA
	Joint       color.NRGBA
	Background  color.NRGBA
}

// DefaultOptions returns a 256px, 2x supersampled front view.
func DefaultOptions() Options {
	return Options{
		Size:        256,
		Supersample: 2,
		Bone:        color.NRGBA{160, 160, 170, 255},
		Joint:       color.NRGBA{230, 120, 60, 255},
	}
}

// Far geometry is darkened down to this fraction of its colour.
const farShade = 0.55

type segment struct {
	a, b  int
	depth float32
}

// Render draws a bone from every node to its parent and a dot on every
// joint, back to front.
func Render(h skeleton.Hierarchy, world []mgl32.Mat4, o Options) *image.NRGBA {
	if o.Size <= 0 {
		o.Size = DefaultOptions().Size
	}
	ss := max(o.Supersample, 1)
	renderSize := o.Size * ss

	n := min(h.NodeCount(), len(world))
	points := make([]mgl32.Vec3, n)
	for i := range points {
		points[i] = mathutil.Translation(world[i])
	}
	proj := Project(points, o.Camera, renderSize, 16*ss)

	dst := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	if o.Background.A > 0 {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(o.Background), image.Point{}, draw.Src)
	}
	if n == 0 {
		return Downsample(dst, o.Size)
	}

	zMin, zMax := proj.Z[0], proj.Z[0]
	for _, z := range proj.Z {
		zMin, zMax = min(zMin, z), max(zMax, z)
	}
	shade := func(c color.NRGBA, z float32) color.NRGBA {
		t := float32(1)
		if zMax > zMin {
			t = farShade + (1-farShade)*(z-zMin)/(zMax-zMin)
		}
		return color.NRGBA{uint8(float32(c.R) * t), uint8(float32(c.G) * t), uint8(float32(c.B) * t), c.A}
	}

	segs := make([]segment, 0, n)
	for i := 0; i < n; i++ {
		if p := h.Parent(i); p >= 0 && p < n {
			segs = append(segs, segment{a: p, b: i, depth: (proj.Z[p] + proj.Z[i]) / 2})
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].depth < segs[j].depth })

	z := vector.NewRasterizer(renderSize, renderSize)
	width := 2 * float32(ss)
	for _, s := range segs {
		z.Reset(renderSize, renderSize)
		if !strokeSegment(z, proj.X[s.a], proj.Y[s.a], proj.X[s.b], proj.Y[s.b], width) {
			continue
		}
		z.Draw(dst, dst.Bounds(), image.NewUniform(shade(o.Bone, s.depth)), image.Point{})
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return proj.Z[order[i]] < proj.Z[order[j]] })
	radius := 3 * float32(ss)
	for _, i := range order {
		z.Reset(renderSize, renderSize)
		disc(z, proj.X[i], proj.Y[i], radius)
		z.Draw(dst, dst.Bounds(), image.NewUniform(shade(o.Joint, proj.Z[i])), image.Point{})
	}

	return Downsample(dst, o.Size)
}

// strokeSegment adds a quad of the given width around a→b. Degenerate
// segments add nothing and report false.
func strokeSegment(z *vector.Rasterizer, x0, y0, x1, y1, width float32) bool {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l < 1e-3 {
		return false
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
	return true
}

func disc(z *vector.Rasterizer, cx, cy, r float32) {
	const steps = 16
	z.MoveTo(cx+r, cy)
	for i := 1; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		z.LineTo(cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)))
	}
	z.ClosePath()
}
