package fcurve

import (
	"fmt"
	"math"

	"rig-runtime/internal/blob"
)

const (
	offMinFrame    = 16
	offMaxFrame    = 20
	offFPS         = 24
	offFrameBytes  = 28
	offNodeCount   = 32
	offNodes       = 36
	offCurveCount  = 40
	offCurves      = 44
	offStrings     = 48
	headerSize     = 52
	clipNodeSize   = 8
	curveEntrySize = 44
	curveInfoAt    = 8
)

// DefaultFPS is used when a clip does not declare a playback rate.
const DefaultFPS = 30

// Clip is a read-only view over a motion blob.
type Clip struct {
	blob     *blob.Blob
	names    blob.Names
	minFrame int32
	maxFrame int32
	fps      float32
	fnoBytes int

	nodes      blob.View
	nodeCount  int
	curves     blob.View
	curveCount int

	index map[curveKey]int
}

type curveKey struct {
	node, channel string
}

// Open checks the blob kind and indexes its curves by node and channel.
func Open(b *blob.Blob) (*Clip, error) {
	if err := b.Expect(blob.KindMotion); err != nil {
		return nil, fmt.Errorf("fcurve: %w", err)
	}
	hdr := b.Root()
	c := &Clip{
		blob:       b,
		names:      b.Names(offStrings),
		minFrame:   hdr.I32(offMinFrame),
		maxFrame:   hdr.I32(offMaxFrame),
		fps:        hdr.F32(offFPS),
		fnoBytes:   int(hdr.U8(offFrameBytes)),
		nodeCount:  int(hdr.U32(offNodeCount)),
		curveCount: int(hdr.U32(offCurveCount)),
	}
	if c.fps <= 0 || math.IsNaN(float64(c.fps)) {
		c.fps = DefaultFPS
	}
	if c.fnoBytes < 1 || c.fnoBytes > 3 {
		return nil, fmt.Errorf("fcurve: bad frame number width %d", c.fnoBytes)
	}
	if c.maxFrame < c.minFrame {
		return nil, fmt.Errorf("fcurve: frame range %d..%d is inverted", c.minFrame, c.maxFrame)
	}

	var ok bool
	if c.nodes, ok = hdr.Sub(offNodes); c.nodeCount > 0 && (!ok || c.nodes.Base()+c.nodeCount*clipNodeSize > b.Size()) {
		return nil, fmt.Errorf("fcurve: node table for %d nodes out of range", c.nodeCount)
	}
	if c.curves, ok = hdr.Sub(offCurves); c.curveCount > 0 && (!ok || c.curves.Base()+c.curveCount*curveEntrySize > b.Size()) {
		return nil, fmt.Errorf("fcurve: curve table for %d curves out of range", c.curveCount)
	}

	c.index = make(map[curveKey]int, c.curveCount)
	for id := 0; id < c.curveCount; id++ {
		k := curveKey{c.CurveNode(id), c.CurveChannel(id)}
		if _, dup := c.index[k]; !dup {
			c.index[k] = id
		}
	}
	return c, nil
}

func (c *Clip) MinFrame() int         { return int(c.minFrame) }
func (c *Clip) MaxFrame() int         { return int(c.maxFrame) }
func (c *Clip) FPS() float32          { return c.fps }
func (c *Clip) FrameNumberBytes() int { return c.fnoBytes }
func (c *Clip) NodeCount() int        { return c.nodeCount }
func (c *Clip) CurveCount() int       { return c.curveCount }
func (c *Clip) Blob() *blob.Blob      { return c.blob }
func (c *Clip) Duration() float32     { return float32(c.MaxFno()) / c.fps }

func (c *Clip) curveEntry(id int) blob.View {
	return c.curves.At(id * curveEntrySize)
}

// MaxFno is the last frame number relative to MinFrame.
func (c *Clip) MaxFno() int { return int(c.maxFrame - c.minFrame) }

func (c *Clip) NodeName(i int) string {
	if i < 0 || i >= c.nodeCount {
		return ""
	}
	return c.names.Lookup(c.nodes.At(i * clipNodeSize).U32(0))
}

func (c *Clip) NodePath(i int) string {
	if i < 0 || i >= c.nodeCount {
		return ""
	}
	return c.names.Lookup(c.nodes.At(i * clipNodeSize).U32(4))
}

// CurveNode and CurveChannel name the target of curve id.
func (c *Clip) CurveNode(id int) string {
	if id < 0 || id >= c.curveCount {
		return ""
	}
	return c.names.Lookup(c.curveEntry(id).U32(0))
}

func (c *Clip) CurveChannel(id int) string {
	if id < 0 || id >= c.curveCount {
		return ""
	}
	return c.names.Lookup(c.curveEntry(id).U32(4))
}

// FindCurve returns the id of the first curve driving channel of node,
// or -1.
func (c *Clip) FindCurve(node, channel string) int {
	if id, ok := c.index[curveKey{node, channel}]; ok {
		return id
	}
	return -1
}

// Curve returns curve id. Ids outside the clip give an invalid Curve that
// evaluates to 0.
func (c *Clip) Curve(id int) Curve {
	if c == nil || id < 0 || id >= c.curveCount {
		return Curve{}
	}
	return Curve{v: c.curveEntry(id).At(curveInfoAt), clip: c}
}

// Advance moves the playhead by step and wraps it into [0, MaxFno]. The
// second result reports a wrap.
func (c *Clip) Advance(frame, step float32) (float32, bool) {
	maxF := float32(c.MaxFno())
	next := frame + step
	if maxF <= 0 {
		return 0, next != 0
	}
	switch {
	case next >= maxF:
		return float32(math.Mod(float64(next), float64(maxF))), true
	case next < 0:
		return maxF - float32(math.Mod(float64(-next), float64(maxF))), true
	}
	return next, false
}
