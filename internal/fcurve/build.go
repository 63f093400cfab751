package fcurve

import (
	"errors"
	"fmt"

	"rig-runtime/internal/blob"
)

// Key is one authored keyframe. Slopes are in value units per second.
type Key struct {
	Frame      int
	Value      float32
	LeftSlope  float32
	RightSlope float32
	Function   Function // only stored when the curve has PerKey set
}

// CurveDesc describes one channel curve. A curve without keys is constant
// at Value.
type CurveDesc struct {
	Node     string
	Channel  string
	Function Function
	PerKey   bool
	Implicit bool // keys sit on frames 0..n-1; no frame list is stored
	Keys     []Key
	Value    float32
}

// NodeDesc names one animated node of the clip.
type NodeDesc struct {
	Name string
	Path string
}

// ClipDesc describes a whole motion clip.
type ClipDesc struct {
	MinFrame int
	MaxFrame int
	FPS      float32
	ShiftJIS bool
	Nodes    []NodeDesc // derived from the curves when empty
	Curves   []CurveDesc
}

const maxFrameNumber = 1<<24 - 1

// FrameNumberBytes returns the packed width for frame numbers up to maxFno.
func FrameNumberBytes(maxFno int) int {
	switch {
	case maxFno <= 0xFF:
		return 1
	case maxFno <= 0xFFFF:
		return 2
	}
	return 3
}

// Build encodes a motion blob.
func Build(d ClipDesc) ([]byte, error) {
	if d.MaxFrame < d.MinFrame {
		return nil, fmt.Errorf("fcurve: frame range %d..%d is inverted", d.MinFrame, d.MaxFrame)
	}
	maxFno := d.MaxFrame - d.MinFrame
	for _, cd := range d.Curves {
		if cd.Node == "" || cd.Channel == "" {
			return nil, errors.New("fcurve: curve without node or channel name")
		}
		for i, k := range cd.Keys {
			if k.Frame < 0 || k.Frame > maxFrameNumber {
				return nil, fmt.Errorf("fcurve: %s.%s key %d frame %d out of range", cd.Node, cd.Channel, i, k.Frame)
			}
			if i > 0 && k.Frame <= cd.Keys[i-1].Frame {
				return nil, fmt.Errorf("fcurve: %s.%s keys not strictly increasing at %d", cd.Node, cd.Channel, i)
			}
			if k.Frame > maxFno {
				maxFno = k.Frame
			}
		}
	}
	width := FrameNumberBytes(maxFno)

	nodes := d.Nodes
	if len(nodes) == 0 {
		seen := map[string]bool{}
		for _, cd := range d.Curves {
			if !seen[cd.Node] {
				seen[cd.Node] = true
				nodes = append(nodes, NodeDesc{Name: cd.Node})
			}
		}
	}

	var flags uint32
	if d.ShiftJIS {
		flags |= blob.FlagShiftJIS
	}
	names := blob.NewStringTable(d.ShiftJIS)
	b := blob.NewBuilder(blob.KindMotion, flags, headerSize)
	b.PutI32(offMinFrame, int32(d.MinFrame))
	b.PutI32(offMaxFrame, int32(d.MaxFrame))
	b.PutF32(offFPS, d.FPS)
	b.PutU8(offFrameBytes, uint8(width))
	b.PutU32(offNodeCount, uint32(len(nodes)))
	b.PutU32(offCurveCount, uint32(len(d.Curves)))

	if len(nodes) > 0 {
		tbl := b.Reserve(len(nodes) * clipNodeSize)
		b.Link(0, offNodes, tbl)
		for i, nd := range nodes {
			b.PutU32(tbl+i*clipNodeSize, names.ID(nd.Name))
			b.PutU32(tbl+i*clipNodeSize+4, names.ID(nd.Path))
		}
	}
	if len(d.Curves) > 0 {
		tbl := b.Reserve(len(d.Curves) * curveEntrySize)
		b.Link(0, offCurves, tbl)
		for i, cd := range d.Curves {
			entry := tbl + i*curveEntrySize
			b.PutU32(entry, names.ID(cd.Node))
			b.PutU32(entry+4, names.ID(cd.Channel))
			putCurve(b, entry+curveInfoAt, cd, width)
		}
	}

	if err := names.Err(); err != nil {
		return nil, fmt.Errorf("fcurve: encode names: %w", err)
	}
	b.Link(0, offStrings, b.AppendBytes(names.Bytes()))
	return b.Bytes(), nil
}

func putCurve(b *blob.Builder, info int, cd CurveDesc, width int) {
	b.PutU8(info+infoCommonFunc, uint8(cd.Function))
	n := len(cd.Keys)
	if n == 0 {
		b.PutF32(info+infoMinVal, cd.Value)
		b.PutF32(info+infoMaxVal, cd.Value)
		return
	}
	b.PutU32(info+infoKeyCount, uint32(n))

	values := make([]float32, n)
	left := make([]float32, n)
	right := make([]float32, n)
	frames := make([]uint32, n)
	funcs := make([]byte, n)
	cubic := cd.Function == Cubic
	minV, maxV := cd.Keys[0].Value, cd.Keys[0].Value
	for i, k := range cd.Keys {
		values[i], left[i], right[i] = k.Value, k.LeftSlope, k.RightSlope
		frames[i] = uint32(k.Frame)
		funcs[i] = byte(k.Function)
		if cd.PerKey && k.Function == Cubic {
			cubic = true
		}
		minV = min(minV, k.Value)
		maxV = max(maxV, k.Value)
	}
	b.PutF32(info+infoMinVal, minV)
	b.PutF32(info+infoMaxVal, maxV)
	b.Link(info, infoValues, b.AppendF32s(values))
	if cubic {
		b.Link(info, infoLeftSlope, b.AppendF32s(left))
		b.Link(info, infoRightSlope, b.AppendF32s(right))
	}
	if !cd.Implicit {
		b.Link(info, infoFrameNumber, b.AppendUints(frames, width))
	}
	if cd.PerKey {
		b.Link(info, infoPerKeyFunc, b.AppendBytes(funcs))
	}
}
