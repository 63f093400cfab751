package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/mathutil"
	"rig-runtime/internal/pose"
	"rig-runtime/internal/skeleton"
)

// Source is one character's rig in JSON form.
type Source struct {
	Name        string      `json:"name"`
	ShiftJIS    bool        `json:"shift_jis"`
	Skeleton    SkeletonSrc `json:"skeleton"`
	Motions     []MotionSrc `json:"motions"`
	Expressions []ExprSrc   `json:"expressions"`
}

type SkeletonSrc struct {
	MoveNode string    `json:"move_node"`
	RootNode string    `json:"root_node"`
	Nodes    []NodeSrc `json:"nodes"`
}

type NodeSrc struct {
	Name           string      `json:"name"`
	Path           string      `json:"path"`
	Parent         string      `json:"parent"`
	RotationOrder  string      `json:"rotation_order"`
	TransformOrder string      `json:"transform_order"`
	Slerp          bool        `json:"slerp"`
	Pos            [3]float32  `json:"pos"`
	Rot            [3]float32  `json:"rot"`
	Scale          *[3]float32 `json:"scale"`
}

type MotionSrc struct {
	Name     string     `json:"name"`
	MinFrame int        `json:"min_frame"`
	MaxFrame int        `json:"max_frame"`
	FPS      float32    `json:"fps"`
	Curves   []CurveSrc `json:"curves"`
}

type CurveSrc struct {
	Node     string   `json:"node"`
	Channel  string   `json:"channel"`
	Function string   `json:"function"`
	Value    float32  `json:"value"`
	Implicit bool     `json:"implicit"`
	Keys     []KeySrc `json:"keys"`
}

// KeySrc is a key; a per-key function overrides the curve's.
type KeySrc struct {
	Frame      int     `json:"frame"`
	Value      float32 `json:"value"`
	LeftSlope  float32 `json:"left_slope"`
	RightSlope float32 `json:"right_slope"`
	Function   string  `json:"function"`
}

type ExprSrc struct {
	Node    string `json:"node"`
	Channel string `json:"channel"`
	Source  string `json:"source"`
}

func loadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rigpack: read %s: %w", path, err)
	}
	var src Source
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("rigpack: parse %s: %w", path, err)
	}
	return &src, nil
}

// nodeIndex maps node names to their declaration index; the first
// declaration of a name wins.
func (s *Source) nodeIndex() map[string]int {
	idx := make(map[string]int, len(s.Skeleton.Nodes))
	for i, n := range s.Skeleton.Nodes {
		if _, dup := idx[n.Name]; !dup {
			idx[n.Name] = i
		}
	}
	return idx
}

func (s *Source) skeletonDesc() (skeleton.Desc, error) {
	idx := s.nodeIndex()
	lookup := func(name string, def int) (int, error) {
		if name == "" {
			return def, nil
		}
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("unknown node %q", name)
		}
		return i, nil
	}

	d := skeleton.Desc{ShiftJIS: s.ShiftJIS}
	var err error
	if d.MoveNode, err = lookup(s.Skeleton.MoveNode, -1); err != nil {
		return d, fmt.Errorf("move_node: %w", err)
	}
	if d.RootNode, err = lookup(s.Skeleton.RootNode, 0); err != nil {
		return d, fmt.Errorf("root_node: %w", err)
	}
	for i, n := range s.Skeleton.Nodes {
		nd := skeleton.NodeDesc{
			Name: n.Name,
			Path: n.Path,
			Pos:  mgl32.Vec3(n.Pos),
			Rot:  mgl32.Vec3(n.Rot),
		}
		if nd.Path == "" {
			nd.Path = n.Name
		}
		if nd.Parent, err = lookup(n.Parent, -1); err != nil {
			return d, fmt.Errorf("node %d parent: %w", i, err)
		}
		if n.Scale != nil {
			nd.Scale = mgl32.Vec3(*n.Scale)
		}
		if n.Slerp {
			nd.Type |= skeleton.TypeSlerp
		}
		if n.RotationOrder != "" {
			ro, ok := mathutil.ParseRotationOrder(n.RotationOrder)
			if !ok {
				return d, fmt.Errorf("node %q: rotation order %q", n.Name, n.RotationOrder)
			}
			nd.RotationOrder = ro
		}
		if n.TransformOrder != "" {
			to, ok := mathutil.ParseTransformOrder(n.TransformOrder)
			if !ok {
				return d, fmt.Errorf("node %q: transform order %q", n.Name, n.TransformOrder)
			}
			nd.TransformOrder = to
		}
		d.Nodes = append(d.Nodes, nd)
	}
	return d, nil
}

func (s *Source) clipDesc(m MotionSrc) (fcurve.ClipDesc, error) {
	d := fcurve.ClipDesc{MinFrame: m.MinFrame, MaxFrame: m.MaxFrame, FPS: m.FPS, ShiftJIS: s.ShiftJIS}
	for _, c := range m.Curves {
		fn, ok := parseFunction(c.Function)
		if !ok {
			return d, fmt.Errorf("motion %s: curve %s.%s: function %q", m.Name, c.Node, c.Channel, c.Function)
		}
		cd := fcurve.CurveDesc{Node: c.Node, Channel: c.Channel, Function: fn, Implicit: c.Implicit, Value: c.Value}
		for _, k := range c.Keys {
			key := fcurve.Key{Frame: k.Frame, Value: k.Value, LeftSlope: k.LeftSlope, RightSlope: k.RightSlope, Function: fn}
			if k.Function != "" {
				if key.Function, ok = parseFunction(k.Function); !ok {
					return d, fmt.Errorf("motion %s: key function %q", m.Name, k.Function)
				}
				cd.PerKey = true
			}
			cd.Keys = append(cd.Keys, key)
		}
		d.Curves = append(d.Curves, cd)
	}
	return d, nil
}

func (s *Source) exprEntries() ([]expr.Entry, error) {
	idx := s.nodeIndex()
	entries := make([]expr.Entry, 0, len(s.Expressions))
	for i, e := range s.Expressions {
		node, ok := idx[e.Node]
		if !ok {
			return nil, fmt.Errorf("expression %d: unknown node %q", i, e.Node)
		}
		ch, ok := pose.ParseChannel(e.Channel)
		if !ok {
			return nil, fmt.Errorf("expression %d: unknown channel %q", i, e.Channel)
		}
		prog, err := expr.Compile(e.Source)
		if err != nil {
			return nil, fmt.Errorf("expression %d (%s.%s): %w", i, e.Node, e.Channel, err)
		}
		entries = append(entries, expr.Entry{Node: node, Channel: ch, Program: prog})
	}
	return entries, nil
}

// parseFunction defaults an empty name to linear.
func parseFunction(s string) (fcurve.Function, bool) {
	if s == "" {
		return fcurve.Linear, true
	}
	return fcurve.ParseFunction(s)
}
