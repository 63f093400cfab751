package motionlist

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// xmlMotionList matches the motions.xml schema.
type xmlMotionList struct {
	Characters []xmlCharacter `xml:"Character"`
}

type xmlCharacter struct {
	Name        string      `xml:"Name,attr"`
	Skeleton    string      `xml:"Skeleton,attr"`
	Expressions string      `xml:"Expressions,attr"`
	Motions     []xmlMotion `xml:"Motion"`
}

type xmlMotion struct {
	Index   string `xml:"Index,attr"`
	Name    string `xml:"Name,attr"`
	File    string `xml:"File,attr"`
	Frames  string `xml:"Frames,attr"`
	Step    string `xml:"Step,attr"`
	InPlace string `xml:"InPlace,attr"`
}

// Parse reads a motion list and returns every motion with a file.
func Parse(xmlPath string) ([]MotionDef, error) {
	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("motionlist: read %s: %w", xmlPath, err)
	}
	defs, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("motionlist: parse %s: %w", xmlPath, err)
	}
	return defs, nil
}

// Decode parses motion list XML. Characters without a skeleton and
// motions without a file or with a bad index are skipped.
func Decode(raw []byte) ([]MotionDef, error) {
	var list xmlMotionList
	if err := xml.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	var defs []MotionDef
	for _, ch := range list.Characters {
		if ch.Skeleton == "" {
			continue
		}
		for _, m := range ch.Motions {
			if m.File == "" {
				continue
			}
			idx, err := strconv.Atoi(m.Index)
			if err != nil {
				continue
			}
			frames, err := parseFrames(m.Frames)
			if err != nil {
				return nil, fmt.Errorf("motion %s/%s: %w", ch.Name, m.Name, err)
			}
			step := float32(1)
			if m.Step != "" {
				v, err := strconv.ParseFloat(m.Step, 32)
				if err != nil {
					return nil, fmt.Errorf("motion %s/%s: step: %w", ch.Name, m.Name, err)
				}
				step = float32(v)
			}
			inPlace, _ := strconv.ParseBool(m.InPlace)
			defs = append(defs, MotionDef{
				Character:   ch.Name,
				Skeleton:    ch.Skeleton,
				Expressions: ch.Expressions,
				Index:       idx,
				Name:        m.Name,
				MotionFile:  m.File,
				Frames:      frames,
				Step:        step,
				InPlace:     inPlace,
			})
		}
	}
	return defs, nil
}

// parseFrames reads a comma separated frame list; empty means frame 0.
func parseFrames(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return []float32{0}, nil
	}
	parts := strings.Split(s, ",")
	frames := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("frames: %w", err)
		}
		frames = append(frames, float32(v))
	}
	return frames, nil
}
