package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one rendered frame in the output manifest.
type ManifestEntry struct {
	Character string  `json:"character"`
	Motion    string  `json:"motion"`
	Index     int     `json:"index"`
	Frame     float32 `json:"frame"`
	Image     string  `json:"image"`
}

// WriteManifest writes manifest.json listing every frame of every
// successful bake.
func WriteManifest(path string, results []Result) error {
	entries := []ManifestEntry{}
	for _, r := range results {
		if !r.Success {
			continue
		}
		for _, img := range r.Images {
			entries = append(entries, ManifestEntry{
				Character: r.Character,
				Motion:    r.Name,
				Index:     r.Index,
				Frame:     img.Frame,
				Image:     img.Path,
			})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
