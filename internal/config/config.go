package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds blob locations and bake settings.
type Config struct {
	// Paths
	BaseDir    string `json:"base_dir"        env:"RIG_BASE_DIR"`
	BlobDir    string `json:"blob_dir"`
	MotionList string `json:"motion_list_xml"`
	OutputDir  string `json:"output_dir"      env:"RIG_OUTPUT_DIR"`

	// Bake settings
	RenderSize  int     `json:"render_size" env:"RIG_RENDER_SIZE"`
	Supersample int     `json:"supersample"`
	Format      string  `json:"format"       env:"RIG_FORMAT"`
	FrameStep   float32 `json:"frame_step"`
	Workers     int     `json:"workers"      env:"RIG_WORKERS"`
	EvalWorkers int     `json:"eval_workers" env:"RIG_EVAL_WORKERS"`
}

// Output formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values. An empty path yields
// the zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from RIG_* environment variables. Unset
// variables leave the field alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.EvalWorkers > 0 {
		c.EvalWorkers = flags.EvalWorkers
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}
	if c.BaseDir != "" {
		c.BlobDir = under(c.BaseDir, c.BlobDir, "blobs")
		c.MotionList = under(c.BaseDir, c.MotionList, "motions.xml")
		c.OutputDir = under(c.BaseDir, c.OutputDir, "previews")
	}

	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format != FormatTGA {
		c.Format = FormatWebP
	}
	if c.FrameStep <= 0 {
		c.FrameStep = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.EvalWorkers < 0 {
		c.EvalWorkers = 0
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	OutputDir   string
	Format      string
	Workers     int
	EvalWorkers int
}

// under resolves p against base, falling back to def when p is empty.
func under(base, p, def string) string {
	switch {
	case p == "":
		return filepath.Join(base, def)
	case filepath.IsAbs(p):
		return p
	}
	return filepath.Join(base, p)
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if hasBlobs(base) {
				return base
			}
		}
	}

	cwd, _ := os.Getwd()
	if hasBlobs(cwd) {
		return cwd
	}
	if parent := filepath.Dir(cwd); hasBlobs(parent) {
		return parent
	}
	return ""
}

func hasBlobs(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "blobs"))
	return err == nil
}
