package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rig-runtime/internal/batch"
	"rig-runtime/internal/blob"
	"rig-runtime/internal/config"
	"rig-runtime/internal/motionlist"
	"rig-runtime/internal/preview"
	"rig-runtime/internal/workpool"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Bake only the first N motions")
	character := flag.String("character", "", "Bake only motions of this character")
	index := flag.Int("index", -1, "Bake only the motion with this index (requires -character)")
	workers := flag.Int("workers", 0, "Number of bake goroutines (default: NumCPU)")
	evalWorkers := flag.Int("eval-workers", 0, "Curve sampling workers per rig (default: sequential)")
	baseDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: previews)")
	format := flag.String("format", "", "Image format: webp or tga (default: webp)")
	verbose := flag.Bool("v", false, "Log per-motion diagnostics to stderr")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{
		BaseDir:     *baseDir,
		OutputDir:   *outputDir,
		Format:      *format,
		Workers:     *workers,
		EvalWorkers: *evalWorkers,
	})
	if cfg.BaseDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find blob directory. Use -data flag or config.json.")
		os.Exit(1)
	}

	defs, err := motionlist.Parse(cfg.MotionList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading motion list: %v\n", err)
		os.Exit(1)
	}
	if *character != "" {
		var filtered []motionlist.MotionDef
		for _, d := range defs {
			if d.Character != *character {
				continue
			}
			if *index >= 0 && d.Index != *index {
				continue
			}
			filtered = append(filtered, d)
		}
		defs = filtered
	}
	if *testN > 0 && *testN < len(defs) {
		defs = defs[:*testN]
	}
	if len(defs) == 0 {
		fmt.Println("No motions to bake.")
		os.Exit(0)
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "posebake: ", log.LstdFlags)
	}
	cache := blob.NewCache(blob.FileLoader{Root: cfg.BlobDir})
	cache.SetLogger(logger)

	var evalPool *workpool.Pool
	if cfg.EvalWorkers > 0 {
		evalPool = workpool.New(cfg.EvalWorkers)
		defer evalPool.Close()
	}

	opts := preview.DefaultOptions()
	opts.Size = cfg.RenderSize
	opts.Supersample = cfg.Supersample

	mode := ""
	if *character != "" {
		mode = fmt.Sprintf(" (%s)", *character)
	} else if *testN > 0 {
		mode = fmt.Sprintf(" (TEST: first %d)", *testN)
	}
	fmt.Printf("Pose preview bake → %s%s\n", cfg.Format, mode)
	fmt.Printf("Motions: %d, Workers: %d, Eval workers: %d\n", len(defs), cfg.Workers, cfg.EvalWorkers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		Blobs:     cache,
		OutputDir: cfg.OutputDir,
		Preview:   opts,
		Format:    preview.Format(cfg.Format),
		Workers:   cfg.Workers,
		EvalPool:  evalPool,
		Progress:  os.Stdout,
		Logger:    logger,
	}, defs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	frames := 0
	for _, r := range results {
		if r.Success {
			frames += len(r.Images)
		} else {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Baked: %d/%d motions, %d frames\n", len(results)-len(failed), len(results), frames)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(len(failed), 20)] {
			fmt.Printf("  %s/%s: %s\n", r.Character, r.Name, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
