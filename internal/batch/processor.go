package batch

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"rig-runtime/internal/blob"
	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/motionlist"
	"rig-runtime/internal/preview"
	"rig-runtime/internal/rig"
	"rig-runtime/internal/riglink"
	"rig-runtime/internal/skeleton"
	"rig-runtime/internal/workpool"
)

// Config holds all shared resources for a bake run.
type Config struct {
	Blobs     *blob.Cache
	OutputDir string
	Preview   preview.Options
	Format    preview.Format
	Workers   int
	EvalPool  *workpool.Pool // optional per-rig curve fan-out
	Progress  io.Writer      // nil disables progress lines
	Logger    *log.Logger
}

// Result holds the outcome of baking one motion.
type Result struct {
	Character string
	Name      string
	Index     int
	Images    []Image
	Success   bool
	Error     string
}

// Image is one rendered frame, relative to the output directory.
type Image struct {
	Frame float32
	Path  string
}

// Run bakes all motions using a worker pool.
func Run(cfg Config, defs []motionlist.MotionDef) []Result {
	total := len(defs)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(cfg.Workers, 1)

	start := time.Now()
	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f motions/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = bakeMotion(cfg, defs[idx])
				processed.Add(1)
			}
		}()
	}
	for i := range defs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	return results
}

func bakeMotion(cfg Config, def motionlist.MotionDef) Result {
	res := Result{Character: def.Character, Name: def.Name, Index: def.Index}
	fail := func(err error) Result {
		res.Error = err.Error()
		if cfg.Logger != nil {
			cfg.Logger.Printf("bake %s/%s: %v", def.Character, def.Name, err)
		}
		return res
	}

	skelBlob, err := cfg.Blobs.Load(def.Skeleton)
	if err != nil {
		return fail(err)
	}
	defer cfg.Blobs.Unload(def.Skeleton)
	skel, err := skeleton.Open(skelBlob)
	if err != nil {
		return fail(err)
	}

	motnBlob, err := cfg.Blobs.Load(def.MotionFile)
	if err != nil {
		return fail(err)
	}
	defer cfg.Blobs.Unload(def.MotionFile)
	clip, err := fcurve.Open(motnBlob)
	if err != nil {
		return fail(err)
	}

	opts := []rig.Option{rig.WithInPlaceMotion(def.InPlace), rig.WithPool(cfg.EvalPool)}
	if cfg.Logger != nil {
		opts = append(opts, rig.WithLogger(cfg.Logger))
	}
	r := rig.New(skel, opts...)
	if err := r.SetMotion(riglink.Build(clip, skel)); err != nil {
		return fail(err)
	}

	if def.Expressions != "" {
		exprBlob, err := cfg.Blobs.Load(def.Expressions)
		if err != nil {
			return fail(err)
		}
		defer cfg.Blobs.Unload(def.Expressions)
		set, err := expr.Open(exprBlob)
		if err != nil {
			return fail(err)
		}
		r.BindExprs(set)
	}

	format := cfg.Format
	if format == "" {
		format = preview.WebP
	}
	for _, f := range def.Frames {
		r.SetFrame(f)
		r.Evaluate(def.Step)
		img := preview.Render(skel, r.Worlds(), cfg.Preview)

		name := fmt.Sprintf("%d_%s.%s", def.Index, strconv.FormatFloat(float64(f), 'f', -1, 32), format.Ext())
		rel := filepath.Join(def.Character, name)
		if err := preview.WriteFile(filepath.Join(cfg.OutputDir, rel), img, format); err != nil {
			return fail(err)
		}
		res.Images = append(res.Images, Image{Frame: f, Path: filepath.ToSlash(rel)})
	}
	res.Success = true
	return res
}
