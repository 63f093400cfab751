package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rig-runtime/internal/expr"
	"rig-runtime/internal/fcurve"
	"rig-runtime/internal/skeleton"
)

func main() {
	outDir := flag.String("out", ".", "Output directory for blobs")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rigpack [-out dir] rig.json...")
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		written, err := pack(path, *outDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		for _, w := range written {
			fmt.Printf("  %s\n", w)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// pack compiles one source file and returns the blob paths it wrote.
func pack(path, outDir string) ([]string, error) {
	src, err := loadSource(path)
	if err != nil {
		return nil, err
	}
	name := src.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	write := func(file string, data []byte) error {
		out := filepath.Join(outDir, file)
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		written = append(written, out)
		return nil
	}

	sd, err := src.skeletonDesc()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := skeleton.Build(sd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := write(name+".skel", data); err != nil {
		return written, err
	}

	for _, m := range src.Motions {
		if m.Name == "" {
			return written, fmt.Errorf("%s: motion without a name", path)
		}
		cd, err := src.clipDesc(m)
		if err != nil {
			return written, fmt.Errorf("%s: %w", path, err)
		}
		data, err := fcurve.Build(cd)
		if err != nil {
			return written, fmt.Errorf("%s: motion %s: %w", path, m.Name, err)
		}
		if err := write(m.Name+".motn", data); err != nil {
			return written, err
		}
	}

	if len(src.Expressions) > 0 {
		entries, err := src.exprEntries()
		if err != nil {
			return written, fmt.Errorf("%s: %w", path, err)
		}
		data, err := expr.Build(entries, src.ShiftJIS)
		if err != nil {
			return written, fmt.Errorf("%s: %w", path, err)
		}
		if err := write(name+".expr", data); err != nil {
			return written, err
		}
	}
	return written, nil
}
