package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/tiff"

	"github.com/chazu/depthmesh/pkg/engine"
	"github.com/chazu/depthmesh/pkg/export"
	"github.com/chazu/depthmesh/pkg/grid"
	"github.com/chazu/depthmesh/pkg/mesh"
	"github.com/chazu/depthmesh/pkg/mesher"
	"github.com/chazu/depthmesh/pkg/tessellate"
)

// imageExtensions lists the depth image formats the decoder understands.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"}

// job is one input image and the mesh file it produces.
type job struct {
	in, out string
}

// buildConfig layers flags over an optional script over the defaults.
// Only flags given explicitly override script settings.
func buildConfig(o *options) (tessellate.Config, error) {
	cfg := tessellate.DefaultConfig()
	mode, err := mesher.ParseMode(o.mode)
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode
	cfg.Precision = o.precision

	if o.script != "" {
		src, err := os.ReadFile(o.script)
		if err != nil {
			return cfg, fmt.Errorf("reading script: %w", err)
		}
		scripted, evalErrs, err := engine.NewEngineWith(cfg).Evaluate(string(src))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", o.script, err)
		}
		if len(evalErrs) > 0 {
			for _, e := range evalErrs {
				log.Printf("%s: %v", o.script, e)
			}
			return cfg, fmt.Errorf("%s: %d script error(s)", o.script, len(evalErrs))
		}
		cfg = *scripted
	}

	if o.set["mode"] {
		cfg.Mode = mode
	}
	if o.set["precision"] {
		cfg.Precision = o.precision
	}
	if o.set["workers"] {
		cfg.Workers = o.workers
	}
	if o.set["no-weld"] {
		cfg.Weld = !o.noWeld
	}
	if o.set["compact"] {
		cfg.Compact = o.compact
	}
	if o.set["normals"] {
		cfg.Normals = o.normals
	}
	if o.set["gl"] && o.gl {
		cfg.Projection = tessellate.GL
		cfg.Intrinsics = nil
	}
	if o.set["pinhole"] && o.pinhole {
		cfg.Projection = tessellate.Pinhole
		cfg.Intrinsics = nil
	}
	return cfg, nil
}

// planJobs maps the input file or directory to output paths.
func planJobs(o *options) ([]job, error) {
	fi, err := os.Stat(o.in)
	if err != nil {
		return nil, fmt.Errorf("unable to open source: %w", err)
	}
	if !fi.IsDir() {
		return []job{{in: o.in, out: o.out}}, nil
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}
	format := o.format
	if format == "" {
		format = string(export.FormatSTL)
	}

	entries, err := os.ReadDir(o.in)
	if err != nil {
		return nil, fmt.Errorf("unable to read dir: %w", err)
	}
	var jobs []job
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		jobs = append(jobs, job{
			in:  filepath.Join(o.in, e.Name()),
			out: filepath.Join(o.out, base+"."+format),
		})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no depth images in %s", o.in)
	}
	return jobs, nil
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// loadGrid decodes a depth image into a grid.
func loadGrid(path string, o *options) (grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	log.Printf("%s: %s %dx%d", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return grid.FromImage(img, grid.ImageOptions{
		ZeroIsMissing: o.zeroMissing,
		Scale:         float32(o.scale),
	}), nil
}

// process loads every job's image, tessellates them together and writes
// the results.
func process(jobs []job, o *options, cfg tessellate.Config) error {
	start := time.Now()
	parts := make([]tessellate.Part, len(jobs))
	for i, j := range jobs {
		g, err := loadGrid(j.in, o)
		if err != nil {
			return err
		}
		name := cfg.Name
		if name == "" || len(jobs) > 1 {
			name = strings.TrimSuffix(filepath.Base(j.in), filepath.Ext(j.in))
		}
		parts[i] = tessellate.Part{Name: name, Grid: g}
	}
	log.Printf("loaded %d image(s) in %s", len(jobs), time.Since(start))

	start = time.Now()
	var meshes []*mesh.Mesh
	var err error
	if len(parts) == 1 {
		// A single image gets the workers for its rows instead.
		partCfg := cfg
		partCfg.Name = parts[0].Name
		var m *mesh.Mesh
		m, err = tessellate.Tessellate(parts[0].Grid, partCfg)
		meshes = []*mesh.Mesh{m}
	} else {
		meshes, err = tessellate.TessellateParts(parts, cfg)
	}
	if err != nil {
		return err
	}
	log.Printf("tessellated in %s (mode %s, weld %v, precision %d)", time.Since(start), cfg.Mode, cfg.Weld, cfg.Precision)

	start = time.Now()
	for i, m := range meshes {
		if err := export.File(jobs[i].out, export.Format(o.format), m); err != nil {
			return err
		}
		log.Printf("%s: %d vertices, %d triangles -> %s", m.Name, m.VertexCount(), m.TriangleCount(), jobs[i].out)
		if b, ok := m.Bounds(); ok {
			log.Printf("%s: bounds %v to %v", m.Name, b.Min, b.Max)
		}
	}
	log.Printf("wrote %d mesh(es) in %s", len(meshes), time.Since(start))
	return nil
}
