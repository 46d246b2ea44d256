package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/depthmesh/pkg/engine"
	"github.com/chazu/depthmesh/pkg/grid"
	"github.com/chazu/depthmesh/pkg/mesher"
	"github.com/chazu/depthmesh/pkg/tessellate"
)

// writeDepthPNG writes a w×h 16-bit ramp with a zero pixel at (0, 0).
func writeDepthPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(1000 * (x + y + 1))})
		}
	}
	img.SetGray16(0, 0, color.Gray16{})

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "depth.png")
	out := filepath.Join(dir, "depth.obj")
	writeDepthPNG(t, in, 4, 3)

	if err := run([]string{"-in", in, "-out", out}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	obj := string(data)
	if !strings.Contains(obj, "o depth\n") {
		t.Errorf("mesh should be named after the input:\n%s", obj)
	}
	if n := strings.Count(obj, "\nv "); n != 12 {
		t.Errorf("got %d vertices, want 12", n)
	}
	if n := strings.Count(obj, "\nf "); n != 12 {
		t.Errorf("got %d faces, want 12", n)
	}
}

func TestRunZeroMissingFiltered(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "depth.png")
	out := filepath.Join(dir, "depth.obj")
	writeDepthPNG(t, in, 4, 3)

	args := []string{"-in", in, "-out", out, "-mode", "filtered", "-zero-missing", "-compact"}
	if err := run(args); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	// The missing top-left corner removes one triangle and its vertex.
	obj := string(data)
	if n := strings.Count(obj, "\nf "); n != 11 {
		t.Errorf("got %d faces, want 11", n)
	}
	if n := strings.Count(obj, "\nv "); n != 11 {
		t.Errorf("got %d vertices, want 11", n)
	}
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(in, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDepthPNG(t, filepath.Join(in, "a.png"), 3, 3)
	writeDepthPNG(t, filepath.Join(in, "b.png"), 5, 2)
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"-in", in, "-out", out, "-workers", "2"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, name := range []string{"a.stl", "b.stl"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "notes.stl")); err == nil {
		t.Error("non-image input should be skipped")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "depth.png")
	writeDepthPNG(t, in, 3, 3)
	thin := filepath.Join(dir, "thin.png")
	writeDepthPNG(t, thin, 1, 4)

	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", []string{}},
		{"bad mode", []string{"-in", in, "-out", filepath.Join(dir, "o.stl"), "-mode", "sparse"}},
		{"unknown format", []string{"-in", in, "-out", filepath.Join(dir, "o.ply")}},
		{"missing input", []string{"-in", filepath.Join(dir, "nope.png"), "-out", filepath.Join(dir, "o.stl")}},
		{"too thin", []string{"-in", thin, "-out", filepath.Join(dir, "o.stl")}},
		{"gl and pinhole", []string{"-in", in, "-out", filepath.Join(dir, "o.stl"), "-gl", "-pinhole"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFlagsOverrideScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "p.dm")
	src := "(mode :filtered)\n(workers 3)\n(weld :precision 2)\n"
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := parseFlags([]string{"-in", "x", "-out", "y", "-script", script, "-mode", "dense", "-gl"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	cfg, err := buildConfig(o)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.Mode != mesher.Dense {
		t.Errorf("Mode = %s, want dense from flag", cfg.Mode)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from script", cfg.Workers)
	}
	if cfg.Precision != 2 {
		t.Errorf("Precision = %d, want 2 from script", cfg.Precision)
	}
	if cfg.Projection != tessellate.GL {
		t.Errorf("Projection = %s, want gl from flag", cfg.Projection)
	}
}

func TestScriptErrorsReported(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.dm")
	if err := os.WriteFile(script, []byte("(mode :sparse)"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err := parseFlags([]string{"-in", "x", "-out", "y", "-script", script})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if _, err := buildConfig(o); err == nil {
		t.Fatal("expected script error")
	}
}

func TestExampleScripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.dm"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no example scripts found")
	}
	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			src, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			cfg, evalErrs, err := engine.NewEngine().Evaluate(string(src))
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("eval errors: %v", evalErrs)
			}
			if cfg.Name == "" {
				t.Error("example scripts should name their mesh")
			}

			g := image.NewGray(image.Rect(0, 0, 6, 4))
			for i := range g.Pix {
				g.Pix[i] = uint8(10 + i)
			}
			if _, err := tessellate.Tessellate(grid.FromImage(g, grid.ImageOptions{}), *cfg); err != nil {
				t.Errorf("Tessellate: %v", err)
			}
		})
	}
}
