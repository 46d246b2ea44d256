package project

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/depthmesh/pkg/mesh"
)

const eps = 1e-5

func near(a, b mesh.Vertex) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestScaled(t *testing.T) {
	if got, want := Scaled(0.5)(3, 4, 10), (mesh.Vertex{3, 4, 5}); got != want {
		t.Errorf("Scaled(0.5)(3, 4, 10) = %v, want %v", got, want)
	}
}

func TestGLFlip(t *testing.T) {
	tests := []struct {
		name  string
		scale float32
		want  mesh.Vertex
	}{
		{"default scale", 0, mesh.Vertex{2, -5, -1}},
		{"unit scale", 1, mesh.Vertex{2, -5, -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GLFlip(tt.scale)(2, 5, 10); !near(got, tt.want) {
				t.Errorf("GLFlip(%v)(2, 5, 10) = %v, want %v", tt.scale, got, tt.want)
			}
		})
	}
}

func TestPinhole(t *testing.T) {
	in := DefaultIntrinsics(640, 480)
	if in.Fx != 320 || in.Fy != 240 || in.Cx != 320 || in.Cy != 240 {
		t.Fatalf("DefaultIntrinsics(640, 480) = %+v", in)
	}
	p := Pinhole(in)

	if got, want := p(320, 240, 2), (mesh.Vertex{0, 0, -2}); !near(got, want) {
		t.Errorf("principal point = %v, want %v", got, want)
	}
	// One focal length right of centre at depth z lands at x = z.
	if got, want := p(640, 0, 3), (mesh.Vertex{3, -3, -3}); !near(got, want) {
		t.Errorf("corner = %v, want %v", got, want)
	}
}

func TestAffine(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	if got, want := Affine(m, nil)(1, 1, 1), (mesh.Vertex{2, 3, 4}); !near(got, want) {
		t.Errorf("Affine translate = %v, want %v", got, want)
	}

	chained := Affine(mgl32.Scale3D(2, 2, 2), Scaled(0.5))
	if got, want := chained(1, 2, 4), (mesh.Vertex{2, 4, 4}); !near(got, want) {
		t.Errorf("Affine over Scaled = %v, want %v", got, want)
	}
}

func TestPlacement(t *testing.T) {
	var zero Placement
	if !zero.IsIdentity() {
		t.Error("zero Placement should be identity")
	}
	if zero.Apply(nil) != nil {
		t.Error("identity Apply should return inner unchanged")
	}

	p := Placement{
		Translate: [3]float32{10, 0, 0},
		Rotate:    [3]float32{0, 0, 90},
		Scale:     [3]float32{2, 0, 0},
	}
	if p.IsIdentity() {
		t.Fatal("non-trivial Placement reported identity")
	}
	// Scale (1,0,0) to (2,0,0), rotate 90° about Z to (0,2,0), then translate.
	if got, want := p.Apply(nil)(1, 0, 0), (mesh.Vertex{10, 2, 0}); !near(got, want) {
		t.Errorf("Placement = %v, want %v", got, want)
	}
}
