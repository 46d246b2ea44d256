package tessellate

import (
	"fmt"

	"github.com/chazu/depthmesh/pkg/mesh"
	"github.com/chazu/depthmesh/pkg/mesher"
	"github.com/chazu/depthmesh/pkg/project"
	"github.com/chazu/depthmesh/pkg/weld"
)

// Projection selects how grid samples are placed in space before any
// Placement is applied.
type Projection int

const (
	Flat    Projection = iota // (x, y, depth*DepthScale)
	GL                        // (x, -y, -depth*DepthScale), DepthScale 0 means 0.1
	Pinhole                   // camera back-projection through Intrinsics
)

func (p Projection) String() string {
	switch p {
	case Flat:
		return "flat"
	case GL:
		return "gl"
	case Pinhole:
		return "pinhole"
	default:
		return fmt.Sprintf("Projection(%d)", int(p))
	}
}

// Config drives a grid-to-mesh run.
type Config struct {
	Mode      mesher.Mode
	Workers   int
	Weld      bool
	Precision int
	Compact   bool // drop vertices left unreferenced by welding
	Normals   bool
	Name      string

	Projection Projection
	DepthScale float32             // 0 means the projection's default
	Intrinsics *project.Intrinsics // zero fields take project.DefaultIntrinsics
	Placement  project.Placement   // applied after projection

	// Transform, when set, replaces Projection and Placement entirely.
	Transform mesher.Transform
}

// DefaultConfig returns dense triangulation welded at the default precision.
func DefaultConfig() Config {
	return Config{
		Mode:      mesher.Dense,
		Weld:      true,
		Precision: weld.DefaultPrecision,
	}
}

// transform resolves the vertex transform for a w×h grid.
func (c Config) transform(w, h int) mesher.Transform {
	if c.Transform != nil {
		return c.Transform
	}

	var base mesher.Transform
	switch c.Projection {
	case GL:
		base = project.GLFlip(c.DepthScale)
	case Pinhole:
		base = project.Pinhole(c.intrinsics(w, h))
		if c.DepthScale != 0 && c.DepthScale != 1 {
			base = scaleDepth(base, c.DepthScale)
		}
	default:
		if c.DepthScale == 0 || c.DepthScale == 1 {
			base = mesher.PassThrough
		} else {
			base = project.Scaled(c.DepthScale)
		}
	}
	return c.Placement.Apply(base)
}

func (c Config) intrinsics(w, h int) project.Intrinsics {
	in := project.DefaultIntrinsics(w, h)
	if c.Intrinsics == nil {
		return in
	}
	if c.Intrinsics.Fx != 0 {
		in.Fx = c.Intrinsics.Fx
	}
	if c.Intrinsics.Fy != 0 {
		in.Fy = c.Intrinsics.Fy
	}
	if c.Intrinsics.Cx != 0 {
		in.Cx = c.Intrinsics.Cx
	}
	if c.Intrinsics.Cy != 0 {
		in.Cy = c.Intrinsics.Cy
	}
	return in
}

func scaleDepth(inner mesher.Transform, s float32) mesher.Transform {
	return func(x, y int, depth float32) mesh.Vertex {
		return inner(x, y, depth*s)
	}
}
