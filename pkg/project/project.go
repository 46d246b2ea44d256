// Package project provides vertex transforms that place depth samples in
// space: scaled pass-through, pinhole camera back-projection, the OpenGL
// axis flip and arbitrary affine matrices.
package project

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/depthmesh/pkg/mesh"
	"github.com/chazu/depthmesh/pkg/mesher"
)

// DefaultGLDepthScale is the depth scale GLFlip applies when given 0.
const DefaultGLDepthScale = 0.1

// Scaled places each sample at (x, y, depth*scale).
func Scaled(scale float32) mesher.Transform {
	return func(x, y int, depth float32) mesh.Vertex {
		return mesh.Vertex{float32(x), float32(y), depth * scale}
	}
}

// GLFlip maps image coordinates into an OpenGL right-handed frame:
// (x, -y, -depth*scale). A scale of 0 uses DefaultGLDepthScale.
func GLFlip(scale float32) mesher.Transform {
	if scale == 0 {
		scale = DefaultGLDepthScale
	}
	return func(x, y int, depth float32) mesh.Vertex {
		return mesh.Vertex{float32(x), -float32(y), -depth * scale}
	}
}

// Intrinsics are pinhole camera parameters in pixels.
type Intrinsics struct {
	Fx, Fy float32 // focal lengths
	Cx, Cy float32 // principal point
}

// DefaultIntrinsics returns intrinsics for a w×h image with the principal
// point at the centre and focal lengths of half the image size.
func DefaultIntrinsics(w, h int) Intrinsics {
	return Intrinsics{
		Fx: float32(w) / 2,
		Fy: float32(h) / 2,
		Cx: float32(w) / 2,
		Cy: float32(h) / 2,
	}
}

// Pinhole back-projects each sample through the camera so that depth is
// distance along the optical axis. The camera looks down -Z.
func Pinhole(in Intrinsics) mesher.Transform {
	return func(x, y int, depth float32) mesh.Vertex {
		return mesh.Vertex{
			(float32(x) - in.Cx) * depth / in.Fx,
			(float32(y) - in.Cy) * depth / in.Fy,
			-depth,
		}
	}
}

// Affine applies m to the output of inner, treating vertices as points.
// A nil inner means mesher.PassThrough.
func Affine(m mgl32.Mat4, inner mesher.Transform) mesher.Transform {
	if inner == nil {
		inner = mesher.PassThrough
	}
	return func(x, y int, depth float32) mesh.Vertex {
		v := inner(x, y, depth)
		p := m.Mul4x1(mgl32.Vec3(v).Vec4(1))
		return mesh.Vertex{p[0], p[1], p[2]}
	}
}

// Placement is a scale, then rotation, then translation applied to vertices.
// Rotation is in degrees about X, then Y, then Z.
type Placement struct {
	Translate [3]float32
	Rotate    [3]float32
	Scale     [3]float32 // zero components are treated as 1
}

// IsIdentity reports whether p leaves vertices where they are.
func (p Placement) IsIdentity() bool {
	for i := 0; i < 3; i++ {
		if p.Translate[i] != 0 || p.Rotate[i] != 0 {
			return false
		}
		if p.Scale[i] != 0 && p.Scale[i] != 1 {
			return false
		}
	}
	return true
}

// Matrix returns the combined homogeneous transform.
func (p Placement) Matrix() mgl32.Mat4 {
	s := p.Scale
	for i := range s {
		if s[i] == 0 {
			s[i] = 1
		}
	}
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(p.Rotate[2])).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(p.Rotate[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(p.Rotate[0])))
	return mgl32.Translate3D(p.Translate[0], p.Translate[1], p.Translate[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Apply wraps inner with p, or returns inner unchanged for the identity.
func (p Placement) Apply(inner mesher.Transform) mesher.Transform {
	if p.IsIdentity() {
		return inner
	}
	return Affine(p.Matrix(), inner)
}
