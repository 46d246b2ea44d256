package mesh

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// vec returns vertex i as an sdfx vector.
func (m *Mesh) vec(i uint32) v3.Vec {
	j := int(i) * 3
	return v3.Vec{
		X: float64(m.Vertices[j]),
		Y: float64(m.Vertices[j+1]),
		Z: float64(m.Vertices[j+2]),
	}
}

// FaceNormal returns the unit normal of triangle i following its winding.
// Zero-area triangles yield the zero vector.
func (m *Mesh) FaceNormal(i int) v3.Vec {
	t := m.Triangle(i)
	a, b, c := m.vec(t[0]), m.vec(t[1]), m.vec(t[2])
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Length(); l > 0 && !math.IsNaN(l) {
		return n.DivScalar(l)
	}
	return v3.Vec{}
}

// ComputeNormals fills Normals with area-weighted per-vertex normals.
// Vertices not referenced by any triangle, or only by zero-area ones,
// get a zero normal.
func (m *Mesh) ComputeNormals() {
	acc := make([]v3.Vec, m.VertexCount())
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		a, b, c := m.vec(t[0]), m.vec(t[1]), m.vec(t[2])
		// The unnormalized cross product weights by twice the triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			continue
		}
		for _, idx := range t {
			acc[idx] = acc[idx].Add(n)
		}
	}

	m.Normals = make([]float32, len(m.Vertices))
	for i, n := range acc {
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		}
		m.Normals[i*3] = float32(n.X)
		m.Normals[i*3+1] = float32(n.Y)
		m.Normals[i*3+2] = float32(n.Z)
	}
}

// Bounds returns the axis-aligned bounding box of all finite vertices.
// ok is false when the mesh has no finite vertex.
func (m *Mesh) Bounds() (box sdf.Box3, ok bool) {
	for i := 0; i < m.VertexCount(); i++ {
		v := m.vec(uint32(i))
		if !finite(v) {
			continue
		}
		if !ok {
			box = sdf.Box3{Min: v, Max: v}
			ok = true
			continue
		}
		box.Min = box.Min.Min(v)
		box.Max = box.Max.Max(v)
	}
	return box, ok
}

func finite(v v3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
