// Package weld merges vertices that share a quantized position, remaps the
// index buffer onto the merged vertices and drops triangles that collapse
// in the process.
package weld

import (
	"fmt"
	"math"

	"github.com/chazu/depthmesh/pkg/mesh"
)

// DefaultPrecision is the number of fractional decimal digits kept when
// comparing vertex positions.
const DefaultPrecision = 6

// MaxPrecision bounds the precision so that scaled coordinates of ordinary
// magnitude stay well inside int64.
const MaxPrecision = 9

// nanKey is the key component used for NaN coordinates, so that all NaN
// components compare equal.
const nanKey = math.MinInt64

// Key is a vertex position quantized to a fixed decimal precision.
type Key [3]int64

// KeyOf quantizes v by scaling each coordinate by 10^precision and rounding
// to the nearest integer.
func KeyOf(v mesh.Vertex, precision int) Key {
	scale := math.Pow10(precision)
	var k Key
	for i, c := range v {
		k[i] = quantize(float64(c), scale)
	}
	return k
}

func quantize(c, scale float64) int64 {
	if math.IsNaN(c) {
		return nanKey
	}
	q := math.Round(c * scale)
	switch {
	case q >= math.MaxInt64:
		return math.MaxInt64
	case q <= math.MinInt64+1:
		return math.MinInt64 + 1
	}
	return int64(q)
}

// EmptyMeshError reports that there were no triangles to weld. Callers may
// treat it as producing an empty mesh.
type EmptyMeshError struct{}

func (e *EmptyMeshError) Error() string {
	return "weld: index array is empty, nothing to weld"
}

// IndexRangeError reports an index that does not address a vertex.
type IndexRangeError struct {
	Position    int    // position in the index array
	Index       uint32 // offending value
	VertexCount int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("weld: index %d at position %d out of range for %d vertices",
		e.Index, e.Position, e.VertexCount)
}

// Weld deduplicates vertices by quantized position. Vertices are numbered in
// the order they are first referenced while scanning indices; vertices no
// triangle references are dropped. Each welded vertex keeps the original
// coordinates of its first occurrence. Triangles whose three indices are not
// pairwise distinct after remapping are discarded.
func Weld(vertices []float32, indices []uint32, precision int) (*mesh.Mesh, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, fmt.Errorf("weld: precision %d outside [0, %d]", precision, MaxPrecision)
	}
	if len(vertices)%3 != 0 {
		return nil, fmt.Errorf("weld: vertex buffer length %d is not a multiple of 3", len(vertices))
	}
	if len(indices) == 0 {
		return nil, &EmptyMeshError{}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("weld: index buffer length %d is not a multiple of 3", len(indices))
	}

	vertexCount := len(vertices) / 3
	scale := math.Pow10(precision)

	lookup := make(map[Key]uint32)
	unique := make([]float32, 0, min(len(vertices), len(indices)*3))
	remapped := make([]uint32, len(indices))

	for pos, idx := range indices {
		if int(idx) >= vertexCount {
			return nil, &IndexRangeError{Position: pos, Index: idx, VertexCount: vertexCount}
		}
		x, y, z := vertices[idx*3], vertices[idx*3+1], vertices[idx*3+2]
		key := Key{
			quantize(float64(x), scale),
			quantize(float64(y), scale),
			quantize(float64(z), scale),
		}

		mapped, ok := lookup[key]
		if !ok {
			mapped = uint32(len(unique) / 3)
			lookup[key] = mapped
			unique = append(unique, x, y, z)
		}
		remapped[pos] = mapped
	}

	out := remapped[:0]
	for i := 0; i < len(remapped); i += 3 {
		a, b, c := remapped[i], remapped[i+1], remapped[i+2]
		if a != b && b != c && c != a {
			out = append(out, a, b, c)
		}
	}

	return &mesh.Mesh{Vertices: unique, Indices: out}, nil
}

// WeldMesh welds m's vertices and indices, carrying over its name. Normals
// are not carried since welding changes which vertices exist.
func WeldMesh(m *mesh.Mesh, precision int) (*mesh.Mesh, error) {
	w, err := Weld(m.Vertices, m.Indices, precision)
	if err != nil {
		return nil, err
	}
	w.Name = m.Name
	return w, nil
}
