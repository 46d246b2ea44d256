// Package mesh defines the indexed triangle mesh produced from depth grids
// and the vertex sinks the mesher writes into.
package mesh

// Vertex is a single position (x, y, z).
type Vertex [3]float32

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex when present, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`          // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals,omitempty"` // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`           // [i0,i1,i2, ...] triangles
	Name     string    `json:"name,omitempty"`    // source the mesh was built from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the i-th vertex.
func (m *Mesh) Vertex(i int) Vertex {
	return Vertex{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// Triangle returns the indices of the i-th triangle.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[i*3], m.Indices[i*3+1], m.Indices[i*3+2]}
}
