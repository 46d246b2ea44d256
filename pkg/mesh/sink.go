package mesh

// VertexSink receives vertices addressed by their flat grid index.
// Allocate is called once with the final vertex count before any SetVertex.
// SetVertex may be called concurrently for distinct indices.
type VertexSink interface {
	Allocate(n int)
	SetVertex(i int, v Vertex)
}

// Compile-time interface checks.
var _ VertexSink = (*Mesh)(nil)
var _ VertexSink = (*Points)(nil)

// Allocate replaces the vertex buffer with room for n vertices.
func (m *Mesh) Allocate(n int) {
	m.Vertices = make([]float32, n*3)
}

// SetVertex stores v at vertex slot i.
func (m *Mesh) SetVertex(i int, v Vertex) {
	copy(m.Vertices[i*3:i*3+3], v[:])
}

// Points is a structured vertex sequence, one element per vertex.
type Points []Vertex

func (p *Points) Allocate(n int) {
	*p = make(Points, n)
}

func (p *Points) SetVertex(i int, v Vertex) {
	(*p)[i] = v
}

// Flatten returns the points as a flat [x0,y0,z0, x1,...] buffer.
func (p Points) Flatten() []float32 {
	out := make([]float32, 0, len(p)*3)
	for _, v := range p {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}
