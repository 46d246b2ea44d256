package weld

import "github.com/chazu/depthmesh/pkg/mesh"

// Compact returns a copy of m without vertices that no triangle references,
// renumbering the rest in order of first use. Normals, when present, follow
// their vertices.
//
// Weld keeps a vertex whose only triangles collapsed; compacting afterwards
// gives a mesh that a further Weld at the same precision returns unchanged.
func Compact(m *mesh.Mesh) *mesh.Mesh {
	n := m.VertexCount()
	hasNormals := len(m.Normals) == len(m.Vertices)

	remap := make([]int64, n)
	for i := range remap {
		remap[i] = -1
	}

	out := &mesh.Mesh{
		Vertices: make([]float32, 0, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
		Name:     m.Name,
	}
	if hasNormals {
		out.Normals = make([]float32, 0, len(m.Normals))
	}

	for pos, idx := range m.Indices {
		if remap[idx] < 0 {
			remap[idx] = int64(out.VertexCount())
			j := int(idx) * 3
			out.Vertices = append(out.Vertices, m.Vertices[j:j+3]...)
			if hasNormals {
				out.Normals = append(out.Normals, m.Normals[j:j+3]...)
			}
		}
		out.Indices[pos] = uint32(remap[idx])
	}
	return out
}
