// Package export writes meshes to STL and Wavefront OBJ files.
//
// Neither format has a notion of a missing sample, so triangles with a
// non-finite corner are left out.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/depthmesh/pkg/mesh"
)

// ErrUnknownFormat is returned by File for unrecognised extensions.
var ErrUnknownFormat = errors.New("export: unknown file format")

// Format is an output file format.
type Format string

const (
	FormatSTL Format = "stl"
	FormatOBJ Format = "obj"
)

// FormatFor picks a format from the file extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL, nil
	case ".obj":
		return FormatOBJ, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// File writes m to path in format f. An empty f is inferred from the
// extension.
func File(path string, f Format, m *mesh.Mesh) error {
	if f == "" {
		var err error
		if f, err = FormatFor(path); err != nil {
			return err
		}
	}
	switch f {
	case FormatSTL:
		return STL(path, m)
	case FormatOBJ:
		fh, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := OBJ(fh, m); err != nil {
			fh.Close()
			return err
		}
		return fh.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// triangleFinite reports whether all three corners of triangle i are finite.
func triangleFinite(m *mesh.Mesh, i int) bool {
	for _, idx := range m.Triangle(i) {
		for _, c := range m.Vertex(int(idx)) {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				return false
			}
		}
	}
	return true
}

// Triangles converts m into sdfx triangles, skipping non-finite ones.
func Triangles(m *mesh.Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		if !triangleFinite(m, i) {
			continue
		}
		var t sdf.Triangle3
		for j, idx := range m.Triangle(i) {
			v := m.Vertex(int(idx))
			t[j] = v3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
		tris = append(tris, &t)
	}
	return tris
}

// STL writes m to path as a binary STL file.
func STL(path string, m *mesh.Mesh) error {
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("export: writing STL %s: %w", path, err)
	}
	return nil
}

// OBJ writes m as Wavefront OBJ. All vertices are written so that face
// indices match mesh indices; normals are written when present.
func OBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	hasNormals := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0

	fmt.Fprintf(bw, "# depthmesh: %d vertices, %d triangles\n", m.VertexCount(), m.TriangleCount())
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}

	writeVec := func(prefix string, v []float32) {
		bw.WriteString(prefix)
		for _, c := range v {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(float64(c), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	for i := 0; i < m.VertexCount(); i++ {
		writeVec("v", m.Vertices[i*3:i*3+3])
	}
	if hasNormals {
		for i := 0; i < m.VertexCount(); i++ {
			writeVec("vn", m.Normals[i*3:i*3+3])
		}
	}

	for i := 0; i < m.TriangleCount(); i++ {
		if !triangleFinite(m, i) {
			continue
		}
		t := m.Triangle(i)
		// OBJ indices are 1-based.
		a, b, c := t[0]+1, t[1]+1, t[2]+1
		if hasNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: writing OBJ: %w", err)
	}
	return nil
}
