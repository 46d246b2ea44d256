// Package mesher triangulates a depth grid into a regular triangle mesh,
// two triangles per grid cell, optionally leaving holes where depth is
// missing.
package mesher

import (
	"fmt"

	"github.com/chazu/depthmesh/pkg/grid"
	"github.com/chazu/depthmesh/pkg/mesh"
)

// Mode selects which cell triangles are emitted.
type Mode int

const (
	Dense            Mode = iota // both triangles of every cell
	ValidityFiltered             // only triangles whose three corners are valid
)

func (m Mode) String() string {
	switch m {
	case Dense:
		return "dense"
	case ValidityFiltered:
		return "filtered"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "dense" or "filtered" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "dense":
		return Dense, nil
	case "filtered", "validity-filtered":
		return ValidityFiltered, nil
	}
	return 0, fmt.Errorf("mesher: unknown mode %q, expected dense or filtered", s)
}

// Transform maps a grid sample to a vertex position.
type Transform func(x, y int, depth float32) mesh.Vertex

// PassThrough places each sample at (x, y, depth).
func PassThrough(x, y int, depth float32) mesh.Vertex {
	return mesh.Vertex{float32(x), float32(y), depth}
}

// Options configures a triangulation.
// With Workers > 1, Transform and the grid's Depth are called from several
// goroutines at once.
type Options struct {
	Mode      Mode
	Transform Transform // nil means PassThrough
	Workers   int       // rows sampled concurrently; <= 1 is sequential
}

// InvalidGridError reports a grid too small to hold a single cell.
type InvalidGridError struct {
	Width, Height int
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("mesher: invalid grid %dx%d: width and height must be at least 2", e.Width, e.Height)
}

// SampleAccessError reports a depth source failure for an in-range sample.
type SampleAccessError struct {
	X, Y int
	Err  error
}

func (e *SampleAccessError) Error() string {
	return fmt.Sprintf("mesher: sampling (%d, %d): %v", e.X, e.Y, e.Err)
}

func (e *SampleAccessError) Unwrap() error {
	return e.Err
}

// Triangulate converts g into a flat mesh of exactly Width*Height vertices.
func Triangulate(g grid.Grid, opts Options) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	indices, err := Build(g, opts, m)
	if err != nil {
		return nil, err
	}
	m.Indices = indices
	return m, nil
}

// Build emits one vertex per grid sample into sink, at index y*Width+x, and
// returns the triangle index list. Sink contents are unspecified on error.
func Build(g grid.Grid, opts Options, sink mesh.VertexSink) ([]uint32, error) {
	if g == nil {
		return nil, &InvalidGridError{}
	}
	w, h := g.Width(), g.Height()
	if w < 2 || h < 2 {
		return nil, &InvalidGridError{Width: w, Height: h}
	}

	valid, err := sample(g, opts, sink)
	if err != nil {
		return nil, err
	}
	return Indices(w, h, opts.Mode, valid), nil
}

// Indices generates the triangle list for a w×h grid. valid is the per-vertex
// validity mask and is only consulted in ValidityFiltered mode.
func Indices(w, h int, mode Mode, valid []bool) []uint32 {
	if w < 2 || h < 2 {
		return nil
	}
	capacity := (w - 1) * (h - 1) * 6
	if mode == ValidityFiltered {
		capacity = 0
	}
	indices := make([]uint32, 0, capacity)

	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			topLeft := uint32(y*w + x)
			topRight := topLeft + 1
			bottomLeft := uint32((y+1)*w + x)
			bottomRight := bottomLeft + 1

			if mode == Dense {
				indices = append(indices,
					topLeft, bottomLeft, topRight,
					topRight, bottomLeft, bottomRight)
				continue
			}
			if valid[topLeft] && valid[bottomLeft] && valid[topRight] {
				indices = append(indices, topLeft, bottomLeft, topRight)
			}
			if valid[topRight] && valid[bottomLeft] && valid[bottomRight] {
				indices = append(indices, topRight, bottomLeft, bottomRight)
			}
		}
	}
	return indices
}
