package grid

import "fmt"

// Compile-time interface checks.
var _ Grid = (*Slice)(nil)
var _ Grid = Func{}

// Slice is an in-memory grid stored row-major: sample (x, y) lives at
// Samples[y*W+x].
type Slice struct {
	W, H    int
	Samples []float32
}

// NewSlice wraps samples as a w×h grid. The slice is not copied.
func NewSlice(w, h int, samples []float32) (*Slice, error) {
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("grid: negative dimensions %dx%d", w, h)
	}
	if len(samples) != w*h {
		return nil, fmt.Errorf("grid: %d samples for a %dx%d grid, want %d", len(samples), w, h, w*h)
	}
	return &Slice{W: w, H: h, Samples: samples}, nil
}

// Filled returns a w×h grid with every sample set to v.
func Filled(w, h int, v float32) *Slice {
	s := make([]float32, w*h)
	for i := range s {
		s[i] = v
	}
	return &Slice{W: w, H: h, Samples: s}
}

func (s *Slice) Width() int  { return s.W }
func (s *Slice) Height() int { return s.H }

func (s *Slice) Depth(x, y int) (float32, error) {
	if err := checkRange(x, y, s.W, s.H); err != nil {
		return 0, err
	}
	return s.Samples[y*s.W+x], nil
}

// Set stores v at (x, y). It panics outside the grid.
func (s *Slice) Set(x, y int, v float32) {
	if err := checkRange(x, y, s.W, s.H); err != nil {
		panic(err)
	}
	s.Samples[y*s.W+x] = v
}

// Func adapts a sampling function to the Grid interface.
type Func struct {
	W, H   int
	Sample func(x, y int) (float32, error)
}

func (f Func) Width() int  { return f.W }
func (f Func) Height() int { return f.H }

func (f Func) Depth(x, y int) (float32, error) {
	if err := checkRange(x, y, f.W, f.H); err != nil {
		return 0, err
	}
	return f.Sample(x, y)
}
