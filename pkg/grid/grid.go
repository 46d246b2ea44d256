// Package grid defines the depth sample grid consumed by the mesher and a
// few ready-made implementations: slice-backed, function-backed and
// image-backed grids.
package grid

import (
	"fmt"
	"math"
)

// Grid is a rectangular array of depth samples. Depth may return Missing
// for a pixel without a valid measurement. Implementations must keep their
// dimensions fixed for the duration of one conversion.
type Grid interface {
	Width() int
	Height() int
	Depth(x, y int) (float32, error)
}

// Missing is the sentinel sample marking "no depth" at a pixel.
var Missing = float32(math.NaN())

// IsMissing reports whether v is the missing-depth sentinel.
func IsMissing(v float32) bool {
	return math.IsNaN(float64(v))
}

// OutOfRangeError is returned when a sample is requested outside the grid.
type OutOfRangeError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("grid: sample (%d, %d) outside %dx%d grid", e.X, e.Y, e.Width, e.Height)
}

func checkRange(x, y, w, h int) error {
	if x < 0 || y < 0 || x >= w || y >= h {
		return &OutOfRangeError{X: x, Y: y, Width: w, Height: h}
	}
	return nil
}
