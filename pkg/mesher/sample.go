package mesher

import (
	"golang.org/x/sync/errgroup"

	"github.com/chazu/depthmesh/pkg/grid"
	"github.com/chazu/depthmesh/pkg/mesh"
)

// sample writes every grid vertex into sink and returns the validity mask.
// Rows are independent, so with Workers > 1 they are sampled concurrently;
// each row only touches its own slots in sink and in the mask.
func sample(g grid.Grid, opts Options, sink mesh.VertexSink) ([]bool, error) {
	w, h := g.Width(), g.Height()
	xf := opts.Transform
	if xf == nil {
		xf = PassThrough
	}

	sink.Allocate(w * h)
	valid := make([]bool, w*h)

	row := func(y int) error {
		for x := 0; x < w; x++ {
			d, err := g.Depth(x, y)
			if err != nil {
				return &SampleAccessError{X: x, Y: y, Err: err}
			}
			i := y*w + x
			valid[i] = !grid.IsMissing(d)
			sink.SetVertex(i, xf(x, y, d))
		}
		return nil
	}

	if opts.Workers <= 1 {
		for y := 0; y < h; y++ {
			if err := row(y); err != nil {
				return nil, err
			}
		}
		return valid, nil
	}

	// Collect per-row errors so the reported failure is the first row in
	// grid order, independent of scheduling.
	rowErrs := make([]error, h)
	var eg errgroup.Group
	eg.SetLimit(opts.Workers)
	for y := 0; y < h; y++ {
		eg.Go(func() error {
			rowErrs[y] = row(y)
			return nil
		})
	}
	eg.Wait()

	for _, err := range rowErrs {
		if err != nil {
			return nil, err
		}
	}
	return valid, nil
}
