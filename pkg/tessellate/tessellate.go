// Package tessellate turns depth grids into welded triangle meshes. It ties
// together triangulation, vertex placement, welding and normal generation.
// One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/depthmesh/pkg/grid"
	"github.com/chazu/depthmesh/pkg/mesh"
	"github.com/chazu/depthmesh/pkg/mesher"
	"github.com/chazu/depthmesh/pkg/weld"
)

// Part is a named depth grid.
type Part struct {
	Name string
	Grid grid.Grid
}

// Tessellate triangulates g according to cfg. A grid whose triangles all
// disappear produces an empty mesh rather than an error.
func Tessellate(g grid.Grid, cfg Config) (*mesh.Mesh, error) {
	if g == nil {
		return nil, fmt.Errorf("tessellate: %w", &mesher.InvalidGridError{})
	}

	raw, err := mesher.Triangulate(g, mesher.Options{
		Mode:      cfg.Mode,
		Transform: cfg.transform(g.Width(), g.Height()),
		Workers:   cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("tessellate: triangulating %q: %w", cfg.Name, err)
	}
	raw.Name = cfg.Name

	out := raw
	if cfg.Weld {
		welded, err := weld.WeldMesh(raw, cfg.Precision)
		var empty *weld.EmptyMeshError
		switch {
		case errors.As(err, &empty):
			log.Printf("tessellate: %q has no triangles to weld, returning empty mesh", cfg.Name)
			out = &mesh.Mesh{Name: cfg.Name}
		case err != nil:
			return nil, fmt.Errorf("tessellate: welding %q: %w", cfg.Name, err)
		default:
			out = welded
		}
	}

	if cfg.Compact {
		out = weld.Compact(out)
	}
	if cfg.Normals {
		out.ComputeNormals()
	}
	return out, nil
}

// TessellateParts tessellates each part with cfg, naming each mesh after its
// part, and returns the meshes in part order. Parts are processed
// concurrently; the first error in part order is returned.
func TessellateParts(parts []Part, cfg Config) ([]*mesh.Mesh, error) {
	meshes := make([]*mesh.Mesh, len(parts))
	errs := make([]error, len(parts))

	var eg errgroup.Group
	if cfg.Workers > 0 {
		eg.SetLimit(cfg.Workers)
	}
	for i, p := range parts {
		partCfg := cfg
		if p.Name != "" {
			partCfg.Name = p.Name
		}
		// Rows within a part stay sequential; parallelism is across parts.
		partCfg.Workers = 0
		eg.Go(func() error {
			meshes[i], errs[i] = Tessellate(p.Grid, partCfg)
			return nil
		})
	}
	_ = eg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("tessellate: part %d: %w", i, err)
		}
	}
	return meshes, nil
}
