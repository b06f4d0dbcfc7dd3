package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// Analyzer inspects a Context and reports violations for one quality dimension
type Analyzer interface {
	Name() string
	Description() string
	Analyze(ac *Context) ([]violation.Violation, error)
}

// Run executes analyzers concurrently against ac. The first failure cancels
// the run and no partial result is returned. Violations are concatenated in
// analyzer order.
func Run(ctx context.Context, ac *Context, analyzers ...Analyzer) ([]violation.Violation, error) {
	if ac == nil {
		return nil, ErrNoContext
	}

	results := make([][]violation.Violation, len(analyzers))
	g, gctx := errgroup.WithContext(ctx)

	for i, a := range analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vs, err := a.Analyze(ac)
			if err != nil {
				return fmt.Errorf("%s analyzer: %w", a.Name(), err)
			}
			results[i] = vs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []violation.Violation
	for _, vs := range results {
		all = append(all, vs...)
	}
	return all, nil
}
