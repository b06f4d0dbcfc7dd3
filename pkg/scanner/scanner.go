// Package scanner discovers source files in a project, extracts their imports
// and builds the file-level dependency graph.
//
// Go, Python and JavaScript/TypeScript are supported. Imports that resolve to
// a project file become internal edges; everything else becomes an external
// edge to the package name.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
)

// Options configures a Scanner
type Options struct {
	Workers       int      // Parallel file readers (default: runtime.NumCPU())
	Exclude       []string // Glob patterns to skip
	IgnoreDirs    []string // Directory names to skip (default: DefaultIgnoreDirs)
	IncludeHidden bool
}

// Result is everything the scanner learned about a project
type Result struct {
	Root        string
	ProjectType string
	Module      *ModuleInfo // nil without go.mod
	Files       []analysis.SourceFile
	Edges       []graph.Edge
	Graph       *graph.DependencyGraph
}

// Scanner reads a project from disk
type Scanner struct {
	opts   Options
	logger logger.Logger
}

// New creates a Scanner
func New(opts Options) *Scanner {
	return &Scanner{opts: opts, logger: logger.Default()}
}

// WithLogger returns a new Scanner with the specified logger
func (s *Scanner) WithLogger(log logger.Logger) *Scanner {
	return &Scanner{opts: s.opts, logger: log}
}

// fileJob is a file to read and parse
type fileJob struct {
	rel  string
	lang Language
}

// fileResult holds the outcome of reading one file
type fileResult struct {
	rel     string
	lang    Language
	src     []byte
	imports []Import
	err     error
}

// Scan walks root, reads every supported file with a worker pool and builds
// the dependency graph. Unreadable files are returned with Err set.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}

	s.logger.Info("Scanning project", logger.F("path", abs))

	res := &Result{Root: abs, ProjectType: DetectProjectType(abs)}
	if mod, err := DetectModule(abs); err == nil {
		res.Module = mod
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Ignoring unreadable go.mod", logger.F("error", err))
	}

	var jobs []fileJob
	err = Walk(abs, WalkOptions{
		IgnoreDirs:    s.opts.IgnoreDirs,
		Exclude:       s.opts.Exclude,
		IncludeHidden: s.opts.IncludeHidden,
	}, func(rel string) error {
		jobs = append(jobs, fileJob{rel: rel, lang: LanguageOf(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", abs, err)
	}

	s.logger.Debug("Collected files", logger.F("count", len(jobs)))

	results, err := s.readAll(ctx, abs, jobs)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.rel
	}
	modulePath := ""
	if res.Module != nil {
		modulePath = res.Module.Path
	}
	rv := newResolver(paths, modulePath)

	g := graph.New()
	for _, r := range results {
		if err := g.AddNode(r.rel); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, analysis.SourceFile{Path: r.rel, Source: r.src, Err: r.err})

		for _, imp := range r.imports {
			targets, external := rv.resolve(r.rel, r.lang, imp)
			for _, target := range targets {
				if target == r.rel {
					continue
				}
				res.Edges = append(res.Edges, graph.Edge{From: r.rel, To: target})
			}
			if external != "" {
				res.Edges = append(res.Edges, graph.Edge{From: r.rel, To: external, External: true})
			}
			if len(targets) == 0 && external == "" {
				s.logger.Debug("Unresolved import", logger.F("file", r.rel), logger.F("import", imp.Spec))
			}
		}
	}

	if err := g.AddEdges(res.Edges...); err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	res.Graph = g

	internal, external := g.EdgeCount()
	s.logger.Info("Scan complete",
		logger.F("files", len(res.Files)),
		logger.F("internal_edges", internal),
		logger.F("external_edges", external),
		logger.F("project_type", res.ProjectType))

	return res, nil
}

// readAll reads and parses files using a bounded worker pool.
// Results are sorted by path.
func (s *Scanner) readAll(ctx context.Context, root string, files []fileJob) ([]fileResult, error) {
	numWorkers := s.opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	jobs := make(chan fileJob, len(files))
	results := make(chan fileResult, len(files))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.readWorker(ctx, root, jobs, results, &wg)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- f:
			}
		}
	}()

	// Wait for workers to finish
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]fileResult, 0, len(files))
	for r := range results {
		if r.err != nil {
			s.logger.Warn("Skipping unreadable file", logger.F("file", r.rel), logger.F("error", r.err))
		}
		out = append(out, r)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

// readWorker reads files and extracts their imports
func (s *Scanner) readWorker(ctx context.Context, root string, jobs <-chan fileJob, results chan<- fileResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return
		default:
		}

		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(job.rel)))
		if err != nil {
			results <- fileResult{rel: job.rel, lang: job.lang, err: err}
			continue
		}

		imports, err := ExtractImports(job.lang, job.rel, src)
		if err != nil {
			// syntax errors still leave the file readable for pattern scans
			s.logger.Debug("Import extraction failed", logger.F("file", job.rel), logger.F("error", err))
		}
		results <- fileResult{rel: job.rel, lang: job.lang, src: src, imports: imports}
	}
}
