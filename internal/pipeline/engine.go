package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lsearchy/internal/address"
	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/document"
	"github.com/dgallion1/lsearchy/internal/parser"
)

// ErrRootUnreadable is returned by Run when the scan root is missing, not a
// directory, or cannot be listed. It is the only fatal scan error.
var ErrRootUnreadable = errors.New("scan root is unreadable")

// FindingFunc is called once for each address the first time it enters the
// result set. Calls are serialized.
type FindingFunc func(f Finding, doc document.Document)

// Engine discovers documents under a root and harvests addresses from them.
type Engine struct {
	registry *parser.Registry
	log      *slog.Logger

	mode       string
	workers    int
	skipHidden bool

	// Stats, when set, receives one latency sample per extracted document.
	Stats *ExtractStats
	// OnFinding, when set, is told about every newly discovered address.
	OnFinding FindingFunc

	findingMu sync.Mutex
}

func NewEngine(cfg config.Config, reg *parser.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = parser.NewRegistry(cfg.ParserOptions(), log)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		registry:   reg,
		log:        log,
		mode:       cfg.Mode,
		workers:    workers,
		skipHidden: cfg.SkipHidden,
	}
}

// Run scans every supported document under root and returns the sealed
// result. If ctx is cancelled, no new documents are started and the partial
// result is returned together with ctx.Err().
func (e *Engine) Run(ctx context.Context, root string, query address.Query) (Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return Snapshot{}, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}

	paths, err := e.Discover(root)
	if err != nil {
		return Snapshot{}, err
	}
	e.log.Debug("discovery complete", "root", root, "candidates", len(paths))
	return e.Process(ctx, paths, query)
}

// Discover walks root in lexical order and returns the paths of every file
// with a recognized extension. Unreadable subdirectories are skipped.
func (e *Engine) Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: %v", ErrRootUnreadable, err)
			}
			e.log.Debug("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && e.skipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if parser.IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// Process runs the per-document pipeline over an explicit candidate list.
// Paths with unrecognized extensions are counted and skipped.
func (e *Engine) Process(ctx context.Context, paths []string, query address.Query) (Snapshot, error) {
	rs := NewResultSet()
	rs.countDiscovered(len(paths))

	if e.mode == config.ModeConcurrent && e.workers > 1 && len(paths) > 1 {
		e.runPool(ctx, paths, query, rs)
	} else {
		for _, path := range paths {
			if ctx.Err() != nil {
				break
			}
			e.processDocument(ctx, path, query, rs)
		}
	}

	snap := rs.Seal()
	e.log.Debug("scan complete",
		"addresses", len(snap.Addresses),
		"records", len(snap.Records),
		"processed", snap.Counters.Processed,
		"failed", snap.Counters.Failed,
	)
	return snap, ctx.Err()
}

// runPool feeds paths through one channel to a fixed set of workers.
func (e *Engine) runPool(ctx context.Context, paths []string, query address.Query, rs *ResultSet) {
	queue := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, path := range paths {
			select {
			case queue <- path:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	workers := min(e.workers, len(paths))
	for range workers {
		g.Go(func() error {
			for path := range queue {
				e.processDocument(gctx, path, query, rs)
			}
			return nil
		})
	}

	// Workers never fail; per-document errors are recoverable.
	_ = g.Wait()
}

func (e *Engine) notify(fresh []Finding, doc document.Document) {
	if e.OnFinding == nil || len(fresh) == 0 {
		return
	}
	e.findingMu.Lock()
	defer e.findingMu.Unlock()
	for _, f := range fresh {
		e.OnFinding(f, doc)
	}
}
