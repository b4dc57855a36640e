package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/slateview/storyindex/internal/specifier"
)

// DefaultDocsName is the name given to generated documentation pages when
// the project does not configure one.
const DefaultDocsName = "Docs"

// AutodocsMode controls automatic documentation-page generation.
type AutodocsMode string

const (
	// AutodocsOff disables automatic documentation pages.
	AutodocsOff AutodocsMode = "off"
	// AutodocsTag generates documentation pages only for story files
	// tagged "autodocs".
	AutodocsTag AutodocsMode = "tag"
	// AutodocsAll generates a documentation page for every story file.
	AutodocsAll AutodocsMode = "all"
)

// Comparator is an optional externally supplied total order over entries.
// Negative means a sorts before b. Equal entries fall back to discovery order.
type Comparator func(a, b Entry) int

// Options are the configuration inputs of a Generator. They are consumed as
// plain data; loading them is the caller's concern.
type Options struct {
	// WorkingDir is the project root import paths are expressed against.
	WorkingDir string

	// ConfigDir is the project configuration directory (informational).
	ConfigDir string

	// Specifiers are the configured file-matching rules, in configuration
	// order. That order is the first component of discovery order.
	Specifiers []specifier.Specifier

	// Autodocs controls generated documentation pages.
	Autodocs AutodocsMode

	// DocsDefaultName names generated documentation pages and documentation
	// entries without an explicit name. Defaults to DefaultDocsName.
	DocsDefaultName string

	// DocsExtensions identify documentation files. Defaults to [".mdx"].
	DocsExtensions []string

	// SkipAutodocs disables synthetic documentation entries entirely,
	// used for test builds.
	SkipAutodocs bool
}

// Option configures a Generator beyond its plain-data Options.
type Option func(*Generator)

// WithIndexers sets the ordered per-file indexer registry. First match wins.
func WithIndexers(indexers ...Indexer) Option {
	return func(g *Generator) { g.indexers = indexers }
}

// WithAnalyzer sets the documentation-markup analyzer.
func WithAnalyzer(a Analyzer) Option {
	return func(g *Generator) { g.analyzer = a }
}

// WithComparator sets the user-supplied sort order.
func WithComparator(c Comparator) Option {
	return func(g *Generator) { g.comparator = c }
}

// Generator builds and incrementally maintains the story/documentation
// index. One Generator instance owns the caches for one project
// configuration; the last-good index and last error are explicit fields of
// the instance, never process-wide state.
type Generator struct {
	opts       Options
	indexers   []Indexer
	analyzer   Analyzer
	comparator Comparator

	// mu guards everything below. Extraction I/O runs outside the lock;
	// cache slots are only written under it.
	mu           sync.Mutex
	caches       cacheSet
	discovery    []string       // absolute paths in first-discovery order
	discoveryIdx map[string]int // absolute path -> discovery position
	initialized  bool

	// generation is bumped by every Invalidate. A build snapshots it
	// before extracting and refuses to cache a result assembled against
	// an older generation, so an invalidation arriving mid-build can
	// never be lost behind a published index.
	generation uint64

	// lastIndex and lastErr are mutually exclusive cached outcomes of the
	// previous assembly. Invalidation clears both.
	lastIndex *Index
	lastErr   error

	// flight shares an in-flight recomputation between concurrent callers.
	flight singleflight.Group
}

// NewGenerator creates a Generator for the given project configuration.
func NewGenerator(opts Options, options ...Option) (*Generator, error) {
	if opts.WorkingDir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	abs, err := filepath.Abs(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	opts.WorkingDir = abs

	if opts.DocsDefaultName == "" {
		opts.DocsDefaultName = DefaultDocsName
	}
	if len(opts.DocsExtensions) == 0 {
		opts.DocsExtensions = []string{".mdx"}
	}
	if opts.Autodocs == "" {
		opts.Autodocs = AutodocsOff
	}

	g := &Generator{
		opts:         opts,
		caches:       make(cacheSet, len(opts.Specifiers)),
		discoveryIdx: make(map[string]int),
	}
	for _, o := range options {
		o(g)
	}
	return g, nil
}

// Initialize resolves every specifier to its file set and seeds the caches
// with unprocessed entries. Specifiers are resolved in parallel; one
// specifier's glob failure is isolated and does not abort the others.
func (g *Generator) Initialize(ctx context.Context) error {
	resolved := make([][]string, len(g.opts.Specifiers))
	failures := make([]error, len(g.opts.Specifiers))

	eg, _ := errgroup.WithContext(ctx)
	for i, spec := range g.opts.Specifiers {
		i, spec := i, spec
		eg.Go(func() error {
			paths, err := spec.Resolve(g.opts.WorkingDir)
			if err != nil {
				failures[i] = fmt.Errorf("specifier %s: %w", spec.String(), err)
				return nil
			}
			resolved[i] = paths
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, spec := range g.opts.Specifiers {
		if failures[i] != nil {
			slog.Warn("specifier resolution failed",
				slog.String("specifier", spec.String()),
				slog.String("error", failures[i].Error()))
		}
		cache := g.caches[spec]
		if cache == nil {
			cache = make(specifierCache)
			g.caches[spec] = cache
		}
		for _, path := range resolved[i] {
			if _, ok := cache[path]; !ok {
				cache[path] = &cacheEntry{state: stateUnprocessed}
				g.recordDiscovery(path)
			}
		}
	}

	g.initialized = true
	return nil
}

// recordDiscovery appends a path to the discovery order exactly once.
// Callers must hold g.mu.
func (g *Generator) recordDiscovery(path string) {
	if _, ok := g.discoveryIdx[path]; ok {
		return
	}
	g.discoveryIdx[path] = len(g.discovery)
	g.discovery = append(g.discovery, path)
}

// Index returns the last successfully computed index, or recomputes it.
// Concurrent callers share a single in-flight recomputation. When assembly
// fails, the aggregate error is cached and re-returned verbatim until the
// next invalidation; it is never silently retried.
func (g *Generator) Index(ctx context.Context) (*Index, error) {
	v, err, _ := g.flight.Do("index", func() (interface{}, error) {
		return g.buildIndex(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Invalidate handles one change notification from an external watcher.
// The targeted cache entry is reset to unprocessed, or deleted when the file
// was removed; every file depending on it is reset across all specifier
// caches. Any invalidation clears the cached index and the cached error.
func (g *Generator) Invalidate(spec specifier.Specifier, path string, removed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cache, ok := g.caches[spec]
	if !ok {
		slog.Warn("invalidation for unknown specifier",
			slog.String("specifier", spec.String()),
			slog.String("path", path))
		return
	}

	entry := cache[path]
	if entry != nil {
		// A removed documentation entry tears down its own outgoing edges
		// first, so the referenced story files hold no dangling back-edge.
		if removed && entry.state == stateDocs {
			for _, dep := range entry.dependencies {
				for _, other := range g.caches {
					if depEntry, ok := other[dep]; ok {
						depEntry.removeDependent(path)
					}
				}
			}
		}

		// Dependents may have been discovered under a different specifier.
		for _, dependent := range entry.dependents {
			for _, other := range g.caches {
				if depEntry, ok := other[dependent]; ok {
					depEntry.reset()
				}
			}
		}
	}

	if removed {
		delete(cache, path)
	} else if entry != nil {
		entry.reset()
	} else {
		// A newly created file matching the specifier: discover it now.
		cache[path] = &cacheEntry{state: stateUnprocessed}
		g.recordDiscovery(path)
	}

	g.generation++
	g.lastIndex = nil
	g.lastErr = nil

	slog.Debug("cache invalidated",
		slog.String("path", path),
		slog.Bool("removed", removed))
}

// buildIndex performs one full assembly: extraction of every unprocessed
// entry, flattening, duplicate resolution, error aggregation, and sorting.
// The published index is replaced atomically as a whole. When an
// invalidation lands while extraction is running, the pass starts over
// against the new generation instead of caching a partial result.
func (g *Generator) buildIndex(ctx context.Context) (*Index, error) {
	for {
		g.mu.Lock()
		if g.lastIndex != nil {
			ix := g.lastIndex
			g.mu.Unlock()
			return ix, nil
		}
		if g.lastErr != nil {
			err := g.lastErr
			g.mu.Unlock()
			return nil, err
		}
		gen := g.generation
		initialized := g.initialized
		g.mu.Unlock()

		if !initialized {
			if err := g.Initialize(ctx); err != nil {
				return nil, err
			}
		}

		if err := g.extractAll(ctx); err != nil {
			return nil, err
		}

		g.mu.Lock()
		if g.generation != gen {
			g.mu.Unlock()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slog.Debug("invalidated during build, re-extracting")
			continue
		}

		entries, errs := g.assemble()
		if len(errs) > 0 {
			agg := aggregate(errs)
			g.lastErr = agg
			g.lastIndex = nil
			g.mu.Unlock()
			return nil, agg
		}

		g.sortEntries(entries)
		ix := newIndex(entries)
		g.lastIndex = ix
		g.lastErr = nil
		g.mu.Unlock()

		slog.Debug("index assembled", slog.Int("entries", len(entries)))
		return ix, nil
	}
}

// extractAll runs the two extraction passes: all story files batch-complete
// before any documentation file is analyzed, because documentation
// extraction resolves references into already-extracted story caches.
// Within a pass, files are processed in parallel; each task writes only its
// own cache slot, so no per-slot locking is needed beyond g.mu.
func (g *Generator) extractAll(ctx context.Context) error {
	if err := g.extractPass(ctx, false); err != nil {
		return err
	}
	return g.extractPass(ctx, true)
}

// workItem is one pending extraction. seq pins the cache slot revision the
// result is allowed to land in.
type workItem struct {
	spec specifier.Specifier
	path string
	seq  uint64
}

// extractPass extracts every unprocessed entry belonging to one pass.
func (g *Generator) extractPass(ctx context.Context, docsPass bool) error {
	g.mu.Lock()
	var work []workItem
	for _, spec := range g.opts.Specifiers {
		cache := g.caches[spec]
		paths := make([]string, 0, len(cache))
		for path := range cache {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			if cache[path].state != stateUnprocessed {
				continue
			}
			if g.isDocsPath(path) == docsPass {
				work = append(work, workItem{spec: spec, path: path, seq: cache[path].seq})
			}
		}
	}
	g.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for _, item := range work {
		item := item
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if docsPass {
				g.extractDocsFile(item.spec, item.path, item.seq)
			} else {
				g.extractStoryFile(item.spec, item.path, item.seq)
			}
			return nil
		})
	}
	return eg.Wait()
}

// isDocsPath classifies a file as a documentation file: a documentation
// extension that no registered indexer claims. Legacy transpiled story files
// keep a documentation extension but are claimed by an indexer, which makes
// them story-bearing.
func (g *Generator) isDocsPath(path string) bool {
	ext := filepath.Ext(path)
	matched := false
	for _, e := range g.opts.DocsExtensions {
		if strings.EqualFold(ext, e) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return g.indexerFor(path) == nil
}

// indexerFor returns the first registered indexer matching the path.
func (g *Generator) indexerFor(path string) Indexer {
	for _, ix := range g.indexers {
		if ix.Match(path) {
			return ix
		}
	}
	return nil
}

// assemble flattens every cache into a single entry list in discovery order,
// resolves duplicates, and collects every extraction and conflict error.
// Callers must hold g.mu.
func (g *Generator) assemble() ([]Entry, []error) {
	var errs []error

	type flatEntry struct {
		entry Entry
		pos   int // discovery position of the owning file
	}
	var flat []flatEntry

	for _, spec := range g.opts.Specifiers {
		cache := g.caches[spec]
		paths := make([]string, 0, len(cache))
		for path := range cache {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			ce := cache[path]
			pos := g.discoveryIdx[path]
			switch ce.state {
			case stateStories:
				for _, e := range ce.entries {
					flat = append(flat, flatEntry{entry: e, pos: pos})
				}
			case stateDocs:
				flat = append(flat, flatEntry{entry: ce.docs, pos: pos})
			case stateError:
				errs = append(errs, ce.err)
			case stateExcluded, stateUnprocessed:
				// Templates yield nothing; unprocessed slots only remain
				// here when extraction was cancelled.
			}
		}
	}

	// Stable flatten order: file discovery order, then in-file order.
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].pos < flat[j].pos })

	seen := make(map[string]int, len(flat)) // id -> index into entries
	entries := make([]Entry, 0, len(flat))
	for _, fe := range flat {
		existingIdx, dup := seen[fe.entry.ID]
		if !dup {
			seen[fe.entry.ID] = len(entries)
			entries = append(entries, fe.entry)
			continue
		}
		merged, err := resolveDuplicate(entries[existingIdx], fe.entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries[existingIdx] = merged
	}

	return entries, errs
}

