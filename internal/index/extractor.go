package index

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	interrors "github.com/slateview/storyindex/internal/errors"
	"github.com/slateview/storyindex/internal/specifier"
)

var (
	errEmptyTitle = errors.New("no title could be derived for this file")
	errNoAnalyzer = errors.New("no documentation analyzer registered")
)

// aggregate wraps the collected assembly errors into one aggregate error.
func aggregate(errs []error) error {
	return interrors.NewAggregate(errs)
}

// extractStoryFile turns an unprocessed story file into its story entries,
// prepending a synthetic documentation entry when autodocs applies. Failures
// are captured into the file's own cache slot and never abort the batch.
// A result is discarded when the slot was reset after the read, identified
// by its seq at work-list time.
func (g *Generator) extractStoryFile(spec specifier.Specifier, path string, seq uint64) {
	importPath := specifier.ImportPath(g.opts.WorkingDir, path)

	indexer := g.indexerFor(path)
	if indexer == nil {
		g.storeError(spec, path, seq, interrors.MissingIndexer(importPath))
		return
	}

	input := IndexInput{
		MakeTitle: func(userTitle string) string {
			return userOrAutoTitle(userTitle, spec, g.opts.WorkingDir, path)
		},
	}

	raws, err := indexer.CreateIndex(path, input)
	if err != nil {
		g.storeError(spec, path, seq, interrors.Extraction(importPath, err))
		return
	}

	entries, err := g.buildStoryEntries(raws, importPath)
	if err != nil {
		g.storeError(spec, path, seq, err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if slot, ok := g.caches[spec][path]; ok && slot.seq == seq {
		slot.state = stateStories
		slot.entries = entries
		slot.err = nil
	}
}

// buildStoryEntries converts raw story descriptors into index entries.
func (g *Generator) buildStoryEntries(raws []RawStory, importPath string) ([]Entry, error) {
	var entries []Entry
	var componentAutodocs, isStoriesMDX bool
	var title, metaID string
	var metaTags []string

	for i, raw := range raws {
		if raw.Title == "" {
			return nil, interrors.Extraction(importPath, errEmptyTitle)
		}
		if i == 0 {
			title = raw.Title
			metaID = raw.MetaID
			metaTags = raw.MetaTags
		}
		if tagged(raw, TagAutodocs) {
			componentAutodocs = true
		}
		if tagged(raw, TagStoriesMDX) {
			isStoriesMDX = true
		}

		// Legacy docs-only entries exist to carry documentation that the
		// synthetic page already covers; they never publish a story.
		if tagged(raw, TagDocsOnly) {
			continue
		}

		name := raw.Name
		if name == "" {
			name = storyNameFromExportName(raw.ExportName)
		}

		tags := dedupeTags(raw.MetaTags, raw.Tags, []string{TagStory})
		if raw.HasPlay {
			tags = append(tags, TagPlayFn)
		}

		entries = append(entries, Entry{
			Type:       TypeStory,
			ID:         toID(orTitle(raw.MetaID, raw.Title), name),
			MetaID:     raw.MetaID,
			Name:       name,
			Title:      raw.Title,
			ImportPath: importPath,
			Tags:       tags,
		})
	}

	if len(raws) == 0 {
		return entries, nil
	}

	optedIn := g.opts.Autodocs == AutodocsAll ||
		(g.opts.Autodocs == AutodocsTag && componentAutodocs)
	if (optedIn || isStoriesMDX) && !g.opts.SkipAutodocs {
		docs := Entry{
			Type:       TypeDocs,
			ID:         toID(orTitle(metaID, title), g.opts.DocsDefaultName),
			Name:       g.opts.DocsDefaultName,
			Title:      title,
			ImportPath: importPath,
			Tags:       dedupeTags(metaTags, []string{TagDocs}),
		}
		entries = append([]Entry{docs}, entries...)
	}

	return entries, nil
}

// extractDocsFile turns an unprocessed documentation file into a docs entry,
// resolving its imports against every specifier's already-extracted story
// caches and recording dependency edges both ways.
func (g *Generator) extractDocsFile(spec specifier.Specifier, path string, seq uint64) {
	importPath := specifier.ImportPath(g.opts.WorkingDir, path)

	if g.analyzer == nil {
		g.storeError(spec, path, seq, interrors.Extraction(importPath, errNoAnalyzer))
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		g.storeError(spec, path, seq, interrors.Extraction(importPath, err))
		return
	}

	analysis, err := g.analyzer.Analyze(content)
	if err != nil {
		g.storeError(spec, path, seq, interrors.Extraction(importPath, err))
		return
	}

	// Reusable templates are excluded from the index entirely.
	if analysis.IsTemplate {
		g.mu.Lock()
		if slot, ok := g.caches[spec][path]; ok && slot.seq == seq {
			slot.state = stateExcluded
		}
		g.mu.Unlock()
		return
	}

	dir := filepath.Dir(path)
	var absImports []string
	for _, imp := range analysis.Imports {
		if strings.HasPrefix(imp, ".") {
			absImports = append(absImports, filepath.Clean(filepath.Join(dir, imp)))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// The slot may have been reset while the file was read and analyzed
	// outside the lock. A stale analysis must not record dependency edges.
	if slot, ok := g.caches[spec][path]; !ok || slot.seq != seq {
		return
	}

	// Match declared imports against story entries across every specifier
	// cache. A full linear scan per documentation file is acceptable at the
	// expected scale of hundreds to low thousands of files.
	deps := g.findStoryDependencies(absImports)

	var ofDep *storyDependency
	if analysis.Of != "" {
		ofAbs := filepath.Clean(filepath.Join(dir, analysis.Of))
		var candidates []*storyDependency
		for _, dep := range deps {
			if matchImport(dep.path, ofAbs) {
				candidates = append(candidates, dep)
			}
		}
		switch len(candidates) {
		case 0:
			g.storeErrorLocked(spec, path, interrors.UnresolvedRef(importPath, analysis.Of))
			return
		case 1:
			ofDep = candidates[0]
		default:
			// Multiple equally valid matches are a conflict, never a
			// silent pick.
			g.storeErrorLocked(spec, path,
				interrors.New(interrors.ErrCodeUnresolvedRef,
					"reference "+analysis.Of+" matches more than one story file", nil).
					WithPath(importPath))
			return
		}

		// The referenced dependency leads storiesImports.
		ordered := []*storyDependency{ofDep}
		for _, dep := range deps {
			if dep != ofDep {
				ordered = append(ordered, dep)
			}
		}
		deps = ordered
	}

	var title, name, metaID string
	tags := analysis.Tags

	if ofDep != nil {
		ref := firstStoryEntry(ofDep.entry)
		if ref == nil {
			g.storeErrorLocked(spec, path, interrors.UnresolvedRef(importPath, analysis.Of))
			return
		}
		// The canonical referenced story set drives grouping and identity.
		title = ref.Title
		metaID = ref.MetaID
		tags = append(tags, TagAttachedMDX)
	} else {
		title = userOrAutoTitle(analysis.Title, spec, g.opts.WorkingDir, path)
		tags = append(tags, TagUnattachedMDX)
	}
	if title == "" {
		g.storeErrorLocked(spec, path, interrors.Extraction(importPath, errEmptyTitle))
		return
	}

	name = analysis.Name
	if name == "" {
		name = g.opts.DocsDefaultName
	}

	storiesImports := make([]string, 0, len(deps))
	dependencies := make([]string, 0, len(deps))
	for _, dep := range deps {
		storiesImports = append(storiesImports, specifier.ImportPath(g.opts.WorkingDir, dep.path))
		dependencies = append(dependencies, dep.path)
		dep.entry.addDependent(path)
	}

	docs := Entry{
		Type:           TypeDocs,
		ID:             toID(orTitle(metaID, title), name),
		Name:           name,
		Title:          title,
		ImportPath:     importPath,
		StoriesImports: storiesImports,
		Tags:           dedupeTags(tags, []string{TagDocs}),
	}

	if slot, ok := g.caches[spec][path]; ok {
		slot.state = stateDocs
		slot.docs = docs
		slot.dependencies = dependencies
		slot.err = nil
	}
}

// storyDependency pairs a story file path with its cache entry.
type storyDependency struct {
	path  string
	entry *cacheEntry
}

// findStoryDependencies returns the extracted story files matching the given
// absolute imports, in import order, deduplicated by path. Callers must hold
// g.mu.
func (g *Generator) findStoryDependencies(absImports []string) []*storyDependency {
	var deps []*storyDependency
	seen := make(map[string]bool)

	for _, imp := range absImports {
		for _, spec := range g.opts.Specifiers {
			cache := g.caches[spec]
			paths := make([]string, 0, len(cache))
			for path := range cache {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			for _, path := range paths {
				ce := cache[path]
				if ce.state != stateStories || seen[path] || !matchImport(path, imp) {
					continue
				}
				seen[path] = true
				deps = append(deps, &storyDependency{path: path, entry: ce})
			}
		}
	}
	return deps
}

// matchImport reports whether a cached story file path satisfies an absolute
// import, which may omit the file extension.
func matchImport(cachePath, absImport string) bool {
	if cachePath == absImport {
		return true
	}
	return strings.TrimSuffix(cachePath, filepath.Ext(cachePath)) == absImport
}

// firstStoryEntry returns the first non-documentation entry of a story
// file's cache slot, skipping any synthetic docs entry prepended by autodocs.
func firstStoryEntry(ce *cacheEntry) *Entry {
	for i := range ce.entries {
		if ce.entries[i].Type == TypeStory {
			return &ce.entries[i]
		}
	}
	return nil
}

// storeError captures a per-file failure into the file's cache slot, unless
// the slot was reset after the work list pinned seq.
func (g *Generator) storeError(spec specifier.Specifier, path string, seq uint64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slot, ok := g.caches[spec][path]; ok && slot.seq == seq {
		g.storeErrorLocked(spec, path, err)
	}
}

// storeErrorLocked is storeError for callers already holding g.mu.
func (g *Generator) storeErrorLocked(spec specifier.Specifier, path string, err error) {
	if slot, ok := g.caches[spec][path]; ok {
		slot.state = stateError
		slot.err = err
	}
}

// tagged reports whether a raw story carries the tag at story or file level.
func tagged(raw RawStory, tag string) bool {
	for _, t := range raw.Tags {
		if t == tag {
			return true
		}
	}
	for _, t := range raw.MetaTags {
		if t == tag {
			return true
		}
	}
	return false
}

// orTitle prefers the explicit meta id over the title for id derivation.
func orTitle(metaID, title string) string {
	if metaID != "" {
		return metaID
	}
	return title
}

// dedupeTags merges tag lists preserving first-seen order.
func dedupeTags(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
