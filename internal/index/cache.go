package index

import "github.com/slateview/storyindex/internal/specifier"

// cacheState tags the per-file cache entry variants. Keeping this an explicit
// enum (rather than polymorphic dispatch) keeps the invalidation logic
// exhaustive: every switch over cacheState handles all terminal states.
type cacheState int

const (
	// stateUnprocessed means the file was discovered but not yet extracted.
	stateUnprocessed cacheState = iota
	// stateStories is the terminal state of an extracted story file.
	stateStories
	// stateDocs is the terminal state of an extracted documentation file.
	stateDocs
	// stateExcluded is the terminal state of a documentation template,
	// which yields nothing to index.
	stateExcluded
	// stateError records a failed extraction.
	stateError
)

// cacheEntry is the unit of incremental memoization, keyed by absolute file
// path within a specifier's cache. Exactly one variant's fields are populated
// according to state.
type cacheEntry struct {
	state cacheState

	// seq is bumped by every reset. Extraction tasks capture it when the
	// work list is built and drop their result if the slot was reset in
	// the meantime, so a concurrent invalidation can never be overwritten
	// by a stale read of the file.
	seq uint64

	// entries are the extracted story entries (stateStories), possibly led
	// by a synthetic docs entry wrapping the whole file.
	entries []Entry

	// dependents lists absolute paths of documentation files that import
	// this story file; back-edges for invalidation (stateStories).
	dependents []string

	// docs is the extracted documentation entry (stateDocs).
	docs Entry

	// dependencies lists absolute paths of the story files this
	// documentation entry imports, for edge teardown on removal (stateDocs).
	dependencies []string

	// err records the extraction failure (stateError).
	err error
}

// reset returns the entry to the unprocessed sentinel, dropping every
// extracted result. Back-edges in other slots are left in place; appends are
// deduplicated so re-extraction cannot double-register an edge.
func (ce *cacheEntry) reset() {
	*ce = cacheEntry{state: stateUnprocessed, seq: ce.seq + 1}
}

// addDependent records a documentation file as depending on this story file.
// The append is monotonic and deduplicated.
func (ce *cacheEntry) addDependent(docsPath string) {
	for _, d := range ce.dependents {
		if d == docsPath {
			return
		}
	}
	ce.dependents = append(ce.dependents, docsPath)
}

// removeDependent tears down a back-edge when the documentation file that
// created it is removed.
func (ce *cacheEntry) removeDependent(docsPath string) {
	for i, d := range ce.dependents {
		if d == docsPath {
			ce.dependents = append(ce.dependents[:i], ce.dependents[i+1:]...)
			return
		}
	}
}

// specifierCache is one specifier's mapping from absolute file path to its
// cache entry.
type specifierCache map[string]*cacheEntry

// cacheSet is the cache-of-caches: specifier -> path -> entry. Specifiers are
// identity-compared value types, so they serve directly as map keys.
type cacheSet map[specifier.Specifier]specifierCache
