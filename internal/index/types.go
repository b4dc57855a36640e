// Package index implements the incremental story/documentation index
// generator: specifier-grouped file caches, two-pass extraction with
// cross-file dependency tracking, duplicate resolution, deterministic
// sorting, and cheap invalidation keyed by file path.
package index

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the published index format version.
const Version = 4

// EntryType distinguishes story entries from documentation entries.
type EntryType string

const (
	// TypeStory is an example/story entry extracted from a story file.
	TypeStory EntryType = "story"
	// TypeDocs is a documentation entry, authored or generated.
	TypeDocs EntryType = "docs"
)

// Reserved tags carried on published entries.
const (
	// TagStory marks every story entry.
	TagStory = "story"
	// TagDocs marks every documentation entry.
	TagDocs = "docs"
	// TagAutodocs requests a generated documentation page for a story file.
	TagAutodocs = "autodocs"
	// TagStoriesMDX marks legacy transpiled-documentation story files.
	TagStoriesMDX = "stories-mdx"
	// TagDocsOnly marks legacy entries that exist only to carry docs and
	// are filtered out of the published story list.
	TagDocsOnly = "stories-mdx-docsOnly"
	// TagAttachedMDX marks documentation entries attached to a story file.
	TagAttachedMDX = "attached-mdx"
	// TagUnattachedMDX marks standalone documentation entries.
	TagUnattachedMDX = "unattached-mdx"
	// TagPlayFn marks stories that declare an interaction test.
	TagPlayFn = "play-fn"
)

// Entry is the externally visible unit of the index: either a story or a
// documentation page. The zero StoriesImports slice is only populated for
// documentation entries.
type Entry struct {
	Type           EntryType `json:"type"`
	ID             string    `json:"id"`
	MetaID         string    `json:"metaId,omitempty"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	ImportPath     string    `json:"importPath"`
	StoriesImports []string  `json:"storiesImports,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
}

// HasTag reports whether the entry carries the given tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// fromDocsFile reports whether a docs entry originates from an authored
// documentation-markup file rather than a generated page.
func (e Entry) fromDocsFile() bool {
	return e.HasTag(TagAttachedMDX) || e.HasTag(TagUnattachedMDX)
}

// Index is the published artifact: a versioned id-to-entry mapping plus the
// ordering the sorter assigned. The index is replaced atomically as a whole
// and never partially updated.
type Index struct {
	Version int
	Entries map[string]Entry

	// order holds entry ids in the sorter's order.
	order []string
}

// newIndex builds an Index from an already deduplicated, sorted entry list.
func newIndex(entries []Entry) *Index {
	ix := &Index{
		Version: Version,
		Entries: make(map[string]Entry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		ix.Entries[e.ID] = e
		ix.order = append(ix.order, e.ID)
	}
	return ix
}

// Order materializes the entries as an ordered sequence for rendering.
func (ix *Index) Order() []Entry {
	entries := make([]Entry, 0, len(ix.order))
	for _, id := range ix.order {
		entries = append(entries, ix.Entries[id])
	}
	return entries
}

// MarshalJSON emits the index with the entries object in sorter order.
func (ix *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"v":`)
	fmt.Fprintf(&buf, "%d", ix.Version)
	buf.WriteString(`,"entries":{`)
	for i, id := range ix.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(ix.Entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// RawStory is one story export described by a per-file indexer. Title and
// MetaID normally repeat per file; each raw story carries them so indexers
// stay stateless.
type RawStory struct {
	// ExportName identifies the export within the story file.
	ExportName string
	// Name is the optional explicit story name; derived from ExportName
	// when empty.
	Name string
	// Title is the grouping title, already passed through MakeTitle.
	Title string
	// MetaID is the optional explicit component id.
	MetaID string
	// Tags are story-level tags.
	Tags []string
	// MetaTags are file-level tags shared by every story in the file.
	MetaTags []string
	// HasPlay marks stories declaring an interaction test.
	HasPlay bool
}

// IndexInput is passed to per-file indexers.
type IndexInput struct {
	// MakeTitle resolves the user-supplied title (possibly empty) into the
	// final title, deriving one from the file path when needed.
	MakeTitle func(userTitle string) string
}

// Indexer is the pluggable per-file extraction capability. The registry is
// ordered; the first indexer whose Match reports true handles the file.
type Indexer interface {
	// Match reports whether this indexer handles the given file path.
	Match(path string) bool
	// CreateIndex extracts the raw story descriptors from the file.
	CreateIndex(path string, input IndexInput) ([]RawStory, error)
}

// DocsAnalysis is the result of analyzing a documentation file's content.
type DocsAnalysis struct {
	// Title is the explicit grouping title, if declared.
	Title string
	// Of is the explicit meta-of reference to a story file, if declared.
	Of string
	// Name is the explicit entry name, if declared.
	Name string
	// IsTemplate marks reusable templates that are excluded from the index.
	IsTemplate bool
	// Imports are the declared import paths, in declaration order.
	Imports []string
	// Tags are free-form labels declared by the file.
	Tags []string
}

// Analyzer is the pluggable documentation-markup analysis capability.
type Analyzer interface {
	Analyze(content []byte) (*DocsAnalysis, error)
}
