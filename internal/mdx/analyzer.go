// Package mdx analyzes documentation-markup files for the index core.
//
// The analysis is a light-weight lexical scan, not a full MDX parse: it
// recognizes ES-style import declarations, the <Meta> element's title, of,
// name and tags attributes, and the isTemplate marker export. That is
// exactly the surface the index generator needs to resolve references and
// derive documentation entries.
package mdx

import (
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/slateview/storyindex/internal/index"
)

// cacheSize bounds the analysis cache. Entries are keyed by content hash, so
// re-analyzing an unchanged file after invalidation is a lookup.
const cacheSize = 512

var (
	importRe = regexp.MustCompile(`(?m)^\s*import\s+(?:(\*\s+as\s+(\w+)|\w+|\{[^}]*\})\s+from\s+)?['"]([^'"]+)['"]`)

	metaRe      = regexp.MustCompile(`(?s)<Meta(\s[^>]*?)?/?>`)
	titleAttrRe = regexp.MustCompile(`title\s*=\s*['"]([^'"]+)['"]`)
	nameAttrRe  = regexp.MustCompile(`\bname\s*=\s*['"]([^'"]+)['"]`)
	ofAttrRe    = regexp.MustCompile(`of\s*=\s*\{\s*(\w+)\s*\}`)
	tagsAttrRe  = regexp.MustCompile(`tags\s*=\s*\{\s*\[([^\]]*)\]\s*\}`)
	tagItemRe   = regexp.MustCompile(`['"]([^'"]+)['"]`)

	bindingRe  = regexp.MustCompile(`import\s+(?:\*\s+as\s+)?(\w+)\s+from\s+['"]([^'"]+)['"]`)
	templateRe = regexp.MustCompile(`export\s+const\s+isTemplate\s*=\s*true`)
)

// Analyzer implements index.Analyzer for .mdx content.
type Analyzer struct {
	cache *lru.Cache[uint64, *index.DocsAnalysis]
}

// New creates an Analyzer with its analysis cache.
func New() (*Analyzer, error) {
	cache, err := lru.New[uint64, *index.DocsAnalysis](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cache: cache}, nil
}

// Analyze extracts the declared imports, the Meta element's attributes, and
// the template marker from documentation content.
func (a *Analyzer) Analyze(content []byte) (*index.DocsAnalysis, error) {
	key := xxhash.Sum64(content)
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	analysis := analyze(string(content))
	a.cache.Add(key, analysis)
	return analysis, nil
}

func analyze(content string) *index.DocsAnalysis {
	analysis := &index.DocsAnalysis{
		IsTemplate: templateRe.MatchString(content),
	}

	// Import declarations, in declaration order. Bindings are tracked so a
	// Meta of={Binding} reference can be resolved back to its import path.
	bindings := make(map[string]string)
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		analysis.Imports = append(analysis.Imports, m[3])
	}
	for _, m := range bindingRe.FindAllStringSubmatch(content, -1) {
		bindings[m[1]] = m[2]
	}

	meta := metaRe.FindStringSubmatch(content)
	if meta == nil {
		return analysis
	}
	attrs := meta[1]

	if m := titleAttrRe.FindStringSubmatch(attrs); m != nil {
		analysis.Title = m[1]
	}
	if m := nameAttrRe.FindStringSubmatch(attrs); m != nil {
		analysis.Name = m[1]
	}
	if m := ofAttrRe.FindStringSubmatch(attrs); m != nil {
		if path, ok := bindings[m[1]]; ok {
			analysis.Of = path
		} else {
			// Unknown binding: surface the raw reference so the extractor
			// reports an unresolved-reference error naming it.
			analysis.Of = m[1]
		}
	}
	if m := tagsAttrRe.FindStringSubmatch(attrs); m != nil {
		for _, item := range tagItemRe.FindAllStringSubmatch(m[1], -1) {
			tag := strings.TrimSpace(item[1])
			if tag != "" {
				analysis.Tags = append(analysis.Tags, tag)
			}
		}
	}

	return analysis
}
