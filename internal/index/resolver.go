package index

import (
	"fmt"

	interrors "github.com/slateview/storyindex/internal/errors"
)

// resolveDuplicate merges or rejects two processed entries colliding on id.
// existing was seen first. The tie-break policy, evaluated in order:
//
//  1. Identical import paths: the same file was matched by multiple
//     specifiers; keep the first seen.
//  2. Story vs docs: the story wins. Losing a generated documentation page
//     is expected; losing an authored one is a conflict.
//  3. Docs vs docs where one is authored: the authored documentation-markup
//     entry wins; two authored entries are always a conflict.
//  4. Two generated documentation pages (two story files sharing a title):
//     merged, with the loser's stories folded into the winner's
//     storiesImports so downstream rendering loads both sets.
func resolveDuplicate(existing, incoming Entry) (Entry, error) {
	if existing.ImportPath == incoming.ImportPath {
		return existing, nil
	}

	if existing.Type != incoming.Type {
		story, docs := existing, incoming
		if story.Type != TypeStory {
			story, docs = incoming, existing
		}
		// A generated page (never fromDocsFile, always the default name)
		// loses silently; an authored page colliding with a story is a
		// coincidence the author must resolve.
		if docs.fromDocsFile() {
			return existing, interrors.Duplicate(
				fmt.Sprintf("duplicate entry id %q between a story and an authored documentation page", existing.ID),
				existing.ImportPath, incoming.ImportPath)
		}
		return story, nil
	}

	if existing.Type == TypeStory {
		return existing, interrors.Duplicate(
			fmt.Sprintf("duplicate story id %q", existing.ID),
			existing.ImportPath, incoming.ImportPath)
	}

	// Both docs from here on.
	switch {
	case existing.fromDocsFile() && incoming.fromDocsFile():
		return existing, interrors.Duplicate(
			fmt.Sprintf("ambiguous documentation page name %q", existing.Name),
			existing.ImportPath, incoming.ImportPath)
	case existing.fromDocsFile():
		return existing, nil
	case incoming.fromDocsFile():
		return incoming, nil
	}

	// Two generated pages triggered by story files sharing a title: the
	// winner keeps its identity and import path, extended with the loser's
	// stories in first-seen order.
	merged := existing
	imports := make([]string, 0, len(existing.StoriesImports)+1+len(incoming.StoriesImports))
	imports = append(imports, existing.StoriesImports...)
	imports = append(imports, incoming.ImportPath)
	imports = append(imports, incoming.StoriesImports...)
	merged.StoriesImports = dedupeTags(imports)
	return merged, nil
}
