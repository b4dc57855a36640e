package index

import (
	"sort"
	"strings"
)

// sortEntries produces the final deterministic ordering. Entries arrive in
// flatten order, which is already file-discovery order with in-file order
// preserved, so the no-comparator case and every comparator tie fall back to
// discovery order, never to map-iteration order. The sort is stable, making
// the combined order total.
func (g *Generator) sortEntries(entries []Entry) {
	if g.comparator == nil {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return g.comparator(entries[i], entries[j]) < 0
	})
}

// AlphabeticalSort orders entries by title path segment by segment, then by
// name, keeping a docs entry ahead of the stories it documents.
func AlphabeticalSort(a, b Entry) int {
	if c := compareTitles(a.Title, b.Title); c != 0 {
		return c
	}
	if a.Type != b.Type {
		if a.Type == TypeDocs {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

// compareTitles compares slash-delimited grouping paths segment by segment,
// so "App/Button" sorts under "App" rather than between "App" and "Apparel".
func compareTitles(a, b string) int {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(strings.ToLower(as[i]), strings.ToLower(bs[i])); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}
