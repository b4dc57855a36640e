package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTitles(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int // sign only
	}{
		{name: "equal", a: "App/Button", b: "App/Button", want: 0},
		{name: "segment order", a: "App/Button", b: "App/Card", want: -1},
		{name: "parent before child", a: "App", b: "App/Button", want: -1},
		{name: "segment boundary beats prefix", a: "App/Button", b: "Apparel", want: -1},
		{name: "case insensitive", a: "app/button", b: "App/Card", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareTitles(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestAlphabeticalSort(t *testing.T) {
	docs := Entry{Type: TypeDocs, Title: "App/Button", Name: "Docs"}
	primary := Entry{Type: TypeStory, Title: "App/Button", Name: "Primary"}
	secondary := Entry{Type: TypeStory, Title: "App/Button", Name: "Secondary"}
	card := Entry{Type: TypeStory, Title: "App/Card", Name: "Basic"}

	t.Run("titles order first", func(t *testing.T) {
		assert.Negative(t, AlphabeticalSort(primary, card))
		assert.Positive(t, AlphabeticalSort(card, primary))
	})

	t.Run("docs lead their stories", func(t *testing.T) {
		assert.Negative(t, AlphabeticalSort(docs, primary))
		assert.Positive(t, AlphabeticalSort(primary, docs))
	})

	t.Run("name breaks the tie", func(t *testing.T) {
		assert.Negative(t, AlphabeticalSort(primary, secondary))
	})
}

func TestSortEntries_NoComparatorKeepsDiscoveryOrder(t *testing.T) {
	g := &Generator{}
	entries := []Entry{
		{Type: TypeStory, ID: "z--one", Title: "Z", Name: "One"},
		{Type: TypeStory, ID: "a--two", Title: "A", Name: "Two"},
	}
	g.sortEntries(entries)
	assert.Equal(t, "z--one", entries[0].ID)
	assert.Equal(t, "a--two", entries[1].ID)
}

func TestSortEntries_ComparatorTiesKeepDiscoveryOrder(t *testing.T) {
	g := &Generator{comparator: func(a, b Entry) int { return 0 }}
	entries := []Entry{
		{Type: TypeStory, ID: "first"},
		{Type: TypeStory, ID: "second"},
		{Type: TypeStory, ID: "third"},
	}
	g.sortEntries(entries)
	assert.Equal(t, []Entry{{Type: TypeStory, ID: "first"}, {Type: TypeStory, ID: "second"}, {Type: TypeStory, ID: "third"}}, entries)
}
