package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateview/storyindex/internal/csf"
	"github.com/slateview/storyindex/internal/index"
	"github.com/slateview/storyindex/internal/mdx"
	"github.com/slateview/storyindex/internal/specifier"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newGenerator(t *testing.T, dir string, specs []specifier.Specifier, autodocs index.AutodocsMode) *index.Generator {
	t.Helper()
	analyzer, err := mdx.New()
	require.NoError(t, err)

	g, err := index.NewGenerator(index.Options{
		WorkingDir: dir,
		Specifiers: specs,
		Autodocs:   autodocs,
	},
		index.WithIndexers(csf.DefaultIndexers()...),
		index.WithAnalyzer(analyzer),
		index.WithComparator(index.AlphabeticalSort),
	)
	require.NoError(t, err)
	return g
}

const buttonManifest = `{
	"title": "Example/Button",
	"tags": ["autodocs"],
	"stories": [
		{"export": "primary"},
		{"export": "secondary", "name": "Secondary (outline)", "play": true}
	]
}`

func TestEndToEnd_StoriesDocsAndAutodocs(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "stories/Button.stories.json", buttonManifest)
	write(t, dir, "stories/Button.mdx", `
import * as ButtonStories from './Button.stories'

<Meta of={ButtonStories} />

Usage notes.
`)
	write(t, dir, "stories/Guide.mdx", `<Meta title="Guide" name="Overview" tags={['guide']} />`)

	specs := []specifier.Specifier{{Directory: "./stories", Files: "**/*.{stories.json,mdx}"}}
	g := newGenerator(t, dir, specs, index.AutodocsTag)

	ix, err := g.Index(context.Background())
	require.NoError(t, err)

	// The authored page wins over the generated autodocs page for the
	// same id and attaches to the story file.
	docs, ok := ix.Entries["example-button--docs"]
	require.True(t, ok, "entries: %v", ix.Entries)
	assert.Equal(t, index.TypeDocs, docs.Type)
	assert.Equal(t, "Example/Button", docs.Title)
	assert.Equal(t, "./stories/Button.mdx", docs.ImportPath)
	assert.Equal(t, []string{"./stories/Button.stories.json"}, docs.StoriesImports)
	assert.True(t, docs.HasTag("attached-mdx"))

	primary := ix.Entries["example-button--primary"]
	assert.Equal(t, "Primary", primary.Name)
	assert.True(t, primary.HasTag("autodocs"))

	secondary := ix.Entries["example-button--secondary-outline"]
	assert.Equal(t, "Secondary (outline)", secondary.Name)
	assert.True(t, secondary.HasTag("play-fn"))

	guide := ix.Entries["guide--overview"]
	assert.Equal(t, "Guide", guide.Title)
	assert.True(t, guide.HasTag("unattached-mdx"))
	assert.True(t, guide.HasTag("guide"))

	// Alphabetical order with docs leading their component.
	var ids []string
	for _, e := range ix.Order() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{
		"example-button--docs",
		"example-button--primary",
		"example-button--secondary-outline",
		"guide--overview",
	}, ids)
}

func TestEndToEnd_TitlePrefixPerSpecifier(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "app/Button.stories.json", `{"stories":[{"export":"basic"}]}`)
	write(t, dir, "lib/Input.stories.json", `{"stories":[{"export":"basic"}]}`)

	specs := []specifier.Specifier{
		{Directory: "./app", Files: "**/*.stories.json"},
		{Directory: "./lib", Files: "**/*.stories.json", TitlePrefix: "Library"},
	}
	g := newGenerator(t, dir, specs, index.AutodocsOff)

	ix, err := g.Index(context.Background())
	require.NoError(t, err)

	assert.Contains(t, ix.Entries, "button--basic")
	input, ok := ix.Entries["library-input--basic"]
	require.True(t, ok, "entries: %v", ix.Entries)
	assert.Equal(t, "Library/Input", input.Title)
}

func TestEndToEnd_IncrementalUpdate(t *testing.T) {
	dir := t.TempDir()
	storyPath := write(t, dir, "stories/Button.stories.json", buttonManifest)
	write(t, dir, "stories/Button.mdx", `
import * as ButtonStories from './Button.stories'

<Meta of={ButtonStories} />
`)

	spec := specifier.Specifier{Directory: "./stories", Files: "**/*.{stories.json,mdx}"}
	g := newGenerator(t, dir, []specifier.Specifier{spec}, index.AutodocsTag)

	_, err := g.Index(context.Background())
	require.NoError(t, err)

	// Retitle the component; the attached docs page must regroup with it.
	retitled := `{"title": "Example/PushButton", "stories": [{"export": "primary"}]}`
	require.NoError(t, os.WriteFile(storyPath, []byte(retitled), 0o644))
	g.Invalidate(spec, storyPath, false)

	ix, err := g.Index(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, ix.Entries, "example-button--primary")
	assert.Contains(t, ix.Entries, "example-pushbutton--primary")

	docs, ok := ix.Entries["example-pushbutton--docs"]
	require.True(t, ok)
	assert.Equal(t, "Example/PushButton", docs.Title)
	assert.Equal(t, "./stories/Button.mdx", docs.ImportPath)
}
