//go:build ignore

// Generates a synthetic story corpus for benchmarking the indexer.
// Usage: go run scripts/generate-story-corpus.go -components 500 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numComponents = flag.Int("components", 500, "Number of components to generate")
	outputDir     = flag.String("output", "testdata/bench", "Output directory")
	docsRatio     = flag.Float64("docs", 0.3, "Fraction of components with an authored docs page")
	seed          = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var groups = []string{"Forms", "Layout", "Navigation", "Feedback", "DataDisplay", "Overlays"}

var exports = []string{"primary", "secondary", "disabled", "loading", "withIcon", "compact", "fullWidth"}

const manifestTemplate = `{
  "title": "%s/%s",
  "tags": [%s],
  "stories": [
%s  ]
}
`

const docsTemplate = `import * as Stories from './%s.stories'

<Meta of={Stories} />

Usage notes for %s.
`

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *numComponents; i++ {
		group := groups[rng.Intn(len(groups))]
		name := fmt.Sprintf("Component%04d", i)
		dir := filepath.Join(*outputDir, group)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		tags := `"autodocs"`
		if rng.Float64() < 0.2 {
			tags = ""
		}

		count := 1 + rng.Intn(5)
		stories := ""
		for j := 0; j < count; j++ {
			comma := ","
			if j == count-1 {
				comma = ""
			}
			play := ""
			if rng.Float64() < 0.15 {
				play = `, "play": true`
			}
			stories += fmt.Sprintf("    {\"export\": %q%s}%s\n", exports[j%len(exports)], play, comma)
		}

		manifest := fmt.Sprintf(manifestTemplate, group, name, tags, stories)
		path := filepath.Join(dir, name+".stories.json")
		if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		if rng.Float64() < *docsRatio {
			docs := fmt.Sprintf(docsTemplate, name, name)
			if err := os.WriteFile(filepath.Join(dir, name+".mdx"), []byte(docs), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("generated %d components in %s\n", *numComponents, *outputDir)
}
