// Package csf provides the built-in per-file indexers for story manifests.
//
// A story manifest declares a component's example stories as plain data:
//
//	title: Example/Button
//	tags: [autodocs]
//	stories:
//	  - export: primary
//	  - export: secondary
//	    name: Secondary (outline)
//	    play: true
//
// JSON manifests (*.stories.json) carry the same shape. The index core
// treats indexers as a pluggable capability; these two cover the formats
// the CLI supports out of the box.
package csf

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slateview/storyindex/internal/index"
)

// manifest is the on-disk shape shared by the JSON and YAML indexers.
type manifest struct {
	Title   string          `json:"title" yaml:"title"`
	ID      string          `json:"id" yaml:"id"`
	Tags    []string        `json:"tags" yaml:"tags"`
	Stories []manifestStory `json:"stories" yaml:"stories"`
}

type manifestStory struct {
	Export string   `json:"export" yaml:"export"`
	Name   string   `json:"name" yaml:"name"`
	Tags   []string `json:"tags" yaml:"tags"`
	Play   bool     `json:"play" yaml:"play"`
}

// toRaw converts a parsed manifest into raw story descriptors.
func (m manifest) toRaw(path string, input index.IndexInput) ([]index.RawStory, error) {
	title := input.MakeTitle(m.Title)

	raws := make([]index.RawStory, 0, len(m.Stories))
	for _, s := range m.Stories {
		if s.Export == "" && s.Name == "" {
			return nil, fmt.Errorf("story in %s has neither export nor name", path)
		}
		raws = append(raws, index.RawStory{
			ExportName: s.Export,
			Name:       s.Name,
			Title:      title,
			MetaID:     m.ID,
			Tags:       s.Tags,
			MetaTags:   m.Tags,
			HasPlay:    s.Play,
		})
	}
	return raws, nil
}

// JSONIndexer handles *.stories.json manifests.
type JSONIndexer struct{}

// Match reports whether the path is a JSON story manifest.
func (JSONIndexer) Match(path string) bool {
	return strings.HasSuffix(path, ".stories.json")
}

// CreateIndex parses the manifest and returns its raw story descriptors.
func (JSONIndexer) CreateIndex(path string, input index.IndexInput) ([]index.RawStory, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("invalid story manifest: %w", err)
	}
	return m.toRaw(path, input)
}

// YAMLIndexer handles *.stories.yaml and *.stories.yml manifests.
type YAMLIndexer struct{}

// Match reports whether the path is a YAML story manifest.
func (YAMLIndexer) Match(path string) bool {
	return strings.HasSuffix(path, ".stories.yaml") || strings.HasSuffix(path, ".stories.yml")
}

// CreateIndex parses the manifest and returns its raw story descriptors.
func (YAMLIndexer) CreateIndex(path string, input index.IndexInput) ([]index.RawStory, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("invalid story manifest: %w", err)
	}
	return m.toRaw(path, input)
}

// DefaultIndexers returns the built-in indexer registry in match order.
func DefaultIndexers() []index.Indexer {
	return []index.Indexer{JSONIndexer{}, YAMLIndexer{}}
}
