// Package config loads and validates the storyindex project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slateview/storyindex/internal/index"
	"github.com/slateview/storyindex/internal/specifier"
)

// DefaultFileName is the project configuration file name.
const DefaultFileName = ".storyindex.yaml"

// Config represents the complete storyindex configuration.
type Config struct {
	Version int            `yaml:"version"`
	Stories []StoriesEntry `yaml:"stories"`
	Docs    DocsConfig     `yaml:"docs"`
	Watch   WatchConfig    `yaml:"watch"`
	Log     LogConfig      `yaml:"log"`
}

// StoriesEntry configures one specifier.
type StoriesEntry struct {
	Directory   string `yaml:"directory"`
	Files       string `yaml:"files"`
	TitlePrefix string `yaml:"titlePrefix"`
}

// DocsConfig configures documentation-entry generation.
type DocsConfig struct {
	// Autodocs controls generated documentation pages: off, tag, or all.
	// YAML booleans are accepted for compatibility: true means all,
	// false means off.
	Autodocs AutodocsSetting `yaml:"autodocs"`

	// DefaultName names generated documentation pages (default "Docs").
	DefaultName string `yaml:"defaultName"`
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	// Debounce is the quiet period before change notifications are
	// delivered (default 200ms).
	Debounce Duration `yaml:"debounce"`
}

// Duration adapts time.Duration to YAML, accepting Go duration strings
// ("200ms") as well as plain integers (nanoseconds).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string like 200ms or an integer")
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AutodocsSetting adapts the autodocs mode to YAML, accepting both the
// string form (off/tag/all) and legacy booleans.
type AutodocsSetting struct {
	Mode index.AutodocsMode
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AutodocsSetting) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			a.Mode = index.AutodocsAll
		} else {
			a.Mode = index.AutodocsOff
		}
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("autodocs must be a boolean or one of off, tag, all")
	}
	switch index.AutodocsMode(s) {
	case index.AutodocsOff, index.AutodocsTag, index.AutodocsAll:
		a.Mode = index.AutodocsMode(s)
		return nil
	default:
		return fmt.Errorf("invalid autodocs mode %q (expected off, tag, or all)", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (a AutodocsSetting) MarshalYAML() (interface{}, error) {
	if a.Mode == "" {
		return string(index.AutodocsOff), nil
	}
	return string(a.Mode), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Stories: []StoriesEntry{
			{Directory: "./stories", Files: "**/*.stories.{json,yaml,yml}"},
		},
		Docs: DocsConfig{
			Autodocs:    AutodocsSetting{Mode: index.AutodocsTag},
			DefaultName: index.DefaultDocsName,
		},
		Watch: WatchConfig{Debounce: Duration(200 * time.Millisecond)},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads the configuration file at path. Missing optional fields are
// filled with defaults; a missing file is an error.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	cfg.Stories = nil
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration from dir, falling back to defaults
// when no config file exists.
func LoadOrDefault(dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to path in YAML form.
func (c *Config) Save(path string) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// applyDefaults fills zero-valued optional fields.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Docs.DefaultName == "" {
		c.Docs.DefaultName = index.DefaultDocsName
	}
	if c.Docs.Autodocs.Mode == "" {
		c.Docs.Autodocs.Mode = index.AutodocsTag
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = Duration(200 * time.Millisecond)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for defects.
func (c *Config) Validate() error {
	if len(c.Stories) == 0 {
		return fmt.Errorf("config declares no stories specifiers")
	}
	for i, s := range c.Stories {
		if s.Directory == "" {
			return fmt.Errorf("stories[%d]: directory is required", i)
		}
		if s.Files == "" {
			return fmt.Errorf("stories[%d]: files pattern is required", i)
		}
	}
	return nil
}

// Specifiers converts the configured stories entries into specifiers,
// preserving configuration order.
func (c *Config) Specifiers() []specifier.Specifier {
	specs := make([]specifier.Specifier, 0, len(c.Stories))
	for _, s := range c.Stories {
		specs = append(specs, specifier.Specifier{
			Directory:   s.Directory,
			Files:       s.Files,
			TitlePrefix: s.TitlePrefix,
		})
	}
	return specs
}

// GeneratorOptions translates the configuration into index generator options.
func (c *Config) GeneratorOptions(workingDir string) index.Options {
	return index.Options{
		WorkingDir:      workingDir,
		ConfigDir:       workingDir,
		Specifiers:      c.Specifiers(),
		Autodocs:        c.Docs.Autodocs.Mode,
		DocsDefaultName: c.Docs.DefaultName,
	}
}
