package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateview/storyindex/internal/index"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Version)
	require.Len(t, cfg.Stories, 1)
	assert.Equal(t, "./stories", cfg.Stories[0].Directory)
	assert.Equal(t, index.AutodocsTag, cfg.Docs.Autodocs.Mode)
	assert.Equal(t, index.DefaultDocsName, cfg.Docs.DefaultName)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: 1
stories:
  - directory: ./src
    files: "**/*.stories.json"
    titlePrefix: Lib
  - directory: ./docs
    files: "**/*.mdx"
docs:
  autodocs: all
  defaultName: Info
watch:
  debounce: 500ms
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Stories, 2)
	assert.Equal(t, "Lib", cfg.Stories[0].TitlePrefix)
	assert.Equal(t, index.AutodocsAll, cfg.Docs.Autodocs.Mode)
	assert.Equal(t, "Info", cfg.Docs.DefaultName)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultsFillMissingFields(t *testing.T) {
	path := writeConfig(t, `
stories:
  - directory: ./src
    files: "**/*.stories.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, index.AutodocsTag, cfg.Docs.Autodocs.Mode)
	assert.Equal(t, index.DefaultDocsName, cfg.Docs.DefaultName)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce.Std())
}

func TestAutodocsSetting_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		mode    index.AutodocsMode
		wantErr bool
	}{
		{name: "string off", value: "off", mode: index.AutodocsOff},
		{name: "string tag", value: "tag", mode: index.AutodocsTag},
		{name: "string all", value: "all", mode: index.AutodocsAll},
		{name: "legacy true", value: "true", mode: index.AutodocsAll},
		{name: "legacy false", value: "false", mode: index.AutodocsOff},
		{name: "invalid", value: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, `
stories:
  - directory: ./src
    files: "*"
docs:
  autodocs: `+tt.value+"\n")

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, cfg.Docs.Autodocs.Mode)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "stories: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "no stories",
			mutate:  func(c *Config) { c.Stories = nil },
			wantErr: "no stories",
		},
		{
			name:    "missing directory",
			mutate:  func(c *Config) { c.Stories[0].Directory = "" },
			wantErr: "directory is required",
		},
		{
			name:    "missing files",
			mutate:  func(c *Config) { c.Stories[0].Files = "" },
			wantErr: "files pattern is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	original := Default()
	original.Docs.Autodocs.Mode = index.AutodocsAll
	original.Stories[0].TitlePrefix = "Lib"
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		dir := t.TempDir()
		content := "stories:\n  - directory: ./other\n    files: \"*\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0o644))

		cfg, err := LoadOrDefault(dir)
		require.NoError(t, err)
		require.Len(t, cfg.Stories, 1)
		assert.Equal(t, "./other", cfg.Stories[0].Directory)
	})
}

func TestSpecifiers_PreserveOrder(t *testing.T) {
	cfg := &Config{Stories: []StoriesEntry{
		{Directory: "./b", Files: "*"},
		{Directory: "./a", Files: "*", TitlePrefix: "A"},
	}}

	specs := cfg.Specifiers()
	require.Len(t, specs, 2)
	assert.Equal(t, "./b", specs[0].Directory)
	assert.Equal(t, "./a", specs[1].Directory)
	assert.Equal(t, "A", specs[1].TitlePrefix)
}

func TestGeneratorOptions(t *testing.T) {
	cfg := Default()
	cfg.Docs.Autodocs.Mode = index.AutodocsAll
	cfg.Docs.DefaultName = "Info"

	opts := cfg.GeneratorOptions("/project")
	assert.Equal(t, "/project", opts.WorkingDir)
	assert.Equal(t, index.AutodocsAll, opts.Autodocs)
	assert.Equal(t, "Info", opts.DocsDefaultName)
	require.Len(t, opts.Specifiers, 1)
}
