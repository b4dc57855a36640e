package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/slateview/storyindex/internal/config"
	"github.com/slateview/storyindex/internal/csf"
	"github.com/slateview/storyindex/internal/index"
	"github.com/slateview/storyindex/internal/mdx"
)

// newBuildCmd creates the build command.
func newBuildCmd() *cobra.Command {
	var configPath string
	var workingDir string
	var outputPath string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the story index once and print it",
		Long: `Build resolves every configured story glob, extracts stories and
documentation entries, and writes the resulting index as JSON to stdout
or to the file given with --output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := loadConfig(configPath, workingDir)
			if err != nil {
				return err
			}

			gen, err := newGenerator(cfg, dir)
			if err != nil {
				return err
			}

			idx, err := gen.Index(cmd.Context())
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}

			return writeIndex(cmd, idx, outputPath, pretty)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./"+config.DefaultFileName+")")
	cmd.Flags().StringVarP(&workingDir, "dir", "d", ".", "Working directory globs resolve against")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the index to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", isatty.IsTerminal(os.Stdout.Fd()), "Indent the JSON output")

	return cmd
}

// loadConfig loads the configuration, falling back to defaults when no
// config file exists.
func loadConfig(configPath, workingDir string) (*config.Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	if workingDir != "" && workingDir != "." {
		dir = workingDir
	}

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, dir, nil
	}

	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

// newGenerator wires the configured specifiers with the built-in story
// indexers and docs analyzer.
func newGenerator(cfg *config.Config, workingDir string) (*index.Generator, error) {
	analyzer, err := mdx.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create docs analyzer: %w", err)
	}

	gen, err := index.NewGenerator(cfg.GeneratorOptions(workingDir),
		index.WithIndexers(csf.DefaultIndexers()...),
		index.WithAnalyzer(analyzer),
		index.WithComparator(index.AlphabeticalSort),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return gen, nil
}

// writeIndex encodes the index as JSON to outputPath or stdout.
func writeIndex(cmd *cobra.Command, idx *index.Index, outputPath string, pretty bool) error {
	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(idx)
}

// rebuild regenerates the index and writes it, logging instead of
// failing so the watch loop survives transient extraction errors.
func rebuild(ctx context.Context, cmd *cobra.Command, gen *index.Generator, outputPath string, pretty bool) error {
	idx, err := gen.Index(ctx)
	if err != nil {
		return err
	}
	return writeIndex(cmd, idx, outputPath, pretty)
}
