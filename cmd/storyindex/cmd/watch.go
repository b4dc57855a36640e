package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/slateview/storyindex/internal/config"
	"github.com/slateview/storyindex/internal/index"
	"github.com/slateview/storyindex/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	var configPath string
	var workingDir string
	var outputPath string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index whenever story or docs files change",
		Long: `Watch builds the index once, then watches the configured directories
and rebuilds incrementally as files are created, modified, or removed.
Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := loadConfig(configPath, workingDir)
			if err != nil {
				return err
			}

			gen, err := newGenerator(cfg, dir)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// Initial build. Extraction errors are logged, not fatal;
			// the watch loop will retry once the offending file changes.
			if err := rebuild(ctx, cmd, gen, outputPath, pretty); err != nil {
				slog.Warn("initial build failed", slog.String("error", err.Error()))
			}

			w, err := watcher.New(watcher.Config{
				WorkingDir: dir,
				Specifiers: cfg.Specifiers(),
				Debounce:   cfg.Watch.Debounce.Std(),
			})
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer w.Stop()

			if err := w.Start(ctx); err != nil {
				return err
			}
			slog.Info("watching for changes", slog.String("dir", dir))

			return watchLoop(ctx, cmd, gen, w.Invalidations(), outputPath, pretty)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./"+config.DefaultFileName+")")
	cmd.Flags().StringVarP(&workingDir, "dir", "d", ".", "Working directory globs resolve against")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the index to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", isatty.IsTerminal(os.Stdout.Fd()), "Indent the JSON output")

	return cmd
}

// watchLoop applies each invalidation batch to the generator and rewrites
// the index. Rebuild failures are logged rather than returned so a broken
// file does not end the session; the loop exits when ctx is cancelled or
// the batch channel closes.
func watchLoop(ctx context.Context, cmd *cobra.Command, gen *index.Generator, batches <-chan []watcher.Invalidation, outputPath string, pretty bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			for _, inv := range batch {
				gen.Invalidate(inv.Specifier, inv.Path, inv.Removed)
			}
			if err := rebuild(ctx, cmd, gen, outputPath, pretty); err != nil {
				slog.Warn("rebuild failed", slog.String("error", err.Error()))
			}
		}
	}
}
