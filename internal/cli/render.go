package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/render"
	"github.com/roach88/chordkit/internal/surface"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output  string
	Surface string
	Watch   bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <diagram.json>",
		Short: "Draw a diagram as SVG, PNG or text",
		Long: `Draw a stored diagram. The input may use either finger encoding;
malformed finger entries are skipped with a warning.

Examples:
  chordkit render am.json -o am.svg
  chordkit render am.json --surface png -o am.png
  chordkit render am.json --surface text
  chordkit render am.json -o am.svg --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Surface, "surface", "svg", "drawing surface (svg|png|text)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "redraw whenever the input file changes")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())
	renderer, err := surface.ForFormat(opts.Surface)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid surface", err)
	}
	draw := func() error {
		return renderOnce(renderer, path, opts.Output, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	}
	if err := draw(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	if path == "-" {
		return NewExitError(ExitCommandError, "--watch needs a file, not stdin")
	}

	w, err := newFileWatcher(path, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch file", err)
	}
	defer w.Close()
	logger.Info("watching for changes", "path", path)
	return w.Run(cmd.Context(), func() {
		if err := draw(); err != nil {
			logger.Warn("redraw failed", "path", path, "error", err)
		}
	})
}

// renderOnce draws the diagram at path to output, or to stdout when output
// is empty.
func renderOnce(r surface.Renderer, path, output string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	d, dropped, err := readDiagram(path, stdin)
	if err != nil {
		return err
	}
	for _, de := range dropped {
		logger.Warn("skipped malformed finger", "path", path, "index", de.Index, "reason", de.Reason)
	}

	var buf bytes.Buffer
	if _, err := r.Render(&buf, render.ConfigFor(d, render.DefaultStyle), render.ToChordData(d)); err != nil {
		return WrapExitError(ExitFailure, "failed to draw diagram", err)
	}
	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	logger.Debug("diagram drawn", "path", path, "output", output, "bytes", buf.Len())
	return nil
}

// fileWatcher reports writes to one file. It watches the parent directory so
// editors that replace the file on save are still seen.
type fileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

func newFileWatcher(path string, logger *slog.Logger) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &fileWatcher{path: abs, watcher: w, logger: logger}, nil
}

// Run calls fn after each write or re-creation of the file until ctx ends.
func (w *fileWatcher) Run(ctx context.Context, fn func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			fn()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *fileWatcher) Close() error { return w.watcher.Close() }
