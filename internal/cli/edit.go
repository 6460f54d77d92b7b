package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/config"
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/library"
	"github.com/roach88/chordkit/internal/store"
	"github.com/roach88/chordkit/internal/tui"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	ItemID  string
	ChartID int64
	Title   string
	Strings int
	Frets   int
	LogFile string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit [diagram.json]",
		Short: "Edit a chord diagram in the terminal",
		Long: `Open the interactive editor. A missing file starts from an empty
diagram sized by the config. Saving writes the file and, with --item, adds
the chart to that item in the database. With --chart, the stored chart is
loaded and saving updates it in place.

Examples:
  chordkit edit am.json
  chordkit edit --item song-42 --title "Am7"
  chordkit edit --chart 17
  chordkit edit ukulele.json --strings 4 --frets 5`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runEdit(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ItemID, "item", "", "item to save the chart under and search first on lookup")
	cmd.Flags().Int64Var(&opts.ChartID, "chart", 0, "stored chart to load and update on save")
	cmd.Flags().StringVar(&opts.Title, "title", "", "set the diagram title")
	cmd.Flags().IntVar(&opts.Strings, "strings", 0, "resize to this many strings before editing")
	cmd.Flags().IntVar(&opts.Frets, "frets", 0, "resize to this many frets before editing")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs here while the editor runs")

	return cmd
}

func runEdit(opts *EditOptions, path string, cmd *cobra.Command) error {
	if path == "" && opts.ItemID == "" && opts.ChartID == 0 {
		return NewExitError(ExitCommandError, "nothing to save to: give a file, --item or --chart")
	}
	if path == "-" {
		return NewExitError(ExitCommandError, "the editor needs the terminal; give a file instead of stdin")
	}
	if opts.ChartID < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid chart id: %d", opts.ChartID))
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := opts.logger(logOut)

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	target := tui.Target{ChartID: opts.ChartID}
	itemID := opts.ItemID
	var d diagram.Diagram
	if target.IsNew() {
		d, err = startingDiagram(cfg, path, logger)
	} else {
		d, itemID, err = storedDiagram(ctx, st, target.ChartID, itemID, logger)
	}
	if err != nil {
		return err
	}
	if opts.Title != "" {
		d = d.WithTitle(opts.Title)
	}
	if opts.Strings > 0 || opts.Frets > 0 {
		ns, nf := d.NumStrings(), d.NumFrets()
		if opts.Strings > 0 {
			ns = opts.Strings
		}
		if opts.Frets > 0 {
			nf = opts.Frets
		}
		d, err = d.Resize(ns, nf, cfg.ResizePolicy())
		if err != nil {
			return WrapExitError(ExitFailure, "cannot resize diagram", err)
		}
	}

	lib, err := library.Default()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load chord library", err)
	}
	resolver := autofill.New(
		autofill.Chain{store.Source{Store: st}, library.Source{Library: lib}},
		autofill.WithPolicy(cfg.Retry.Policy()),
		autofill.WithLogger(logger),
	)

	saver := chartSaver{store: st, path: path, itemID: itemID, logger: logger}
	final, saved, err := tui.Run(ctx, d,
		tui.WithItemID(itemID),
		tui.WithTarget(target),
		tui.WithResolver(resolver),
		tui.WithLogger(logger),
		tui.WithOnSave(func(d diagram.Diagram, t tui.Target) error {
			return saver.save(ctx, d, t)
		}),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "editor failed", err)
	}
	if !saved {
		opts.formatter(cmd).VerboseLog("closed without saving")
		return nil
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]any{
			"saved":   true,
			"path":    path,
			"item":    itemID,
			"chart":   opts.ChartID,
			"diagram": final,
		})
	}
	return opts.formatter(cmd).Success(final.Grid().String())
}

// storedDiagram loads chart id and returns it with the item it belongs to.
// An explicit item that disagrees with the chart's own is rejected.
func storedDiagram(ctx context.Context, st *store.Store, id int64, itemID string, logger *slog.Logger) (diagram.Diagram, string, error) {
	rec, err := st.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return diagram.Diagram{}, "", WrapExitError(ExitFailure, "cannot edit chart", err)
		}
		return diagram.Diagram{}, "", WrapExitError(ExitCommandError, "failed to load chart", err)
	}
	if itemID != "" && itemID != rec.ItemID {
		return diagram.Diagram{}, "", NewExitError(ExitCommandError,
			fmt.Sprintf("chart %d belongs to item %q, not %q", id, rec.ItemID, itemID))
	}
	d, dropped, err := rec.Diagram()
	if err != nil {
		return diagram.Diagram{}, "", WrapExitError(ExitFailure, "stored chart is unreadable", err)
	}
	for _, de := range dropped {
		logger.Warn("skipped malformed finger", "chart", id, "index", de.Index, "reason", de.Reason)
	}
	return d, rec.ItemID, nil
}

// chartSaver writes a saved diagram to the file and the database.
type chartSaver struct {
	store  *store.Store
	path   string
	itemID string
	logger *slog.Logger
}

// save updates the target chart in place, or creates one under the item
// when the target is new.
func (cs chartSaver) save(ctx context.Context, d diagram.Diagram, target tui.Target) error {
	if cs.path != "" {
		if err := writeDiagram(cs.path, d); err != nil {
			return err
		}
	}
	if !target.IsNew() {
		rec, err := cs.store.Update(ctx, target.ChartID, d)
		if err != nil {
			return err
		}
		cs.logger.Info("chart updated", "item", rec.ItemID, "id", rec.ID)
		return nil
	}
	if cs.itemID == "" {
		return nil
	}
	rec, err := cs.store.Create(ctx, cs.itemID, d)
	if err != nil {
		return err
	}
	cs.logger.Info("chart saved", "item", cs.itemID, "id", rec.ID)
	return nil
}

// startingDiagram reads path when it exists and otherwise returns a new
// diagram from the config.
func startingDiagram(cfg config.Config, path string, logger *slog.Logger) (diagram.Diagram, error) {
	if path != "" {
		d, dropped, err := readDiagram(path, nil)
		if err == nil {
			for _, de := range dropped {
				logger.Warn("skipped malformed finger", "path", path, "index", de.Index, "reason", de.Reason)
			}
			return d, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return diagram.Diagram{}, err
		}
	}
	d, err := cfg.NewDiagram()
	if err != nil {
		return diagram.Diagram{}, WrapExitError(ExitCommandError, "invalid editor config", err)
	}
	return d, nil
}
