package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/library"
)

// LibraryOptions holds flags shared by the library subcommands.
type LibraryOptions struct {
	*RootOptions
	File   string
	Stored bool
}

// LibraryEntry is one chord in library list output.
type LibraryEntry struct {
	Title string   `json:"title"`
	Frets []string `json:"frets"`
}

// NewLibraryCommand creates the library command and its subcommands.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the curated chord library",
	}
	cmd.AddCommand(newLibrarySeedCommand(rootOpts))
	cmd.AddCommand(newLibraryListCommand(rootOpts))
	return cmd
}

func newLibrarySeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the library into the common chords table",
		Long: `Seed the database's common chords from the built-in library, or from a
CUE file with --file. Chords already present are skipped.

Examples:
  chordkit library seed
  chordkit library seed --file my-chords.cue --db charts.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibrarySeed(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "CUE library file (default built-in)")
	return cmd
}

func newLibraryListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library chords",
		Long: `List the chords of the built-in library, a CUE file given with --file,
or with --stored the common chords already in the database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryList(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.File, "file", "", "CUE library file (default built-in)")
	cmd.Flags().BoolVar(&opts.Stored, "stored", false, "list the database's common chords")
	return cmd
}

func loadLibrary(path string) (*library.Library, error) {
	var (
		lib *library.Library
		err error
	)
	if path == "" {
		lib, err = library.Default()
	} else {
		lib, err = library.Load(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid chord library", err)
	}
	return lib, nil
}

func runLibrarySeed(opts *LibraryOptions, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())
	lib, err := loadLibrary(opts.File)
	if err != nil {
		return err
	}
	chords, err := lib.CommonChords()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid chord library", err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := st.SeedCommon(cmd.Context(), chords)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to seed common chords", err)
	}
	logger.Debug("library seeded", "inserted", res.Inserted, "skipped", len(res.Skipped))

	formatter := opts.formatter(cmd)
	if opts.Format == "json" {
		return formatter.Success(res)
	}
	return formatter.Success(fmt.Sprintf("seeded %d chords, skipped %d", res.Inserted, len(res.Skipped)))
}

func runLibraryList(opts *LibraryOptions, cmd *cobra.Command) error {
	var entries []LibraryEntry
	if opts.Stored {
		logger := opts.logger(cmd.ErrOrStderr())
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		st, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		recs, err := st.ListCommon(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list common chords", err)
		}
		for _, r := range recs {
			d, dropped, err := r.Diagram()
			if err != nil {
				logger.Warn("unreadable common chord", "id", r.ID, "title", r.Title, "error", err)
				continue
			}
			if len(dropped) > 0 {
				logger.Warn("skipped malformed fingers", "id", r.ID, "count", len(dropped))
			}
			entries = append(entries, LibraryEntry{Title: r.Title, Frets: d.Frets()})
		}
	} else {
		lib, err := loadLibrary(opts.File)
		if err != nil {
			return err
		}
		for _, c := range lib.Chords {
			d, err := c.Diagram()
			if err != nil {
				return WrapExitError(ExitFailure, "invalid chord library", err)
			}
			entries = append(entries, LibraryEntry{Title: c.Title, Frets: d.Frets()})
		}
	}

	formatter := opts.formatter(cmd)
	if opts.Format == "json" {
		if entries == nil {
			entries = []LibraryEntry{}
		}
		return formatter.Success(entries)
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-8s %s\n", e.Title, strings.Join(e.Frets, " "))
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}
