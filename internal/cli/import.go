package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/library"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	BatchSize int
	Delay     time.Duration
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <collection.json>",
		Short: "Import a chord collection into the common chords",
		Long: `Import a JSON chord collection of the form
  {"Am": [{"positions": ["x","0","2","2","1","0"]}], ...}

Chords whose name already exists are skipped. Writes happen in batches with a
pause between them; rate-limited batches are retried with backoff.

Examples:
  chordkit import chords.json
  chordkit import chords.json --batch-size 100 --delay 500ms`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 50, "chords per batch")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 2*time.Second, "pause between batches")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open collection", err)
	}
	defer f.Close()

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	im := library.NewImporter(st,
		library.WithBatchSize(opts.BatchSize),
		library.WithBatchDelay(opts.Delay),
		library.WithImportLogger(logger),
	)
	res, err := im.Import(cmd.Context(), f)
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}

	formatter := opts.formatter(cmd)
	if opts.Format == "json" {
		return formatter.Success(res)
	}
	for _, s := range res.Skipped {
		formatter.VerboseLog("skipped %s", s)
	}
	for _, s := range res.Failed {
		fmt.Fprintf(formatter.GetErrWriter(), "failed %s\n", s)
	}
	return formatter.Success(fmt.Sprintf("imported %d, skipped %d, failed %d",
		len(res.Imported), len(res.Skipped), len(res.Failed)))
}
