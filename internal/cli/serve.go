package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chord chart API",
		Long: `Serve chord charts and common chords over HTTP from the configured
database. Stops cleanly on interrupt.

Examples:
  chordkit serve
  chordkit serve --addr 127.0.0.1:9000 --db charts.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
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

	srv := httpapi.NewServer(st, httpapi.WithServerLogger(logger))
	logger.Info("serving chart API", "addr", opts.Addr, "database", cfg.Database)
	if err := srv.Serve(cmd.Context(), opts.Addr); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
