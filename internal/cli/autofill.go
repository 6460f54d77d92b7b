package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/config"
	"github.com/roach88/chordkit/internal/httpapi"
	"github.com/roach88/chordkit/internal/library"
	"github.com/roach88/chordkit/internal/store"
)

// Lookup backends for the autofill command.
const (
	sourceLibrary = "library"
	sourceDB      = "db"
	sourceAPI     = "api"
)

// AutofillOptions holds flags for the autofill command.
type AutofillOptions struct {
	*RootOptions
	ItemID string
	Source string
}

// AutofillOutput is the JSON payload of the autofill command.
type AutofillOutput struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Frets   []string `json:"frets"`
	Diagram any      `json:"diagram"`
}

// NewAutofillCommand creates the autofill command.
func NewAutofillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AutofillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "autofill <chord-name>",
		Short: "Look up a chord by name",
		Long: `Resolve a chord name to a diagram. The item's own charts are searched
first (most recent wins), then the common chords.

The default source is the chart server when api.base_url is configured and
the local database otherwise.

Examples:
  chordkit autofill Am
  chordkit autofill "C#m7" --item song-42
  chordkit autofill G --source library --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutofill(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ItemID, "item", "", "search this item's saved charts first")
	cmd.Flags().StringVar(&opts.Source, "source", "", "lookup backend (library|db|api)")

	return cmd
}

func runAutofill(opts *AutofillOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	source := opts.Source
	if source == "" {
		source = sourceDB
		if cfg.API.BaseURL != "" {
			source = sourceAPI
		}
	}

	src, closeSrc, err := lookupSource(cfg, source, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	resolver := autofill.New(src, autofill.WithPolicy(cfg.Retry.Policy()), autofill.WithLogger(logger))
	d, err := resolver.Resolve(cmd.Context(), opts.ItemID, name)
	if err != nil {
		code := ErrCodeLookup
		if autofill.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		if opts.Format == "json" {
			_ = formatter.Error(code, err.Error(), map[string]string{"name": name, "source": source})
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("lookup %q failed", name), err)
	}

	if opts.Format == "json" {
		return formatter.Success(AutofillOutput{Name: name, Source: source, Frets: d.Frets(), Diagram: d})
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", d.Title, strings.Join(d.Frets(), " "))
	b.WriteString(d.Grid().String())
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

// lookupSource opens the named backend. The returned func releases it.
func lookupSource(cfg config.Config, name string, logger *slog.Logger) (autofill.Source, func(), error) {
	switch name {
	case sourceLibrary:
		lib, err := library.Default()
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to load chord library", err)
		}
		return library.Source{Library: lib}, func() {}, nil
	case sourceDB:
		st, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.Source{Store: st}, closeStore, nil
	case sourceAPI:
		if cfg.API.BaseURL == "" {
			return nil, nil, NewExitError(ExitCommandError, "api.base_url is not configured")
		}
		client := httpapi.NewClient(cfg.API.BaseURL, httpapi.WithTimeout(cfg.API.Timeout))
		return httpapi.Source{Client: client}, func() {}, nil
	default:
		return nil, nil, NewExitError(ExitCommandError,
			fmt.Sprintf("unknown source %q: must be one of library, db, api", name))
	}
}
