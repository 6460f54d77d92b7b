package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/library"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationOutput is the JSON payload of the validate command.
type ValidationOutput struct {
	Valid    bool              `json:"valid"`
	Files    int               `json:"files"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// ValidationIssue is one problem in one file.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check diagram documents and chord libraries",
		Long: `Validate files by extension:
  .json  stored diagram documents, checked against the diagram schema
  .cue   chord libraries

A malformed finger entry is a warning since readers drop it. Any schema
error makes the command exit with status 1.

Examples:
  chordkit validate am.json f.json
  chordkit validate chords.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	out := ValidationOutput{Valid: true, Files: len(paths), Errors: []ValidationIssue{}, Warnings: []ValidationIssue{}}
	fail := func(file, msg string) {
		out.Valid = false
		out.Errors = append(out.Errors, ValidationIssue{File: file, Message: msg})
	}

	for _, path := range paths {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".cue":
			if _, err := library.Load(path); err != nil {
				fail(path, err.Error())
			}
		case ".json":
			data, err := os.ReadFile(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read file", err)
			}
			if err := library.ValidateDiagram(path, data); err != nil {
				fail(path, err.Error())
				continue
			}
			_, dropped, err := diagram.Decode(data)
			if err != nil {
				fail(path, err.Error())
				continue
			}
			for _, de := range dropped {
				out.Warnings = append(out.Warnings, ValidationIssue{File: path, Message: de.Error()})
			}
		default:
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: unsupported file type (want .json or .cue)", path))
		}
	}

	formatter := opts.formatter(cmd)
	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for _, w := range out.Warnings {
			fmt.Fprintf(&b, "warning: %s: %s\n", w.File, w.Message)
		}
		for _, e := range out.Errors {
			fmt.Fprintf(&b, "error: %s: %s\n", e.File, e.Message)
		}
		if out.Valid {
			fmt.Fprintf(&b, "✓ %d file(s) valid", out.Files)
		} else {
			fmt.Fprintf(&b, "✗ %d of %d file(s) invalid", countFiles(out.Errors), out.Files)
		}
		if err := formatter.Success(b.String()); err != nil {
			return err
		}
	}
	if !out.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func countFiles(issues []ValidationIssue) int {
	seen := make(map[string]bool)
	for _, i := range issues {
		seen[i.File] = true
	}
	return len(seen)
}
