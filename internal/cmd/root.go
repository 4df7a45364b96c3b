// Package cmd implements the mdtest command line.
package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"github.com/ezerfernandes/mdtest/internal/engine"
	"github.com/ezerfernandes/mdtest/internal/suite"
	"github.com/spf13/cobra"
)

//go:embed help/root.md
var rootHelp string

var (
	errFailed            = errors.New("examples failed")
	errInvalidColor      = errors.New("invalid color mode")
	errUnknownOptionFlag = errors.New("unknown option flag")
)

// Exit codes of Execute.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

// Execute runs the command line given by args and returns the process exit
// code.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(context.Background(), new(options), args, stdout, stderr)
}

func execute(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) int {
	root := rootCmd(opts)

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFailed):
		return exitFailed
	default:
		fmt.Fprintln(stderr, "Error:", err)

		return exitError
	}
}

func rootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:   "mdtest [flags]",
		Short: "Run the interactive examples embedded in Markdown documents",
		Long:  rootHelp,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.applyConfig(cmd); err != nil {
				return err
			}

			opts.createStatus(cmd.ErrOrStderr())
			opts.setupLogging(cmd.ErrOrStderr())

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},

		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}

	selectionFlags(cmd, opts)
	runFlags(cmd, opts)

	cmd.AddCommand(listCmd(opts))

	return cmd
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) (err error) {
	scanner, err := opts.scanner()
	if err != nil {
		return err
	}

	flags, err := opts.flags()
	if err != nil {
		return err
	}

	colored, err := opts.useColor(stdout)
	if err != nil {
		return err
	}

	engines, err := engine.Build(scanner.Languages(), engine.Config{Python: opts.python, Stderr: stderr})
	if err != nil {
		return err
	}

	defer func() {
		if cerr := engines.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	s := &suite.Suite{
		FS:      opts.filesystem(),
		Label:   opts.root,
		Filter:  opts.filter(),
		Scanner: scanner,
		Engines: engines,
		Runner:  doctest.NewRunner(stdout, doctest.WithFlags(flags), doctest.WithColor(colored)),
		Status:  suite.StatusFunc(opts.status),
	}

	stats, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if stats.Results.Failed > 0 {
		return errFailed
	}

	fmt.Fprintf(stdout, "%d snippets executed\n", stats.Executed)
	fmt.Fprintf(stdout, "%d snippets skipped\n", stats.Skipped)

	return nil
}
