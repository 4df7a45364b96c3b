package cmd

import (
	_ "embed"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/ezerfernandes/mdtest/internal/mdcode"
	"github.com/ezerfernandes/mdtest/internal/suite"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

//go:embed help/list.md
var listHelp string

func listCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "list [flags]",
		Aliases: []string{"ls"},
		Short:   "List the code blocks that would run",
		Long:    listHelp,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRun(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},

		DisableAutoGenTag: true,
	}

	return cmd
}

func listRun(opts *options, stdout, stderr io.Writer) error {
	scanner, err := opts.scanner()
	if err != nil {
		return err
	}

	fsys := opts.filesystem()

	docs, err := suite.Discover(fsys, ".", opts.filter())
	if err != nil {
		return err
	}

	tbl := table.New("FILE", "LINE", "LANG", "OPTIONS").WithWriter(stdout)

	var warnings []string

	for _, rel := range docs {
		src, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return err
		}

		src = mdcode.NormalizeNewlines(src)

		name := path.Join(opts.root, rel)

		for block := range scanner.All(src) {
			tbl.AddRow(name, block.Line, block.Lang, block.Options.String())
		}

		missed, err := mdcode.Missed(src, scanner)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		for _, fence := range missed {
			warnings = append(warnings, missedWarning(name, fence))
		}

		hidden, err := mdcode.Hidden(src, scanner)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		for _, fence := range hidden {
			warnings = append(warnings, fmt.Sprintf("warning: %s:%d: %s block runs although renderers hide it", name, fence.Line, fence.Lang))
		}

		opts.status("%s: listed\n", name)
	}

	tbl.Print()

	for _, warning := range warnings {
		fmt.Fprintln(stderr, warning)
	}

	return nil
}

func missedWarning(name string, fence mdcode.Fence) string {
	reason := "is not recognised; only backtick fences with the exact language run"
	if len(fence.Info) != 0 {
		reason = fmt.Sprintf("has info %q after the language and never runs", fence.Info)
	}

	return fmt.Sprintf("warning: %s:%d: %s block %s", name, fence.Line, fence.Lang, reason)
}
