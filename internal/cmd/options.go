package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"github.com/ezerfernandes/mdtest/internal/engine/python"
	"github.com/ezerfernandes/mdtest/internal/mdcode"
	"github.com/ezerfernandes/mdtest/internal/suite"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	defaultRoot   = "docs"
	defaultConfig = ".mdtest.yaml"
)

const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

type statusFunc func(format string, args ...interface{})

type options struct {
	root        string
	pattern     string
	exclude     []string
	lang        []string
	python      string
	gitignore   bool
	optionflags []string
	config      string
	verbose     bool
	debug       bool
	color       string

	status statusFunc
	fsys   fs.FS // the root directory; os.DirFS(root) when nil
}

func (opts *options) createStatus(out io.Writer) {
	if opts.verbose {
		opts.status = func(format string, args ...interface{}) {
			fmt.Fprintf(out, format, args...)
		}

		return
	}

	opts.status = func(string, ...interface{}) {}
}

func (opts *options) setupLogging(out io.Writer) {
	if opts.debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
}

func (opts *options) filesystem() fs.FS {
	if opts.fsys == nil {
		opts.fsys = os.DirFS(opts.root)
	}

	return opts.fsys
}

func (opts *options) filter() suite.Filter {
	return suite.Filter{
		Pattern:   opts.pattern,
		Exclude:   opts.exclude,
		GitIgnore: opts.gitignore,
	}
}

func (opts *options) scanner() (*mdcode.Scanner, error) {
	return mdcode.NewScanner(opts.lang...)
}

func (opts *options) flags() (doctest.Flag, error) {
	var flags doctest.Flag

	for _, name := range opts.optionflags {
		flag, ok := doctest.LookupFlag(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", errUnknownOptionFlag, name)
		}

		flags |= flag
	}

	return flags, nil
}

func (opts *options) useColor(out io.Writer) (bool, error) {
	switch opts.color {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case colorAuto, "":
		f, ok := out.(*os.File)

		return ok && !color.NoColor && isatty.IsTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("%w: %q (want %s, %s or %s)", errInvalidColor, opts.color, colorAuto, colorAlways, colorNever)
	}
}

func selectionFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&opts.root, "root", defaultRoot, "directory searched for documents")
	flags.StringVar(&opts.pattern, "pattern", suite.DefaultPattern, "glob selecting documents below the root")
	flags.StringArrayVar(&opts.exclude, "exclude", nil, "glob of documents to leave out (repeatable)")
	flags.StringSliceVarP(&opts.lang, "lang", "l", mdcode.DefaultLanguages, "fence languages to run")
	flags.BoolVar(&opts.gitignore, "gitignore", false, "skip documents matched by the root's .gitignore")
	flags.StringVar(&opts.config, "config", "", "configuration file (default "+defaultConfig+" when present)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print one status line per block on stderr")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")
}

func runFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()

	flags.StringVar(&opts.python, "python", python.DefaultCommand, "Python interpreter command line")
	flags.StringSliceVar(&opts.optionflags, "optionflags", nil, "option flags enabled for every example, e.g. ELLIPSIS")
	flags.StringVar(&opts.color, "color", colorAuto, "highlight failures: auto, always or never")
}
