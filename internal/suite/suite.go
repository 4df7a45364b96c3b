// Package suite runs the examples of every document in a tree.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"github.com/ezerfernandes/mdtest/internal/engine"
	"github.com/ezerfernandes/mdtest/internal/mdcode"
)

// StatusFunc receives one progress line per block.
type StatusFunc func(format string, args ...any)

// Engines resolves fence languages to engines.
type Engines interface {
	Lookup(lang string) (engine.Engine, bool)
}

// Stats accumulates the counts of a run.
type Stats struct {
	Executed int // blocks handed to an engine, including invalid ones
	Skipped  int
	Results  doctest.Results
}

// Suite runs every document below Dir in FS.
type Suite struct {
	FS      fs.FS
	Dir     string // "." when empty
	Label   string // shown in place of Dir in document names
	Filter  Filter
	Scanner *mdcode.Scanner
	Engines Engines
	Runner  *doctest.Runner
	Status  StatusFunc

	parsers map[engine.Engine]*doctest.Parser
}

// Run executes all documents in lexical order and prints the summary of the
// runner. Failing examples are counted; an error is returned only when the
// run could not be carried out.
func (s *Suite) Run(ctx context.Context) (*Stats, error) {
	stats := new(Stats)

	docs, err := Discover(s.FS, s.dir(), s.Filter)
	if err != nil {
		return stats, err
	}

	slog.Debug("discovered documents", "dir", s.dir(), "count", len(docs))

	for _, rel := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		text, err := fs.ReadFile(s.FS, path.Join(s.dir(), rel))
		if err != nil {
			return stats, err
		}

		if err := s.runDocument(ctx, s.name(rel), mdcode.NormalizeNewlines(text), stats); err != nil {
			return stats, err
		}
	}

	stats.Results = s.Runner.Summarize()

	return stats, nil
}

// runDocument executes the blocks of one document. A block marked keep_context
// hands its bindings to the next block of the same engine; any other block
// ends its session. Nothing carries over to the next document.
func (s *Suite) runDocument(ctx context.Context, name string, text []byte, stats *Stats) (err error) {
	sessions := make(map[engine.Engine]doctest.Session)

	defer func() {
		for e, session := range sessions {
			if cerr := session.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("%s: closing %s session: %w", name, e.Name(), cerr))
			}
		}
	}()

	for block := range s.Scanner.All(text) {
		if block.Options.Has(mdcode.OptSkip) {
			stats.Skipped++
			s.status("%s:%d %s skipped\n", name, block.Line, block.Lang)

			continue
		}

		stats.Executed++

		e, ok := s.Engines.Lookup(block.Lang)
		if !ok {
			return fmt.Errorf("%s:%d: %w %q", name, block.Line, engine.ErrUnknownLanguage, block.Lang)
		}

		slog.Debug("running block", "doc", name, "line", block.Line, "lang", block.Lang, "options", block.Options.String())

		passed, err := s.runBlock(ctx, name, block, e, sessions)
		if err != nil {
			return err
		}

		if passed {
			s.status("%s:%d %s ok\n", name, block.Line, block.Lang)
		} else {
			s.status("%s:%d %s FAILED\n", name, block.Line, block.Lang)
		}

		if block.Options.Has(mdcode.OptKeepContext) {
			continue
		}

		if session, ok := sessions[e]; ok {
			delete(sessions, e)

			if err := session.Close(); err != nil {
				return fmt.Errorf("%s: closing %s session: %w", name, e.Name(), err)
			}
		}
	}

	return nil
}

func (s *Suite) runBlock(
	ctx context.Context,
	name string,
	block *mdcode.Block,
	e engine.Engine,
	sessions map[engine.Engine]doctest.Session,
) (bool, error) {
	test, err := s.parser(e).Parse(block.Code, name, name, block.Line)
	if err != nil {
		s.Runner.Invalid(name, name, block.Line, err)

		return false, nil
	}

	session, ok := sessions[e]
	if !ok {
		if session, err = e.NewSession(ctx); err != nil {
			return false, fmt.Errorf("%s:%d: %w", name, block.Line, err)
		}

		sessions[e] = session
	}

	res, err := s.Runner.Run(ctx, test, session)
	if err != nil {
		return false, err
	}

	return res.Failed == 0, nil
}

func (s *Suite) parser(e engine.Engine) *doctest.Parser {
	if s.parsers == nil {
		s.parsers = make(map[engine.Engine]*doctest.Parser)
	}

	p, ok := s.parsers[e]
	if !ok {
		p = doctest.NewParser(e.Syntax())
		s.parsers[e] = p
	}

	return p
}

func (s *Suite) dir() string {
	if len(s.Dir) == 0 {
		return "."
	}

	return s.Dir
}

func (s *Suite) name(rel string) string {
	if len(s.Label) != 0 {
		return path.Join(s.Label, rel)
	}

	return path.Join(s.dir(), rel)
}

func (s *Suite) status(format string, args ...any) {
	if s.Status != nil {
		s.Status(format, args...)
	}
}
