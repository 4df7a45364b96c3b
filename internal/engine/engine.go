// Package engine maps fence languages to the interpreters that run them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ezerfernandes/mdtest/internal/doctest"
	"github.com/ezerfernandes/mdtest/internal/engine/python"
	"github.com/ezerfernandes/mdtest/internal/engine/shell"
)

// Engine runs the examples of one language family.
type Engine interface {
	Name() string
	Syntax() doctest.Syntax
	// NewSession returns a session whose bindings hold only the engine's seed.
	NewSession(ctx context.Context) (doctest.Session, error)
	Close() error
}

// Engine kinds.
const (
	Python = "python"
	Shell  = "shell"
)

// ErrUnknownLanguage is returned for a fence language no engine runs.
var ErrUnknownLanguage = errors.New("unknown fence language")

var kinds = map[string]string{
	"py":            Python,
	"python":        Python,
	"python3":       Python,
	"pycon":         Python,
	"console":       Shell,
	"shell-session": Shell,
	"sh-session":    Shell,
}

// KindOf returns the engine kind that runs lang.
func KindOf(lang string) (string, error) {
	kind, ok := kinds[lang]
	if !ok {
		return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownLanguage, lang, strings.Join(Languages(), ", "))
	}

	return kind, nil
}

// Languages lists the fence languages with an engine.
func Languages() []string {
	langs := make([]string, 0, len(kinds))
	for lang := range kinds {
		langs = append(langs, lang)
	}

	sort.Strings(langs)

	return langs
}

// Set holds the engine for each configured fence language.
type Set struct {
	byLang  map[string]Engine
	engines []Engine
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byLang: make(map[string]Engine)}
}

// Add registers e for the given languages.
func (s *Set) Add(e Engine, langs ...string) {
	s.engines = append(s.engines, e)

	for _, lang := range langs {
		s.byLang[lang] = e
	}
}

// Lookup returns the engine registered for lang.
func (s *Set) Lookup(lang string) (Engine, bool) {
	e, ok := s.byLang[lang]

	return e, ok
}

// Close closes every engine of the set.
func (s *Set) Close() error {
	var errs []error

	for _, e := range s.engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s engine: %w", e.Name(), err))
		}
	}

	return errors.Join(errs...)
}

// Config selects how the built-in engines start.
type Config struct {
	Python string    // interpreter command line
	Dir    string    // working directory of shell sessions
	Stderr io.Writer // interpreter diagnostics
}

// Build returns a set with one built-in engine per kind needed by langs.
// Engines start their interpreters lazily, so building is cheap.
func Build(langs []string, cfg Config) (*Set, error) {
	set := NewSet()
	byKind := make(map[string][]string)

	var order []string

	for _, lang := range langs {
		kind, err := KindOf(lang)
		if err != nil {
			return nil, err
		}

		if _, seen := byKind[kind]; !seen {
			order = append(order, kind)
		}

		byKind[kind] = append(byKind[kind], lang)
	}

	for _, kind := range order {
		switch kind {
		case Python:
			e, err := python.New(cfg.Python, cfg.Stderr)
			if err != nil {
				return nil, err
			}

			set.Add(e, byKind[kind]...)
		case Shell:
			set.Add(shell.New(cfg.Dir), byKind[kind]...)
		}
	}

	return set, nil
}
