package suite

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
)

// DefaultPattern selects the documents of a tree.
const DefaultPattern = "**/*.md"

// Filter selects documents by their slash-separated path below the root.
type Filter struct {
	Pattern   string   // DefaultPattern when empty
	Exclude   []string // patterns of paths to leave out
	GitIgnore bool     // skip .git and paths matched by <root>/.gitignore
}

type matcher struct {
	include []glob.Glob
	exclude []glob.Glob
	ignore  gitignore.Matcher
}

// compilePattern compiles a glob in which "*" stays within one path element
// and "**" crosses elements. A leading "**/" also matches no directory at
// all, so "**/*.md" selects "a.md" as well as "a/b/c.md".
func compilePattern(pattern string) ([]glob.Glob, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	globs := []glob.Glob{g}

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		g, err := glob.Compile(rest, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}

		globs = append(globs, g)
	}

	return globs, nil
}

func newMatcher(fsys fs.FS, dir string, filter Filter) (*matcher, error) {
	pattern := filter.Pattern
	if len(pattern) == 0 {
		pattern = DefaultPattern
	}

	include, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	m := &matcher{include: include}

	for _, pattern := range filter.Exclude {
		exclude, err := compilePattern(pattern)
		if err != nil {
			return nil, err
		}

		m.exclude = append(m.exclude, exclude...)
	}

	if filter.GitIgnore {
		patterns, err := readGitIgnore(fsys, dir)
		if err != nil {
			return nil, err
		}

		m.ignore = gitignore.NewMatcher(patterns)
	}

	return m, nil
}

func readGitIgnore(fsys fs.FS, dir string) ([]gitignore.Pattern, error) {
	patterns := []gitignore.Pattern{gitignore.ParsePattern(".git/", nil)}

	data, err := fs.ReadFile(fsys, path.Join(dir, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return patterns, nil
	}

	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); len(line) != 0 && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}

	return patterns, nil
}

func (m *matcher) ignored(rel string, isDir bool) bool {
	return m.ignore != nil && m.ignore.Match(strings.Split(rel, "/"), isDir)
}

func (m *matcher) match(rel string) bool {
	return matchAny(m.include, rel) && !matchAny(m.exclude, rel)
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}

	return false
}

// Discover returns the documents below dir in fsys that pass filter, as
// slash-separated paths relative to dir, sorted. A missing dir holds no
// documents.
func Discover(fsys fs.FS, dir string, filter Filter) ([]string, error) {
	m, err := newMatcher(fsys, dir, filter)
	if err != nil {
		return nil, err
	}

	if _, err := fs.Stat(fsys, dir); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("document root not found", "dir", dir)

		return nil, nil
	}

	var docs []string

	err = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if p == dir {
			return nil
		}

		rel := strings.TrimPrefix(p, dir+"/")
		if dir == "." {
			rel = p
		}

		if m.ignored(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if !d.IsDir() && m.match(rel) {
			docs = append(docs, rel)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(docs)

	return docs, nil
}
