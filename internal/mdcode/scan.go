package mdcode

import (
	"bytes"
	"errors"
	"iter"
	"regexp"
	"sort"
	"strings"
)

const (
	fence = "```"

	// reAnnotation matches the optional line right after the closing fence:
	//   <!-- ^opts skip keep_context # comment -->
	reAnnotation = `(?:<!--\s*\^opts\s+(?P<options>[^-#]+)(?:#(?P<comment>[^-\n]+))?-->)?`
)

// DefaultLanguages are the fence languages scanned when none are configured.
var DefaultLanguages = []string{"py", "python"}

// ErrNoLanguages is returned by [NewScanner] when every language is blank.
var ErrNoLanguages = errors.New("no fence languages")

// Scanner locates fenced code blocks with a regular expression rather than a
// markdown parser. Only fences opened with one of its languages are matched.
type Scanner struct {
	langs []string
	re    *regexp.Regexp

	idxLang, idxCode, idxOptions, idxComment int
}

// NewScanner builds a Scanner for the given fence languages, or for
// [DefaultLanguages] when none are given.
func NewScanner(langs ...string) (*Scanner, error) {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}

	seen := make(map[string]bool)
	uniq := make([]string, 0, len(langs))

	for _, lang := range langs {
		lang = strings.TrimSpace(lang)
		if len(lang) == 0 || seen[lang] {
			continue
		}

		seen[lang] = true
		uniq = append(uniq, lang)
	}

	if len(uniq) == 0 {
		return nil, ErrNoLanguages
	}

	sort.Slice(uniq, func(i, j int) bool {
		if len(uniq[i]) != len(uniq[j]) {
			return len(uniq[i]) > len(uniq[j])
		}

		return uniq[i] < uniq[j]
	})

	quoted := make([]string, len(uniq))
	for i, lang := range uniq {
		quoted[i] = regexp.QuoteMeta(lang)
	}

	re, err := regexp.Compile(`(?s)` + fence + `(?P<lang>` + strings.Join(quoted, "|") + `)\n` +
		`(?P<code>.+?)\n` + fence + `\n` + reAnnotation)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		langs:      uniq,
		re:         re,
		idxLang:    re.SubexpIndex("lang"),
		idxCode:    re.SubexpIndex("code"),
		idxOptions: re.SubexpIndex("options"),
		idxComment: re.SubexpIndex("comment"),
	}, nil
}

// MustScanner is like [NewScanner] but panics on error.
func MustScanner(langs ...string) *Scanner {
	s, err := NewScanner(langs...)
	if err != nil {
		panic(err)
	}

	return s
}

// Languages returns the fence languages the scanner recognises.
func (s *Scanner) Languages() []string {
	return append([]string(nil), s.langs...)
}

// All returns the blocks of source in order of appearance. Each call starts a
// fresh scan.
func (s *Scanner) All(source []byte) iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		pos := 0

		for pos < len(source) {
			loc := s.re.FindSubmatchIndex(source[pos:])
			if loc == nil {
				return
			}

			if !yield(s.block(source, pos, loc)) {
				return
			}

			pos += loc[1]
		}
	}
}

// Scan collects all blocks of source.
func (s *Scanner) Scan(source []byte) Blocks {
	var blocks Blocks

	for block := range s.All(source) {
		blocks = append(blocks, block)
	}

	return blocks
}

func (s *Scanner) block(source []byte, base int, loc []int) *Block {
	group := func(idx int) (string, int) {
		start, end := loc[2*idx], loc[2*idx+1]
		if start < 0 {
			return "", -1
		}

		return string(source[base+start : base+end]), base + start
	}

	lang, _ := group(s.idxLang)
	code, offset := group(s.idxCode)
	rawOptions, _ := group(s.idxOptions)
	comment, _ := group(s.idxComment)

	return &Block{
		Lang:    lang,
		Code:    code,
		Offset:  offset,
		Line:    LineAt(source, offset),
		Options: ParseOptions(rawOptions),
		Comment: strings.TrimSpace(comment),
	}
}

// NormalizeNewlines converts "\r\n" and lone "\r" line endings to "\n".
func NormalizeNewlines(source []byte) []byte {
	if bytes.IndexByte(source, '\r') < 0 {
		return source
	}

	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	return bytes.ReplaceAll(source, []byte("\r"), []byte("\n"))
}

// LineAt returns the 1-based line holding the byte at pos: the index of the
// first line terminator (a newline or the end of source) at or after pos.
// It returns -1 when pos lies beyond the end of source.
func LineAt(source []byte, pos int) int {
	line := 1

	for i, c := range source {
		if c != '\n' {
			continue
		}

		if i >= pos {
			return line
		}

		line++
	}

	if len(source) >= pos {
		return line
	}

	return -1
}
