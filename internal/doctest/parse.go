package doctest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSyntax is wrapped by every error returned from [Parser.Parse].
var ErrSyntax = errors.New("invalid example")

const tabSize = 8

var (
	reOptionDirective = regexp.MustCompile(`(?m)#\s*doctest:\s*([^\n'"]*)$`)
	reBlankOrComment  = regexp.MustCompile(`^ *(#.*)?$`)
)

// Parser splits transcripts written in one [Syntax] into examples.
type Parser struct {
	syntax Syntax

	rePS1      *regexp.Regexp
	rePS2      *regexp.Regexp
	rePS1Start *regexp.Regexp
}

// NewParser returns a parser for the given syntax.
func NewParser(syntax Syntax) *Parser {
	ps1 := regexp.QuoteMeta(syntax.PS1)
	ps2 := regexp.QuoteMeta(syntax.PS2)

	return &Parser{
		syntax:     syntax,
		rePS1:      regexp.MustCompile(`^( *)` + ps1),
		rePS2:      regexp.MustCompile(`^ *` + ps2),
		rePS1Start: regexp.MustCompile(`^ *` + ps1),
	}
}

// Parse extracts the examples of text. Name and filename identify the test in
// reports; lineno is the 1-based line of the first line of text within
// filename, or 0 when unknown.
func (p *Parser) Parse(text, name, filename string, lineno int) (*Test, error) {
	text = expandTabs(text)

	test := &Test{Name: name, Filename: filename, Lineno: lineno, Text: text}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); {
		match := p.rePS1.FindStringSubmatch(lines[i])
		if match == nil {
			i++

			continue
		}

		start := i
		source := []string{lines[i]}

		for i++; i < len(lines) && p.rePS2.MatchString(lines[i]); i++ {
			source = append(source, lines[i])
		}

		var want []string

		for ; i < len(lines) && !isBlank(lines[i]) && !p.rePS1Start.MatchString(lines[i]); i++ {
			want = append(want, lines[i])
		}

		example, err := p.example(test, source, want, len(match[1]), start)
		if err != nil {
			return nil, err
		}

		test.Examples = append(test.Examples, example)
	}

	return test, nil
}

func (p *Parser) example(test *Test, sourceLines, wantLines []string, indent, lineno int) (*Example, error) {
	pad := strings.Repeat(" ", indent)

	stripped := make([]string, len(sourceLines))

	for i, line := range sourceLines {
		prompt := p.syntax.PS1
		if i > 0 {
			prompt = p.syntax.PS2

			if !strings.HasPrefix(line, pad+prompt) {
				return nil, p.errorf(test, lineno+i, "has inconsistent leading whitespace: %q", line)
			}
		}

		cut := indent + len(prompt)
		if len(line) > cut && line[cut] != ' ' {
			return nil, p.errorf(test, lineno+i, "lacks blank after %s: %q", prompt, line)
		}

		if len(line) > cut {
			stripped[i] = line[cut+1:]
		}
	}

	for i, line := range wantLines {
		if !strings.HasPrefix(line, pad) {
			return nil, p.errorf(test, lineno+len(sourceLines)+i, "has inconsistent leading whitespace: %q", line)
		}

		wantLines[i] = line[indent:]
	}

	example := &Example{
		Source: strings.Join(stripped, "\n") + "\n",
		Lineno: lineno,
		Indent: indent,
	}

	if len(wantLines) > 0 {
		example.Want = strings.Join(wantLines, "\n") + "\n"
	}

	if p.syntax.Traceback != nil {
		if m := p.syntax.Traceback.FindStringSubmatch(example.Want); m != nil {
			example.ExcMsg = m[p.syntax.Traceback.SubexpIndex("msg")]
		}
	}

	options, err := p.options(test, example.Source, lineno)
	if err != nil {
		return nil, err
	}

	example.Options = options

	return example, nil
}

func (p *Parser) options(test *Test, source string, lineno int) (map[Flag]bool, error) {
	options := make(map[Flag]bool)

	for _, m := range reOptionDirective.FindAllStringSubmatch(source, -1) {
		for _, option := range strings.Fields(strings.ReplaceAll(m[1], ",", " ")) {
			flag, ok := LookupFlag(option[1:])
			if !ok || (option[0] != '+' && option[0] != '-') {
				return nil, p.errorf(test, lineno, "has an invalid option: %q", option)
			}

			options[flag] = option[0] == '+'
		}
	}

	body := strings.TrimSuffix(source, "\n")
	if len(options) > 0 && !strings.Contains(body, "\n") && reBlankOrComment.MatchString(body) {
		return nil, p.errorf(test, lineno, "has an option directive on a line with no example: %q", body)
	}

	return options, nil
}

func (p *Parser) errorf(test *Test, offset int, format string, args ...any) error {
	line := offset + 1
	if test.Lineno > 0 {
		line = test.Lineno + offset
	}

	return fmt.Errorf("%w: line %d of %s %s", ErrSyntax, line, test.Name, fmt.Sprintf(format, args...))
}

func isBlank(line string) bool {
	return strings.TrimLeft(line, " ") == ""
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var b strings.Builder

	col := 0

	for _, r := range s {
		switch r {
		case '\t':
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}

	return b.String()
}
