package doctest

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// BlanklineMarker stands for an empty line in expected output.
const BlanklineMarker = "<BLANKLINE>"

var (
	reBlanklineMarker = regexp.MustCompile(`(?m)^` + BlanklineMarker + `\s*?$`)
	reWhitespaceLine  = regexp.MustCompile(`(?m)^[ \t\f\r\v]+$`)
)

// Checker compares expected and actual output.
type Checker struct{}

// Match reports whether got is acceptable output for want under flags.
func (Checker) Match(want, got string, flags Flag) bool {
	if got == want {
		return true
	}

	if flags&DontAcceptTrueFor1 == 0 {
		if (got == "True\n" && want == "1\n") || (got == "False\n" && want == "0\n") {
			return true
		}
	}

	if flags&DontAcceptBlankline == 0 {
		want = reBlanklineMarker.ReplaceAllString(want, "")
		got = reWhitespaceLine.ReplaceAllString(got, "")

		if got == want {
			return true
		}
	}

	if flags&NormalizeWhitespace != 0 {
		got = strings.Join(strings.Fields(got), " ")
		want = strings.Join(strings.Fields(want), " ")

		if got == want {
			return true
		}
	}

	if flags&Ellipsis != 0 && ellipsisMatch(want, got) {
		return true
	}

	return false
}

// Difference describes how got differs from the expected output of example.
func (c Checker) Difference(example *Example, got string, flags Flag) string {
	want := example.Want

	if flags&DontAcceptBlankline == 0 {
		got = markBlankLines(got)
	}

	if diff, ok := c.diff(want, got, flags); ok {
		return diff
	}

	switch {
	case len(want) > 0 && len(got) > 0:
		return "Expected:\n" + indent(want) + "Got:\n" + indent(got)
	case len(want) > 0:
		return "Expected:\n" + indent(want) + "Got nothing\n"
	case len(got) > 0:
		return "Expected nothing\nGot:\n" + indent(got)
	default:
		return "Expected nothing\nGot nothing\n"
	}
}

func (Checker) diff(want, got string, flags Flag) (string, bool) {
	if flags&(ReportUdiff|ReportCdiff|ReportNdiff) == 0 {
		return "", false
	}

	// Short outputs read better side by side than as a diff.
	if strings.Count(want, "\n") <= 2 || strings.Count(got, "\n") <= 2 {
		return "", false
	}

	unified := difflib.UnifiedDiff{
		A:       difflib.SplitLines(want),
		B:       difflib.SplitLines(got),
		Context: 2,
	}

	var (
		kind string
		text string
		err  error
	)

	switch {
	case flags&ReportUdiff != 0:
		kind = "unified diff with -expected +actual"
		text, err = difflib.GetUnifiedDiffString(unified)
	case flags&ReportCdiff != 0:
		kind = "context diff with expected followed by actual"
		text, err = difflib.GetContextDiffString(difflib.ContextDiff(unified))
	default:
		kind = "ndiff with -expected +actual"
		text = ndiff(splitLines(want), splitLines(got))
	}

	if err != nil {
		return "", false
	}

	return "Differences (" + kind + "):\n" + indent(text), true
}

// ndiff lists every line of a and b, prefixed with "- " when only in a,
// "+ " when only in b and two spaces when in both.
func ndiff(a, b []string) string {
	var out strings.Builder

	write := func(prefix string, lines []string) {
		for _, line := range lines {
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			write("  ", a[op.I1:op.I2])
		case 'd':
			write("- ", a[op.I1:op.I2])
		case 'i':
			write("+ ", b[op.J1:op.J2])
		case 'r':
			write("- ", a[op.I1:op.I2])
			write("+ ", b[op.J1:op.J2])
		}
	}

	return out.String()
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func ellipsisMatch(want, got string) bool {
	const ellipsis = "..."

	if !strings.Contains(want, ellipsis) {
		return want == got
	}

	pieces := strings.Split(want, ellipsis)
	start, end := 0, len(got)

	if first := pieces[0]; len(first) > 0 {
		if !strings.HasPrefix(got, first) {
			return false
		}

		start = len(first)
	}

	pieces = pieces[1:]

	if last := pieces[len(pieces)-1]; len(last) > 0 {
		if !strings.HasSuffix(got, last) {
			return false
		}

		end -= len(last)
	}

	pieces = pieces[:len(pieces)-1]

	if start > end {
		return false
	}

	for _, piece := range pieces {
		idx := strings.Index(got[start:end], piece)
		if idx < 0 {
			return false
		}

		start += idx + len(piece)
	}

	return true
}

func stripExceptionDetails(msg string) string {
	end := len(msg)

	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		end = i
	}

	if i := strings.IndexByte(msg[:end], ':'); i >= 0 {
		end = i
	}

	start := 0
	if i := strings.LastIndexByte(msg[:end], '.'); i >= 0 {
		start = i + 1
	}

	return msg[start:end]
}

// markBlankLines replaces whitespace-only lines of got with the marker so the
// report shows what would have matched.
func markBlankLines(got string) string {
	lines := strings.SplitAfter(got, "\n")

	for i, line := range lines {
		if strings.HasSuffix(line, "\n") && strings.Trim(line, " \n") == "" {
			lines[i] = BlanklineMarker + "\n"
		}
	}

	return strings.Join(lines, "")
}

func indent(s string) string {
	var b strings.Builder

	for _, line := range strings.SplitAfter(s, "\n") {
		if len(line) > 0 && line != "\n" {
			b.WriteString("    ")
		}

		b.WriteString(line)
	}

	return b.String()
}
