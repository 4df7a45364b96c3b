package mdcode

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence is a fenced code block as a CommonMark parser sees it.
type Fence struct {
	Lang   string
	Info   string // the info string after the language word
	Line   int    // 1-based line of the first code line
	Hidden bool   // wrapped in <script type="text/markdown">
}

// Fences parses a Markdown document and returns every fenced code block,
// including ones renderers hide in a <script type="text/markdown"> element.
func Fences(source []byte) ([]Fence, error) {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var fences []Fence

	err := ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			fences = append(fences, extractFence(n, source))
		case *ast.HTMLBlock:
			if fcb := hiddenFence(n, source); fcb != nil {
				fence := extractFence(fcb, source)
				fence.Hidden = true
				fences = append(fences, fence)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return fences, nil
}

// Missed returns the fences tagged with one of the scanner's languages that
// the scanner does not pick up, compared case-insensitively by language and
// by code start line.
func Missed(source []byte, scanner *Scanner) ([]Fence, error) {
	return audit(source, scanner, func(_ Fence, scanned bool) bool { return !scanned })
}

// Hidden returns the fences the scanner runs although renderers do not
// display them.
func Hidden(source []byte, scanner *Scanner) ([]Fence, error) {
	return audit(source, scanner, func(fence Fence, scanned bool) bool { return scanned && fence.Hidden })
}

func audit(source []byte, scanner *Scanner, keep func(fence Fence, scanned bool) bool) ([]Fence, error) {
	fences, err := Fences(source)
	if err != nil {
		return nil, err
	}

	langs := make(map[string]bool)
	for _, lang := range scanner.Languages() {
		langs[strings.ToLower(lang)] = true
	}

	scanned := make(map[int]bool)
	for block := range scanner.All(source) {
		scanned[block.Line] = true
	}

	var kept []Fence

	for _, fence := range fences {
		if langs[strings.ToLower(fence.Lang)] && keep(fence, scanned[fence.Line]) {
			kept = append(kept, fence)
		}
	}

	return kept, nil
}

func extractFence(fcb *ast.FencedCodeBlock, source []byte) Fence {
	var fence Fence

	if fcb.Info != nil {
		words := strings.Fields(string(fcb.Info.Text(source)))
		if len(words) > 0 {
			fence.Lang = words[0]
			fence.Info = strings.Join(words[1:], " ")
		}
	}

	lines := fcb.Lines()

	switch {
	case lines.Len() > 0:
		fence.Line = LineAt(source, lines.At(0).Start)
	case fcb.Info != nil:
		fence.Line = LineAt(source, fcb.Info.Segment.Start) + 1
	}

	return fence
}

var (
	reScriptOpen = regexp.MustCompile(`^\s*(?:<!--)?\s*<script\s*type=["']text/markdown["']\s*>\s*$`)
	reFenceLine  = regexp.MustCompile("^\\s*```")
)

// hiddenFence returns the fenced block that fills a <script type="text/markdown">
// HTML block, optionally inside a comment, or nil. The closing </script> line
// is the block's closure and not one of its lines.
func hiddenFence(html *ast.HTMLBlock, source []byte) *ast.FencedCodeBlock {
	lines := html.Lines()

	const minLines = 3 // <script>, opening fence, closing fence

	n := lines.Len()
	if n < minLines {
		return nil
	}

	first := lines.At(0)
	if !reScriptOpen.Match(first.Value(source)) {
		return nil
	}

	open := lines.At(1)

	loc := reFenceLine.FindIndex(open.Value(source))
	last := lines.At(n - 1)
	if loc == nil || !reFenceLine.Match(last.Value(source)) {
		return nil
	}

	fcb := ast.NewFencedCodeBlock(ast.NewTextSegment(text.NewSegment(open.Start+loc[1], open.Stop-1)))

	body := text.NewSegments()
	for i := 2; i < n-1; i++ {
		body.Append(lines.At(i))
	}

	fcb.SetLines(body)

	return fcb
}
