package mdcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		code    []string
		options []string
	}{
		{
			name:    "py fence",
			source:  "intro\n```py\n>>> 1 + 1\n2\n```\noutro\n",
			code:    []string{">>> 1 + 1\n2"},
			options: []string{""},
		},
		{
			name:    "python fence with blank lines",
			source:  "```python\n>>> a = 1\n\n>>> a\n1\n```\n",
			code:    []string{">>> a = 1\n\n>>> a\n1"},
			options: []string{""},
		},
		{
			name:   "other languages ignored",
			source: "```pycon\n>>> 1\n1\n```\n```go\nx := 1\n```\n```\nplain\n```\n",
		},
		{
			name:    "annotation",
			source:  "```py\n>>> raise SystemExit\n```\n<!-- ^opts SKIP Keep_Context -->\n",
			code:    []string{">>> raise SystemExit"},
			options: []string{"keep_context skip"},
		},
		{
			name:    "annotation with comment",
			source:  "```py\n>>> x = 1\n```\n<!-- ^opts keep_context # x is used below -->\n",
			code:    []string{">>> x = 1"},
			options: []string{"keep_context"},
		},
		{
			name:    "unknown tokens kept",
			source:  "```py\n>>> x\n```\n<!-- ^opts someday skip -->",
			code:    []string{">>> x"},
			options: []string{"skip someday"},
		},
		{
			name:    "malformed annotation",
			source:  "```py\n>>> x\n```\n<!-- opts skip -->\n",
			code:    []string{">>> x"},
			options: []string{""},
		},
		{
			name:    "annotation not directly after fence",
			source:  "```py\n>>> x\n```\n\n<!-- ^opts skip -->\n",
			code:    []string{">>> x"},
			options: []string{""},
		},
		{
			name:    "several blocks",
			source:  "```py\n>>> 1\n1\n```\ntext\n```python\n>>> 2\n2\n```\n<!-- ^opts skip -->\n```py\n>>> 3\n3\n```\n",
			code:    []string{">>> 1\n1", ">>> 2\n2", ">>> 3\n3"},
			options: []string{"", "skip", ""},
		},
		{
			name:   "unterminated fence",
			source: "```py\n>>> 1\n1\n```",
		},
	}

	scanner := MustScanner()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			blocks := scanner.Scan([]byte(tt.source))
			require.Len(t, blocks, len(tt.code))

			for i, block := range blocks {
				require.Equal(t, tt.code[i], block.Code)
				require.Equal(t, tt.options[i], block.Options.String())
				require.Equal(t, tt.source[block.Offset:block.Offset+len(block.Code)], block.Code)
			}
		})
	}
}

func TestScanComment(t *testing.T) {
	t.Parallel()

	blocks := MustScanner().Scan([]byte("```py\n>>> x = 1\n```\n<!--^opts keep_context #reused later-->\n"))
	require.Len(t, blocks, 1)
	require.Equal(t, "reused later", blocks[0].Comment)
	require.True(t, blocks[0].Options.Has(OptKeepContext))
	require.False(t, blocks[0].Options.Has(OptSkip))
}

func TestScanLanguages(t *testing.T) {
	t.Parallel()

	source := []byte("```py\n>>> 1\n1\n```\n```console\n$ echo hi\nhi\n```\n")

	blocks := MustScanner("console").Scan(source)
	require.Len(t, blocks, 1)
	require.Equal(t, "console", blocks[0].Lang)
	require.Equal(t, "$ echo hi\nhi", blocks[0].Code)

	blocks = MustScanner("python", "py", "console", "py").Scan(source)
	require.Len(t, blocks, 2)
	require.Equal(t, "py", blocks[0].Lang)
	require.Equal(t, "console", blocks[1].Lang)

	_, err := NewScanner(" ", "")
	require.ErrorIs(t, err, ErrNoLanguages)
}

func TestScanLines(t *testing.T) {
	t.Parallel()

	source := []byte("```py\n>>> 1\n1\n```\n" + // code on line 2
		"\n" +
		"middle\n" +
		"```python\n>>> 2\n2\n```\n" + // code on line 8
		"\n" +
		"```py\n>>> 3\n```\n") // code on line 13, last code line of the file

	blocks := MustScanner().Scan(source)
	require.Len(t, blocks, 3)
	require.Equal(t, 2, blocks[0].Line)
	require.Equal(t, 8, blocks[1].Line)
	require.Equal(t, 13, blocks[2].Line)
}

func TestScanRestartable(t *testing.T) {
	t.Parallel()

	scanner := MustScanner()
	source := []byte("```py\n>>> 1\n1\n```\n```py\n>>> 2\n2\n```\n")

	var first []string

	for block := range scanner.All(source) {
		first = append(first, block.Code)

		break
	}

	require.Equal(t, []string{">>> 1\n1"}, first)
	require.Len(t, scanner.Scan(source), 2)
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		pos    int
		want   int
	}{
		{"first byte", "abc\ndef\n", 0, 1},
		{"newline of first line", "abc\ndef\n", 3, 1},
		{"start of second line", "abc\ndef\n", 4, 2},
		{"end of text without newline", "abc\ndef", 7, 2},
		{"after trailing newline", "abc\n", 4, 2},
		{"empty text", "", 0, 1},
		{"beyond end", "abc", 10, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, LineAt([]byte(tt.source), tt.pos))
		})
	}
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	opts := ParseOptions("  SKIP\tkeep_CONTEXT\n skip ")
	require.Equal(t, []string{"keep_context", "skip"}, opts.Tokens())
	require.Empty(t, ParseOptions("").Tokens())

	var none Options
	require.False(t, none.Has(OptSkip))
}

func TestNormalizeNewlines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "unix", source: "a\nb\n", want: "a\nb\n"},
		{name: "windows", source: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "classic mac", source: "a\rb\r", want: "a\nb\n"},
		{name: "mixed", source: "a\r\n\rb\n", want: "a\n\nb\n"},
		{name: "empty", source: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, string(NormalizeNewlines([]byte(tt.source))))
		})
	}
}

func TestScanWindowsLineEndings(t *testing.T) {
	t.Parallel()

	source := NormalizeNewlines([]byte("# T\r\n\r\n```py\r\n>>> 1\r\n1\r\n```\r\n<!--^opts keep_context -->\r\n"))

	blocks := MustScanner().Scan(source)
	require.Len(t, blocks, 1)
	require.Equal(t, ">>> 1\n1", blocks[0].Code)
	require.Equal(t, 4, blocks[0].Line)
	require.True(t, blocks[0].Options.Has(OptKeepContext))
}
