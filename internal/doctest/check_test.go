package doctest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckerMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		want  string
		got   string
		flags Flag
		match bool
	}{
		{"exact", "1\n", "1\n", 0, true},
		{"different", "1\n", "2\n", 0, false},
		{"blankline marker", "a\n<BLANKLINE>\nb\n", "a\n\nb\n", 0, true},
		{"blankline marker refused", "a\n<BLANKLINE>\nb\n", "a\n\nb\n", DontAcceptBlankline, false},
		{"whitespace-only line", "a\n\nb\n", "a\n   \nb\n", 0, true},
		{"normalize whitespace", "1 2\n3\n", "1  2 3\n", NormalizeWhitespace, true},
		{"whitespace matters", "1 2\n3\n", "1  2 3\n", 0, false},
		{"ellipsis", "[0, 1, ..., 19]\n", "[0, 1, 2, 3, 19]\n", Ellipsis, true},
		{"ellipsis off", "[0, 1, ..., 19]\n", "[0, 1, 2, 3, 19]\n", 0, false},
		{"ellipsis overlapping ends", "aa...aa", "aaa", Ellipsis, false},
		{"ellipsis only", "...", "anything at all\n", Ellipsis, true},
		{"ellipsis pieces out of order", "a...c...b", "abc", Ellipsis, false},
		{"True for 1", "1\n", "True\n", 0, true},
		{"False for 0", "0\n", "False\n", 0, true},
		{"True for 0", "0\n", "True\n", 0, false},
		{"True for 1 refused", "1\n", "True\n", DontAcceptTrueFor1, false},
		{"1 for True", "True\n", "1\n", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.match, Checker{}.Match(tt.want, tt.got, tt.flags))
		})
	}
}

func TestCheckerDifference(t *testing.T) {
	t.Parallel()

	var c Checker

	require.Equal(t, "Expected nothing\nGot:\n    x\n", c.Difference(&Example{}, "x\n", 0))
	require.Equal(t, "Expected:\n    x\nGot nothing\n", c.Difference(&Example{Want: "x\n"}, "", 0))
	require.Equal(t, "Expected nothing\nGot nothing\n", c.Difference(&Example{}, "", 0))
	require.Equal(t, "Expected:\n    a\nGot:\n    a\n    <BLANKLINE>\n    b\n",
		c.Difference(&Example{Want: "a\n"}, "a\n  \nb\n", 0))

	diff := c.Difference(&Example{Want: "a\nb\nc\nd\n"}, "a\nB\nc\nd\n", ReportUdiff)
	require.Contains(t, diff, "Differences (unified diff with -expected +actual):\n")
	require.Contains(t, diff, "    -b\n")
	require.Contains(t, diff, "    +B\n")

	diff = c.Difference(&Example{Want: "a\nb\nc\nd\n"}, "a\nB\nc\nd\n", ReportCdiff)
	require.Contains(t, diff, "Differences (context diff with expected followed by actual):\n")

	diff = c.Difference(&Example{Want: "a\nb\nc\nd\n"}, "a\nB\nc\nd\ne\n", ReportNdiff)
	require.Equal(t, "Differences (ndiff with -expected +actual):\n"+
		"      a\n"+
		"    - b\n"+
		"    + B\n"+
		"      c\n"+
		"      d\n"+
		"    + e\n", diff)

	require.Equal(t, "Expected:\n    a\nGot:\n    b\n", c.Difference(&Example{Want: "a\n"}, "b\n", ReportNdiff))
}

func TestStripExceptionDetails(t *testing.T) {
	t.Parallel()

	require.Equal(t, "MyError", stripExceptionDetails("foo.bar.MyError: la di da\n"))
	require.Equal(t, "def", stripExceptionDetails("abc.def"))
	require.Equal(t, "def", stripExceptionDetails("abc.def:\n"))
	require.Equal(t, "ValueError", stripExceptionDetails("ValueError: x\nmore: text.here\n"))
}
