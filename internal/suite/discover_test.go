package suite

import (
	"io/fs"
	"path"
	"testing"

	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/require"
)

func memFS(t *testing.T, files map[string]string) fs.FS {
	t.Helper()

	mfs := memoryfs.New()

	for name, content := range files {
		if dir := path.Dir(name); dir != "." {
			require.NoError(t, mfs.MkdirAll(dir, 0o700))
		}

		require.NoError(t, mfs.WriteFile(name, []byte(content), 0o600))
	}

	return mfs
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{
		"docs/a.md":            "",
		"docs/notes.txt":       "",
		"docs/draft.md":        "",
		"docs/sub/c.md":        "",
		"docs/sub/deep/d.md":   "",
		"docs/build/e.md":      "",
		"docs/.gitignore":      "# generated\nbuild/\n",
		"outside.md":           "",
		"docs/sub/deep/e.json": "",
	})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name: "default pattern",
			want: []string{"a.md", "build/e.md", "draft.md", "sub/c.md", "sub/deep/d.md"},
		},
		{
			name:   "top level only",
			filter: Filter{Pattern: "*.md"},
			want:   []string{"a.md", "draft.md"},
		},
		{
			name:   "exclude file",
			filter: Filter{Exclude: []string{"draft.md"}},
			want:   []string{"a.md", "build/e.md", "sub/c.md", "sub/deep/d.md"},
		},
		{
			name:   "exclude tree",
			filter: Filter{Exclude: []string{"sub/**"}},
			want:   []string{"a.md", "build/e.md", "draft.md"},
		},
		{
			name:   "exclude at any depth",
			filter: Filter{Exclude: []string{"**/d.md"}},
			want:   []string{"a.md", "build/e.md", "draft.md", "sub/c.md"},
		},
		{
			name:   "gitignore",
			filter: Filter{GitIgnore: true},
			want:   []string{"a.md", "draft.md", "sub/c.md", "sub/deep/d.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Discover(fsys, "docs", tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverRoot(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{
		"README.md":        "",
		"docs/a.md":        "",
		"docs/b.md":        "",
		"docs/img.png":     "",
		".git/info/doc.md": "",
	})

	got, err := Discover(fsys, ".", Filter{})
	require.NoError(t, err)
	require.Equal(t, []string{".git/info/doc.md", "README.md", "docs/a.md", "docs/b.md"}, got)

	got, err = Discover(fsys, ".", Filter{GitIgnore: true})
	require.NoError(t, err)
	require.Equal(t, []string{"README.md", "docs/a.md", "docs/b.md"}, got)
}

func TestDiscoverErrors(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{"docs/a.md": ""})

	_, err := Discover(fsys, "docs", Filter{Pattern: "[a-"})
	require.Error(t, err)

	_, err = Discover(fsys, "docs", Filter{Exclude: []string{"{a,b"}})
	require.Error(t, err)

}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	fsys := memFS(t, map[string]string{"docs/a.md": ""})

	got, err := Discover(fsys, "missing", Filter{GitIgnore: true})
	require.NoError(t, err)
	require.Empty(t, got)
}
