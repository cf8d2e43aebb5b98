package notes

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/godoc/vfs/httpfs"
	"golang.org/x/tools/godoc/vfs/mapfs"

	"github.com/sourcegraph/notes/markdown"
)

type fakeFileInfo struct {
	os.FileInfo
	modTime time.Time
}

func (fi fakeFileInfo) ModTime() time.Time { return fi.modTime }

func TestInferMetadata(t *testing.T) {
	mod := time.Date(2023, 5, 6, 17, 30, 0, 0, time.UTC)
	tests := map[string]string{
		"bread.md":          "bread",
		"a/b/sourdough.md":  "sourdough",
		"notes.draft.md":    "notes",
		"dir/.hidden.md":    ".hidden",
		".profile":          ".profile",
		"..md":              ".",
		"no-extension-here": "no-extension-here",
	}
	for path, wantTitle := range tests {
		t.Run(path, func(t *testing.T) {
			got := InferMetadata(path, fakeFileInfo{modTime: mod})
			want := markdown.Metadata{Title: wantTitle, Date: time.Date(2023, 5, 6, 0, 0, 0, 0, time.UTC)}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestBuildIndex(t *testing.T) {
	content := httpfs.New(mapfs.New(map[string]string{
		"old.md":        "```meta\ntitle = \"Old\"\ndate = 2021-01-01\n```\n",
		"a/new.md":      "```meta\ntitle = \"New & shiny\"\ndate = 2024-06-01\n```\n",
		"a/b/middle.md": "```meta\ntitle = \"Middle\"\ndate = 2023-03-03\n```\n",
		"plain.md":      "No meta block.\n",
		"broken.md":     "```meta\ntitle = \"Broken\"\n```\n",
		"image.png":     "",
		".git/x.md":     "",
	}))

	index, err := BuildIndex(context.Background(), content)
	require.NoError(t, err)

	var paths, titles []string
	for _, e := range index {
		paths = append(paths, e.Path)
		titles = append(titles, e.Meta.Title)
	}
	// mapfs reports zero modification times, so notes without metadata sort last (by path).
	assert.Equal(t, []string{"a/new.md", "a/b/middle.md", "old.md", "broken.md", "plain.md"}, paths)
	assert.Equal(t, []string{"New & shiny", "Middle", "Old", "broken", "plain"}, titles)

	entry, ok := index.Lookup("a/b/middle.md")
	require.True(t, ok)
	assert.Equal(t, "middle", entry.Inferred.Title)
	assert.Equal(t, "2023-03-03", entry.Meta.Date.Format("2006-01-02"))

	_, ok = index.Lookup("missing.md")
	assert.False(t, ok)
}

func TestBuildIndexCanceled(t *testing.T) {
	content := httpfs.New(mapfs.New(map[string]string{"a.md": "a"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildIndex(ctx, content)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndexMarkdown(t *testing.T) {
	index := Index{
		{Path: "a b/c.md", Meta: markdown.Metadata{Title: "<C>", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}},
		{Path: "d.md", Meta: markdown.Metadata{Title: "D", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)}},
	}
	got := string(IndexMarkdown(index))
	want := `<ol style="list-style-type: none">` +
		`<li> 2024-01-02 - <a href="/note/a%20b/c.md">&lt;C&gt;</a></li>` +
		`<li> 2023-12-31 - <a href="/note/d.md">D</a></li>` +
		"</ol>\n"
	assert.Equal(t, want, got)

	page := string(markdown.Run([]byte(got), IndexMetadata).HTML)
	assert.True(t, strings.Contains(page, want[:len(want)-1]), "index page should contain the list verbatim")
	assert.Contains(t, page, "<title>Index</title>")
}

func TestNoteURLPath(t *testing.T) {
	assert.Equal(t, "/note/a/b.md", NoteURLPath("a/b.md"))
	assert.Equal(t, "/note/my%20notes/caf%C3%A9.md", NoteURLPath("my notes/café.md"))
}
