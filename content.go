package notes

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	pathpkg "path"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sourcegraph/notes/markdown"
)

// IndexEntry is a note listed in the site index.
type IndexEntry struct {
	// Path is the note's file path relative to the content root, such as "cooking/bread.md".
	Path string

	// Meta is the note's resolved metadata.
	Meta markdown.Metadata

	// Inferred is the metadata derived from the file itself (its name and modification date),
	// used when the note has no valid meta block.
	Inferred markdown.Metadata
}

// Index is the list of notes in a site, newest first.
type Index []IndexEntry

// Lookup returns the entry with the given path.
func (idx Index) Lookup(path string) (IndexEntry, bool) {
	for _, e := range idx {
		if e.Path == path {
			return e, true
		}
	}
	return IndexEntry{}, false
}

func isContentPage(path string) bool {
	return pathpkg.Ext(path) == ".md"
}

// InferMetadata derives a note's metadata from its file: the title is the file name up to the
// first "." that doesn't start the name, and the date is the day the file was last modified.
func InferMetadata(path string, fi os.FileInfo) markdown.Metadata {
	title := pathpkg.Base(path)
	if len(title) > 1 {
		if i := strings.IndexByte(title[1:], '.'); i >= 0 {
			title = title[:i+1]
		}
	}
	mod := fi.ModTime()
	y, m, d := mod.Date()
	return markdown.Metadata{
		Title: title,
		Date:  time.Date(y, m, d, 0, 0, 0, 0, mod.Location()),
	}
}

// BuildIndex compiles every note in content to resolve its metadata and returns the notes
// newest first.
func BuildIndex(ctx context.Context, content http.FileSystem) (Index, error) {
	var index Index
	err := WalkFileSystem(content, isContentPage, func(path string, fi os.FileInfo) error {
		index = append(index, IndexEntry{Path: path, Inferred: InferMetadata(path, fi)})
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "walking content")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range index {
		e := &index[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := ReadFile(content, e.Path)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("reading %s", e.Path))
			}
			e.Meta = markdown.Run(data, e.Inferred).Meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(index, func(i, j int) bool {
		if !index[i].Meta.Date.Equal(index[j].Meta.Date) {
			return index[i].Meta.Date.After(index[j].Meta.Date)
		}
		return index[i].Path < index[j].Path
	})
	return index, nil
}

// NoteURLPath returns the URL path at which the note with the given file path is served.
func NoteURLPath(path string) string {
	return (&url.URL{Path: "/note/" + path}).EscapedPath()
}

// IndexMarkdown returns the Markdown source of the index page.
func IndexMarkdown(index Index) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<ol style="list-style-type: none">`)
	for _, e := range index {
		fmt.Fprintf(&buf, `<li> %s - <a href="%s">%s</a></li>`,
			e.Meta.Date.Format("2006-01-02"),
			html.EscapeString(NoteURLPath(e.Path)),
			html.EscapeString(e.Meta.Title),
		)
	}
	buf.WriteString("</ol>\n")
	return buf.Bytes()
}

// IndexMetadata is the metadata of the index page.
var IndexMetadata = markdown.Metadata{Title: "Index"}
