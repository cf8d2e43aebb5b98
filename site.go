// Package notes builds and serves a site of Markdown notes.
package notes

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/sourcegraph/notes/internal/logging"
	"github.com/sourcegraph/notes/markdown"
)

// ErrNoteNotFound is returned by RenderNote for paths that aren't in the index.
var ErrNoteNotFound = errors.New("note not found")

// Site is a notes site: a tree of Markdown notes, the index of those notes, and the rendered
// index page. The index is built by Reload and can be rebuilt while the site is being served.
type Site struct {
	// Content is the file system containing the Markdown notes.
	Content http.FileSystem

	// Logger is the logger for the site. If nil, the default logger is used.
	Logger *log.Logger

	mu        sync.RWMutex
	index     Index
	indexPage []byte
}

func (s *Site) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.Default()
}

// Reload rebuilds the index and the index page from the content.
func (s *Site) Reload(ctx context.Context) error {
	index, err := BuildIndex(ctx, s.Content)
	if err != nil {
		return errors.WithMessage(err, "building index")
	}
	if len(index) == 0 {
		s.logger().Warn("index is empty")
	}
	page := markdown.Run(IndexMarkdown(index), IndexMetadata).HTML

	s.mu.Lock()
	s.index, s.indexPage = index, page
	s.mu.Unlock()

	s.logger().Info("loaded index", logging.FieldEntries, len(index))
	return nil
}

// Index returns the current index. The caller must not modify it.
func (s *Site) Index() Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// IndexPage returns the rendered index page.
func (s *Site) IndexPage() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexPage
}

// RenderNote compiles the note at path (relative to the content root, such as "a/b.md"). Only
// notes in the index are rendered; others return ErrNoteNotFound.
func (s *Site) RenderNote(path string) (*markdown.Document, error) {
	entry, ok := s.Index().Lookup(path)
	if !ok {
		return nil, ErrNoteNotFound
	}
	data, err := ReadFile(s.Content, entry.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoteNotFound
		}
		return nil, errors.WithMessage(err, fmt.Sprintf("reading %s", entry.Path))
	}
	return markdown.Run(data, entry.Inferred), nil
}
