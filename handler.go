package notes

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/sourcegraph/notes/internal/logging"
)

const notePathPrefix = "/note/"

// Handler returns an http.Handler that serves the site: the index page at "/" and each note at
// "/note/" followed by its path relative to the content root.
func (s *Site) Handler() http.Handler {
	m := http.NewServeMux()

	const (
		cacheMaxAge0     = "max-age=0"
		cacheMaxAgeShort = "max-age=60"
	)
	isNoCacheRequest := func(r *http.Request) bool {
		return r.Header.Get("Cache-Control") == "no-cache"
	}
	setCacheControl := func(w http.ResponseWriter, r *http.Request, cacheControl string) {
		if isNoCacheRequest(r) {
			w.Header().Set("Cache-Control", cacheMaxAge0)
		} else {
			w.Header().Set("Cache-Control", cacheControl)
		}
	}
	writePage := func(w http.ResponseWriter, r *http.Request, data []byte) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		setCacheControl(w, r, cacheMaxAgeShort)
		if r.Method == "GET" {
			_, _ = w.Write(data)
		}
	}
	allowed := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method != "GET" && r.Method != "HEAD" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return false
		}
		return true
	}

	// Serve the index.
	m.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		if r.URL.Path != "/" {
			w.Header().Set("Cache-Control", cacheMaxAge0)
			http.NotFound(w, r)
			return
		}
		writePage(w, r, s.IndexPage())
	}))

	// Serve notes.
	m.Handle(notePathPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		path := strings.TrimPrefix(r.URL.Path, notePathPrefix)
		doc, err := s.RenderNote(path)
		if err != nil {
			w.Header().Set("Cache-Control", cacheMaxAge0)
			if errors.Is(err, ErrNoteNotFound) {
				logging.FromContext(r.Context()).Warn("couldn't find requested note")
				http.NotFound(w, r)
			} else {
				logging.FromContext(r.Context()).Error("rendering note", logging.FieldError, err.Error())
				http.Error(w, "content error: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writePage(w, r, doc.HTML)
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger().With(logging.FieldMethod, r.Method, logging.FieldPath, r.URL.Path)
		logger.Info("request")
		m.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}
