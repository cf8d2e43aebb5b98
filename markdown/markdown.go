// Package markdown compiles Markdown notes into complete HTML documents.
package markdown

import (
	"github.com/sourcegraph/notes/internal/logging"
)

// Document is a compiled Markdown document.
type Document struct {
	// Meta is the document's metadata: from its meta block if it has a valid one, otherwise the
	// metadata inferred by the caller.
	Meta Metadata

	// Body is the rendered Markdown content, including the footnote list.
	Body []byte

	// HTML is the complete HTML page.
	HTML []byte
}

// Run compiles a Markdown document. inferred is used as the document's metadata unless the
// document has a valid meta block. Run never fails: invalid metadata and unknown code languages
// degrade to the inferred metadata and plain text.
func Run(source []byte, inferred Metadata) *Document {
	t := newTransformer(source)
	events := t.transform(Events(source))
	events = append(events, t.footnoteList()...)

	body, err := renderEvents(source, events)
	if err != nil {
		// The goldmark renderers never return errors when writing to memory.
		logging.Default().Error("rendering markdown", logging.FieldError, err.Error())
	}

	doc := Document{Meta: inferred, Body: body}
	if t.meta != nil {
		doc.Meta = *t.meta
	}
	doc.HTML = RenderDocument(doc.Meta, Stylesheet(), doc.Body)
	return &doc
}

// Compile is like Run but returns the page and the resolved metadata separately.
func Compile(source []byte, inferred Metadata) ([]byte, Metadata) {
	doc := Run(source, inferred)
	return doc.HTML, doc.Meta
}
