package markdown

import (
	"github.com/yuin/goldmark/ast"

	"github.com/sourcegraph/notes/internal/logging"
)

// parseState is the transformer's capture state. Exactly one state is active at a time.
type parseState int

const (
	stateNormal parseState = iota
	stateCollectingMeta
	stateCollectingCode
)

// transformer rewrites a document's event stream in a single forward pass:
//
//   - a fenced code block tagged "meta" is removed and its contents decoded as the document's
//     metadata,
//   - every other fenced code block is replaced by its highlighted HTML,
//   - footnote definitions are removed and collected, and footnote references are replaced by
//     numbered links.
type transformer struct {
	source []byte

	state parseState
	lang  string // language of the code block being collected
	buf   []byte // text of the meta or code block being collected

	// meta is the metadata from the last valid meta block, if any.
	meta *Metadata

	footnotes *footnoteCollector
}

func newTransformer(source []byte) *transformer {
	return &transformer{
		source:    source,
		footnotes: newFootnoteCollector(),
	}
}

// transform returns the transformed events. The footnote list is not included; see
// footnoteList.
func (t *transformer) transform(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		for _, e := range t.capture(e) {
			out = append(out, t.footnotes.process(e)...)
		}
	}
	for _, name := range t.footnotes.dangling() {
		logging.Default().Debug("footnote referenced but never defined", logging.FieldName, name)
	}
	return out
}

// footnoteList returns the events of the footnote list to append to the document body.
func (t *transformer) footnoteList() []Event {
	return t.footnotes.list()
}

// capture handles fenced code blocks. It returns the events to pass on, if any.
func (t *transformer) capture(e Event) []Event {
	switch t.state {
	case stateNormal:
		if !e.is(EventStart, ast.KindFencedCodeBlock) {
			return []Event{e}
		}
		t.lang = string(e.Node.(*ast.FencedCodeBlock).Language(t.source))
		t.buf = t.buf[:0]
		if t.lang == metaLanguage {
			t.state = stateCollectingMeta
		} else {
			t.state = stateCollectingCode
		}
		return nil

	case stateCollectingMeta:
		switch {
		case e.Kind == EventText:
			t.buf = append(t.buf, e.Literal...)
		case e.is(EventEnd, ast.KindFencedCodeBlock):
			t.state = stateNormal
			meta, err := parseMetadata(string(t.buf))
			if err != nil {
				logging.Default().Warn("ignoring invalid meta block", logging.FieldError, err.Error())
				return nil
			}
			t.meta = &meta
		}
		return nil

	case stateCollectingCode:
		switch {
		case e.Kind == EventText:
			t.buf = append(t.buf, e.Literal...)
		case e.is(EventEnd, ast.KindFencedCodeBlock):
			t.state = stateNormal
			return []Event{htmlEvent(Highlight(string(t.buf), t.lang))}
		}
		return nil
	}
	panic("unreachable")
}
