package markdown

import (
	"github.com/yuin/goldmark/ast"
)

// EventKind is the kind of an Event.
type EventKind int

const (
	// EventStart opens a container node (paragraph, heading, list, footnote definition, ...).
	EventStart EventKind = iota
	// EventEnd closes the node opened by the matching EventStart.
	EventEnd
	// EventText is a run of text. Node is the *ast.Text or *ast.String it came from, or nil for
	// the contents of a fenced code block.
	EventText
	// EventHTML is raw HTML that is written to the output as-is.
	EventHTML
	// EventFootnoteReference is an inline [^name] reference.
	EventFootnoteReference
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "Start"
	case EventEnd:
		return "End"
	case EventText:
		return "Text"
	case EventHTML:
		return "HTML"
	case EventFootnoteReference:
		return "FootnoteReference"
	default:
		return "Unknown"
	}
}

// Event is a single item of the flattened document. Events are produced in document order and
// every EventStart has a matching EventEnd for the same Node.
type Event struct {
	Kind EventKind

	// Node is the syntax tree node the event was derived from. It is nil for synthesized events.
	Node ast.Node

	// Literal is the text of an EventText or the markup of an EventHTML.
	Literal []byte

	// Name is the footnote label of an EventFootnoteReference.
	Name string
}

// is reports whether e is a Start or End event (per kind) for a node of the given node kind.
func (e Event) is(kind EventKind, nodeKind ast.NodeKind) bool {
	return e.Kind == kind && e.Node != nil && e.Node.Kind() == nodeKind
}

// Events parses the Markdown source and returns its event stream.
func Events(source []byte) []Event {
	doc := NewParser().Parse(source)
	return flatten(doc, source)
}

func flatten(doc ast.Node, source []byte) []Event {
	var events []Event
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := node.(type) {
		case *ast.Document:
			return ast.WalkContinue, nil
		case *ast.Text:
			if entering {
				events = append(events, Event{Kind: EventText, Node: n, Literal: n.Value(source)})
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				events = append(events, Event{Kind: EventText, Node: n, Literal: n.Value})
			}
			return ast.WalkContinue, nil
		case *FootnoteReference:
			if entering {
				events = append(events, Event{Kind: EventFootnoteReference, Node: n, Name: string(n.Name)})
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if entering {
				events = append(events,
					Event{Kind: EventStart, Node: n},
					Event{Kind: EventText, Literal: blockLines(n, source)},
				)
			} else {
				events = append(events, Event{Kind: EventEnd, Node: n})
			}
			return ast.WalkContinue, nil
		}

		kind := EventEnd
		if entering {
			kind = EventStart
		}
		events = append(events, Event{Kind: kind, Node: node})
		return ast.WalkContinue, nil
	})
	return events
}

func blockLines(n ast.Node, source []byte) []byte {
	var buf []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf = append(buf, line.Value(source)...)
	}
	return buf
}
