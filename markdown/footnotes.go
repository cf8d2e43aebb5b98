package markdown

import (
	"fmt"
	"html"
	"sort"

	"github.com/yuin/goldmark/ast"
)

// footnoteRecord is the buffered content of one footnote definition, from its EventStart to its
// EventEnd inclusive.
type footnoteRecord struct {
	name   string
	events []Event
}

// footnoteUsage is the presentation number of a footnote and how many times it was referenced.
type footnoteUsage struct {
	number int
	count  int
}

// footnoteCollector pulls footnote definitions out of the event stream and renumbers them in the
// order they are first referenced.
type footnoteCollector struct {
	// stack holds the definitions being collected. Definitions may nest, so while the stack is
	// non-empty every event goes to the top record instead of the output.
	stack []*footnoteRecord

	// defs holds the finished definitions in definition order.
	defs  []*footnoteRecord
	index map[string]int // name -> position in defs

	usage map[string]*footnoteUsage
}

func newFootnoteCollector() *footnoteCollector {
	return &footnoteCollector{
		index: map[string]int{},
		usage: map[string]*footnoteUsage{},
	}
}

// collecting reports whether a footnote definition is open.
func (c *footnoteCollector) collecting() bool {
	return len(c.stack) > 0
}

// process consumes e. It returns the events to emit in its place (none if e was buffered).
func (c *footnoteCollector) process(e Event) []Event {
	switch {
	case e.is(EventStart, KindFootnoteDefinition):
		name := string(e.Node.(*FootnoteDefinition).Name)
		c.stack = append(c.stack, &footnoteRecord{name: name, events: []Event{e}})
		return nil

	case e.is(EventEnd, KindFootnoteDefinition):
		rec := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		rec.events = append(rec.events, e)
		c.define(rec)
		return nil

	case e.Kind == EventFootnoteReference:
		e = c.reference(e.Name)
	}

	if c.collecting() {
		top := c.stack[len(c.stack)-1]
		top.events = append(top.events, e)
		return nil
	}
	return []Event{e}
}

// define stores rec, replacing an earlier definition of the same name.
func (c *footnoteCollector) define(rec *footnoteRecord) {
	if i, ok := c.index[rec.name]; ok {
		c.defs[i] = rec
		return
	}
	c.index[rec.name] = len(c.defs)
	c.defs = append(c.defs, rec)
}

// reference records a use of the named footnote and returns the superscript link to it.
func (c *footnoteCollector) reference(name string) Event {
	u, ok := c.usage[name]
	if !ok {
		u = &footnoteUsage{number: len(c.usage) + 1}
		c.usage[name] = u
	}
	u.count++

	id := html.EscapeString(name)
	return Event{
		Kind:    EventHTML,
		Literal: []byte(fmt.Sprintf(`<sup class="footnote-reference" id="fr-%s-%d"><a href="#fn-%s">[%d]</a></sup>`, id, u.count, id, u.number)),
	}
}

// dangling returns the names of referenced footnotes that were never defined, in reference order.
func (c *footnoteCollector) dangling() []string {
	var names []string
	for name := range c.usage {
		if _, ok := c.index[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return c.usage[names[i]].number < c.usage[names[j]].number })
	return names
}

// list returns the events of the footnote list: the referenced definitions ordered by presentation
// number, each followed by links back to its references. It returns nil if no defined footnote was
// referenced.
func (c *footnoteCollector) list() []Event {
	var used []*footnoteRecord
	for _, rec := range c.defs {
		if u, ok := c.usage[rec.name]; ok && u.count > 0 {
			used = append(used, rec)
		}
	}
	if len(used) == 0 {
		return nil
	}
	sort.SliceStable(used, func(i, j int) bool {
		return c.usage[used[i].name].number < c.usage[used[j].name].number
	})

	events := []Event{htmlEvent("<hr>\n<ol class=\"footnotes-list\">\n")}
	for _, rec := range used {
		id := html.EscapeString(rec.name)
		events = append(events, htmlEvent(fmt.Sprintf(`<li id="fn-%s">`, id)))
		events = append(events, withBacklinks(rec.events, id, c.usage[rec.name].count)...)
		events = append(events, htmlEvent("</li>\n"))
	}
	return append(events, htmlEvent("</ol>\n"))
}

// withBacklinks returns the definition's content (without its own Start and End events) with
// backlinks to each reference. The backlinks go inside the last paragraph if the definition ends
// with one.
func withBacklinks(events []Event, id string, count int) []Event {
	var links []byte
	for k := 1; k <= count; k++ {
		if count == 1 {
			links = fmt.Appendf(links, ` <a href="#fr-%s-%d">↩</a>`, id, k)
		} else {
			links = fmt.Appendf(links, ` <a href="#fr-%s-%d">↩%d</a>`, id, k, k)
		}
	}
	backlinks := Event{Kind: EventHTML, Literal: links}

	inner := events[1 : len(events)-1]
	out := make([]Event, 0, len(inner)+1)
	if n := len(inner); n > 0 && inner[n-1].is(EventEnd, ast.KindParagraph) {
		out = append(out, inner[:n-1]...)
		out = append(out, backlinks, inner[n-1])
		return out
	}
	out = append(out, inner...)
	return append(out, backlinks)
}

func htmlEvent(s string) Event {
	return Event{Kind: EventHTML, Literal: []byte(s)}
}
