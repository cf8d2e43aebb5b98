package markdown

import (
	"fmt"

	"github.com/shurcooL/sanitized_anchor_name"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// markdownParser is shared by all documents. Per-document state lives in the parser.Context
// passed to Parse.
var markdownParser = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		&extender{},
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
).Parser()

// Parser parses Markdown source into a syntax tree with unique heading IDs.
type Parser struct {
	parser parser.Parser
}

// NewParser creates a new Markdown parser (the same one used by Run).
func NewParser() *Parser {
	return &Parser{parser: markdownParser}
}

// Parse parses source. Footnote definitions stay where they were written, and footnote references
// are kept even when no definition exists.
func (p *Parser) Parse(source []byte) ast.Node {
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	return p.parser.Parse(text.NewReader(source), parser.WithContext(ctx))
}

var _ goldmark.Extender = (*extender)(nil)

type extender struct{}

func (e *extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&footnoteDefinitionParser{}, 999),
		),
		parser.WithInlineParsers(
			util.Prioritized(&footnoteReferenceParser{}, 101),
			util.Prioritized(&mathParser{}, 150),
		),
	)
}

// FootnoteDefinition is a "[^name]: ..." block. Its children are the footnote's content.
type FootnoteDefinition struct {
	ast.BaseBlock
	Name []byte
}

// KindFootnoteDefinition is the NodeKind of FootnoteDefinition.
var KindFootnoteDefinition = ast.NewNodeKind("FootnoteDefinition")

func (n *FootnoteDefinition) Kind() ast.NodeKind { return KindFootnoteDefinition }

func (n *FootnoteDefinition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

// FootnoteReference is an inline "[^name]".
type FootnoteReference struct {
	ast.BaseInline
	Name []byte
}

// KindFootnoteReference is the NodeKind of FootnoteReference.
var KindFootnoteReference = ast.NewNodeKind("FootnoteReference")

func (n *FootnoteReference) Kind() ast.NodeKind { return KindFootnoteReference }

func (n *FootnoteReference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

// Math is an inline "$...$" or display "$$...$$" formula.
type Math struct {
	ast.BaseInline
	Display bool
	Value   []byte
}

// KindMath is the NodeKind of Math.
var KindMath = ast.NewNodeKind("Math")

func (n *Math) Kind() ast.NodeKind { return KindMath }

func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Display": fmt.Sprint(n.Display),
		"Value":   string(n.Value),
	}, nil)
}

// footnoteDefinitionParser opens and continues definitions the same way goldmark's footnote
// extension does, but leaves the node in place so that the definition's position in the event
// stream is preserved.
type footnoteDefinitionParser struct{}

func (b *footnoteDefinitionParser) Trigger() []byte {
	return []byte{'['}
}

func (b *footnoteDefinitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || line[pos] != '[' {
		return nil, parser.NoChildren
	}
	pos++
	if pos > len(line)-1 || line[pos] != '^' {
		return nil, parser.NoChildren
	}
	open := pos + 1
	closure := util.FindClosure(line[pos+1:], '[', ']', false, false) //nolint:staticcheck
	if closure < 0 {
		return nil, parser.NoChildren
	}
	closes := pos + 1 + closure
	next := closes + 1
	if next >= len(line) || line[next] != ':' {
		return nil, parser.NoChildren
	}
	padding := segment.Padding
	label := reader.Value(text.NewSegment(segment.Start+open-padding, segment.Start+closes-padding))
	if util.IsBlank(label) {
		return nil, parser.NoChildren
	}
	node := &FootnoteDefinition{Name: label}

	pos = next + 1 - padding
	if pos >= len(line) {
		reader.Advance(pos)
		return node, parser.NoChildren
	}
	reader.AdvanceAndSetPadding(pos, padding)
	return node, parser.HasChildren
}

func (b *footnoteDefinitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}
	childpos, padding := util.IndentPosition(line, reader.LineOffset(), 4)
	if childpos < 0 {
		return parser.Close
	}
	reader.AdvanceAndSetPadding(childpos, padding)
	return parser.Continue | parser.HasChildren
}

func (b *footnoteDefinitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *footnoteDefinitionParser) CanInterruptParagraph() bool {
	return true
}

func (b *footnoteDefinitionParser) CanAcceptIndentedLine() bool {
	return false
}

type footnoteReferenceParser struct{}

func (s *footnoteReferenceParser) Trigger() []byte {
	return []byte{'['}
}

func (s *footnoteReferenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if len(line) < 3 || line[1] != '^' {
		return nil
	}
	closure := util.FindClosure(line[2:], '[', ']', false, false) //nolint:staticcheck
	if closure < 1 {
		return nil
	}
	closes := 2 + closure
	name := block.Value(text.NewSegment(segment.Start+2, segment.Start+closes))
	if util.IsBlank(name) {
		return nil
	}
	block.Advance(closes + 1)
	return &FootnoteReference{Name: name}
}

type mathParser struct{}

func (s *mathParser) Trigger() []byte {
	return []byte{'$'}
}

func (s *mathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	if len(body) == 0 || util.IsSpace(body[0]) {
		return nil
	}
	for i := 0; i+delim <= len(body); i++ {
		if body[i] == '\\' {
			i++
			continue
		}
		if body[i] != '$' {
			continue
		}
		if delim == 2 && (i+1 >= len(body) || body[i+1] != '$') {
			continue
		}
		if i == 0 || (delim == 1 && util.IsSpace(body[i-1])) {
			return nil
		}
		value := make([]byte, i)
		copy(value, body[:i])
		block.Advance(delim + i + delim)
		return &Math{Display: delim == 2, Value: value}
	}
	return nil
}

// headingIDs generates heading IDs from the heading text, made unique within the document by
// appending "-1", "-2", etc.
type headingIDs struct {
	seen map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: map[string]int{}}
}

func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	id := sanitized_anchor_name.Create(string(value))
	if id == "" {
		id = "heading"
		if kind != ast.KindHeading {
			id = "id"
		}
	}
	return []byte(s.ensureUnique(id))
}

func (s *headingIDs) Put(value []byte) {
	s.ensureUnique(string(value))
}

// Copied from blackfriday.
func (s *headingIDs) ensureUnique(id string) string {
	for count, found := s.seen[id]; found; count, found = s.seen[id] {
		tmp := fmt.Sprintf("%s-%d", id, count+1)

		if _, tmpFound := s.seen[tmp]; !tmpFound {
			s.seen[id] = count + 1
			id = tmp
		} else {
			id = id + "-1"
		}
	}

	if _, found := s.seen[id]; !found {
		s.seen[id] = 0
	}

	return id
}
