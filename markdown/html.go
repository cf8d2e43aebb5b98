package markdown

import (
	"bufio"
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// rendererFuncs maps each node kind to the goldmark function that writes it as HTML.
type rendererFuncs map[ast.NodeKind]renderer.NodeRendererFunc

func (r rendererFuncs) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	r[kind] = fn
}

var (
	htmlRenderersOnce sync.Once
	htmlRenderers     rendererFuncs
)

// getHTMLRenderers returns the renderer funcs for every node kind. The map is built on first use
// so that the node kinds declared in this package are already assigned.
func getHTMLRenderers() rendererFuncs {
	htmlRenderersOnce.Do(func() {
		funcs := rendererFuncs{}
		for _, nr := range []renderer.NodeRenderer{
			goldmarkhtml.NewRenderer(goldmarkhtml.WithUnsafe()),
			extension.NewTableHTMLRenderer(),
			extension.NewStrikethroughHTMLRenderer(),
			extension.NewTaskCheckBoxHTMLRenderer(),
			&nodeRenderer{},
		} {
			nr.RegisterFuncs(funcs)
		}
		htmlRenderers = funcs
	})
	return htmlRenderers
}

// renderEvents writes events as an HTML fragment. source is the document the events' nodes were
// parsed from.
func renderEvents(source []byte, events []Event) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	// skip is the node whose children are not rendered (because its renderer already wrote them),
	// or nil.
	var skip ast.Node
	for _, e := range events {
		if skip != nil {
			if e.Kind == EventEnd && e.Node == skip {
				skip = nil
				if err := renderNode(w, source, e.Node, false); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch e.Kind {
		case EventStart:
			status, err := renderEnter(w, source, e.Node)
			if err != nil {
				return nil, err
			}
			if status == ast.WalkSkipChildren {
				skip = e.Node
			}
		case EventEnd:
			if err := renderNode(w, source, e.Node, false); err != nil {
				return nil, err
			}
		case EventText:
			if e.Node == nil {
				_, _ = w.Write(util.EscapeHTML(e.Literal))
				continue
			}
			if _, err := renderEnter(w, source, e.Node); err != nil {
				return nil, err
			}
			if err := renderNode(w, source, e.Node, false); err != nil {
				return nil, err
			}
		case EventHTML:
			_, _ = w.Write(e.Literal)
		case EventFootnoteReference:
			_, _ = w.WriteString("[^")
			_, _ = w.Write(util.EscapeHTML([]byte(e.Name)))
			_ = w.WriteByte(']')
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderEnter(w util.BufWriter, source []byte, node ast.Node) (ast.WalkStatus, error) {
	fn, ok := getHTMLRenderers()[node.Kind()]
	if !ok {
		return ast.WalkContinue, nil
	}
	return fn(w, source, node, true)
}

func renderNode(w util.BufWriter, source []byte, node ast.Node, entering bool) error {
	fn, ok := getHTMLRenderers()[node.Kind()]
	if !ok {
		return nil
	}
	_, err := fn(w, source, node, entering)
	return err
}

var _ renderer.NodeRenderer = (*nodeRenderer)(nil)

type nodeRenderer struct{}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		n := node.(*ast.Heading)
		if !entering {
			_, _ = w.WriteString("</h")
			_ = w.WriteByte("0123456"[n.Level])
			_, _ = w.WriteString(">\n")
			return ast.WalkContinue, nil
		}

		_, _ = w.WriteString("<h")
		_ = w.WriteByte("0123456"[n.Level])
		if n.Attributes() != nil {
			goldmarkhtml.RenderAttributes(w, node, goldmarkhtml.HeadingAttributeFilter)
		}
		_ = w.WriteByte('>')

		// "#" anchor link for copying links to sections. A heading that is only a link gets a bare
		// anchor.
		attrID := GetAttributeID(n)
		if attrID == "" {
			return ast.WalkContinue, nil
		}
		if hasSingleChildOfLink(n) {
			_, _ = fmt.Fprintf(w, `<a name="%s" aria-hidden="true"></a>`, attrID)
		} else {
			_, _ = fmt.Fprintf(w, `<a name="%[1]s" class="anchor" href="#%[1]s" rel="nofollow" aria-hidden="true" title="#%[1]s"></a>`, attrID)
		}
		return ast.WalkContinue, nil
	})

	// Fenced code blocks normally reach the output already highlighted. This renders any that
	// don't; the block's text arrives as a separate event.
	reg.Register(ast.KindFencedCodeBlock, func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			_, _ = w.WriteString("</code></pre>\n")
			return ast.WalkContinue, nil
		}
		n := node.(*ast.FencedCodeBlock)
		_, _ = w.WriteString("<pre><code")
		if lang := n.Language(source); lang != nil {
			_, _ = w.WriteString(` class="language-`)
			_, _ = w.Write(util.EscapeHTML(lang))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
		return ast.WalkContinue, nil
	})

	reg.Register(KindMath, func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		n := node.(*Math)
		class := "math math-inline"
		if n.Display {
			class = "math math-display"
		}
		_, _ = fmt.Fprintf(w, `<span class="%s">`, class)
		_, _ = w.Write(util.EscapeHTML(n.Value))
		_, _ = w.WriteString("</span>")
		return ast.WalkSkipChildren, nil
	})
}

// GetAttributeID returns the node's "id" attribute, or "" if it has none.
func GetAttributeID(node ast.Node) string {
	attr, ok := node.AttributeString("id")
	if !ok {
		return ""
	}

	v, ok := attr.([]byte)
	if !ok {
		return ""
	}
	return string(v)
}

func hasSingleChildOfLink(node ast.Node) bool {
	seenLink := false
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch {
		case child.Kind() == ast.KindText && child.(*ast.Text).Segment.Len() == 0:
			continue
		case child.Kind() == ast.KindLink && !seenLink:
			seenLink = true
		default:
			return false
		}
	}
	return seenLink
}
