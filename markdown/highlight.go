package markdown

import (
	"bytes"
	"html"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/sourcegraph/notes/internal/logging"
)

// HighlightStyle is the name of the chroma style used for code blocks.
const HighlightStyle = "base16-snazzy"

// highlighter holds the lexer fallback, style, and formatter shared by every call to Highlight.
// It is built once and never modified afterwards.
type highlighter struct {
	plaintext chroma.Lexer
	style     *chroma.Style
	formatter *chromahtml.Formatter
	css       string
}

var (
	highlighterOnce   sync.Once
	sharedHighlighter *highlighter
)

func getHighlighter() *highlighter {
	highlighterOnce.Do(func() {
		h := &highlighter{
			plaintext: lexers.Get("plaintext"),
			style:     styles.Get(HighlightStyle),
			formatter: chromahtml.New(chromahtml.WithClasses(true)),
		}
		if h.plaintext == nil {
			h.plaintext = lexers.Fallback
		}
		var buf bytes.Buffer
		if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
			logging.Default().Error("generating highlight theme CSS", logging.FieldError, err.Error())
		}
		h.css = buf.String()
		sharedHighlighter = h
	})
	return sharedHighlighter
}

func (h *highlighter) lexer(lang string) chroma.Lexer {
	if lang == "" {
		return h.plaintext
	}
	if l := lexers.Get(lang); l != nil {
		return l
	}
	return h.plaintext
}

// Highlight renders code as syntax-highlighted HTML for the given language tag (a language name,
// alias, or file extension). An empty or unknown tag is rendered as plain text. If the highlighter
// fails, the code is returned unhighlighted but HTML-escaped, in a plain <pre><code> block, so it
// is never emitted as raw markup.
func Highlight(code, lang string) string {
	h := getHighlighter()

	lexer := chroma.Coalesce(h.lexer(lang))
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		logging.Default().Debug("tokenising code block", logging.FieldLang, lang, logging.FieldError, err.Error())
		return plainCodeBlock(code)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		logging.Default().Debug("formatting code block", logging.FieldLang, lang, logging.FieldError, err.Error())
		return plainCodeBlock(code)
	}
	return buf.String()
}

func plainCodeBlock(code string) string {
	return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
}

// HighlightCSS returns the stylesheet for the classes emitted by Highlight.
func HighlightCSS() string {
	return getHighlighter().css
}
