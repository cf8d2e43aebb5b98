package markdown

import (
	"bytes"
	_ "embed"
	"html/template"
	"sync"
)

// DefaultLang is the document language used when the metadata doesn't name one.
const DefaultLang = "en"

//go:embed styles.css
var baseStyles string

var (
	stylesheetOnce sync.Once
	stylesheet     string
)

// Stylesheet returns the CSS embedded in every document: the base styles followed by the code
// highlighting theme.
func Stylesheet() string {
	stylesheetOnce.Do(func() {
		stylesheet = baseStyles + "\n" + HighlightCSS()
	})
	return stylesheet
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Meta.Title}}</title>
<meta property="og:title" content="{{.Meta.Title}}">
{{- with .Meta.Desc}}
<meta name="description" content="{{.}}">
<meta property="og:description" content="{{.}}">
{{- end}}
<style>{{.Styles}}</style>
</head>
<body>
<h1> {{.Meta.Title}}</h1>
<article>
{{.Body}}</article>
</body>
</html>
`))

type documentData struct {
	Meta   Metadata
	Lang   string
	Styles template.CSS
	Body   template.HTML
}

// RenderDocument wraps an HTML body in a complete page for the given metadata. styles is trusted
// CSS and body is trusted HTML; the metadata fields are escaped.
func RenderDocument(meta Metadata, styles string, body []byte) []byte {
	data := documentData{
		Meta:   meta,
		Lang:   meta.Lang,
		Styles: template.CSS(styles),
		Body:   template.HTML(body),
	}
	if data.Lang == "" {
		data.Lang = DefaultLang
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		panic("rendering document template: " + err.Error())
	}
	return buf.Bytes()
}
