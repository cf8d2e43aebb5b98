package markdown

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var inferred = Metadata{Title: "X", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

func body(t *testing.T, source string) string {
	t.Helper()
	return string(Run([]byte(source), inferred).Body)
}

func TestMarkdown(t *testing.T) {
	got := strings.TrimSpace(body(t, "Hello world github/linguist#1 **cool**, and #1!"))
	want := "<p>Hello world github/linguist#1 <strong>cool</strong>, and #1!</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHeadingAnchorLink(t *testing.T) {
	got := strings.TrimSpace(body(t, "## Hello World"))
	want := `<h2 id="hello-world"><a name="hello-world" class="anchor" href="#hello-world" rel="nofollow" aria-hidden="true" title="#hello-world"></a>Hello World</h2>`
	if got != want {
		t.Errorf("\ngot:  %s\nwant: %s", got, want)
	}
}

func TestHeadingIDsUnique(t *testing.T) {
	got := body(t, "# A\n\n# A\n\n# A\n")
	for _, id := range []string{`id="a"`, `id="a-1"`, `id="a-2"`} {
		if !strings.Contains(got, id) {
			t.Errorf("missing %s in %q", id, got)
		}
	}
}

func TestMath(t *testing.T) {
	got := body(t, "Euler: $e^{i\\pi}+1=0$ and $$x^2$$, but $5 and $6 is money.")
	for _, want := range []string{
		`<span class="math math-inline">e^{i\pi}+1=0</span>`,
		`<span class="math math-display">x^2</span>`,
		`$5 and $6 is money.`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestExtensions(t *testing.T) {
	got := body(t, "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n")
	for _, want := range []string{"<table>", "<td>1</td>", "<del>gone</del>", `type="checkbox"`} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestMetadataOverride(t *testing.T) {
	_, meta := Compile([]byte("```meta\ntitle = \"T\"\ndate = 2024-01-01\nlang = \"de\"\n```\n\nBody\n"), inferred)
	if meta.Title != "T" || meta.Lang != "de" || meta.Date.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("got %+v, want embedded metadata", meta)
	}
}

func TestMetadataFallback(t *testing.T) {
	tests := map[string]string{
		"no meta block":  "Body\n",
		"unknown key":    "```meta\ntitle = \"T\"\ndate = 2024-01-01\ncolor = \"red\"\n```\n",
		"missing date":   "```meta\ntitle = \"T\"\n```\n",
		"not toml":       "```meta\n{{ nope\n```\n",
		"empty":          "```meta\n```\n",
		"indented block": "    title = \"T\"\n    date = 2024-01-01\n",
	}
	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			_, meta := Compile([]byte(source), inferred)
			if diff := cmp.Diff(inferred, meta); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestMetadataLastValidBlockWins(t *testing.T) {
	source := "```meta\ntitle = \"First\"\ndate = 2024-01-01\n```\n\n" +
		"```meta\ntitle = \"Second\"\ndate = 2024-02-02\n```\n\n" +
		"```meta\ntitle = \"Broken\"\n```\n"
	_, meta := Compile([]byte(source), inferred)
	if meta.Title != "Second" {
		t.Errorf("got title %q, want %q", meta.Title, "Second")
	}
}

func TestMetaBlockInvisible(t *testing.T) {
	for _, source := range []string{
		"```meta\ntitle = \"T\"\ndate = 2024-01-01\n```\n\nBody\n",
		"```meta\ntitle = \"T\"\nbogus = 1\n```\n\nBody\n",
	} {
		got := body(t, source)
		if strings.Contains(got, "title =") || strings.Contains(got, "<pre") {
			t.Errorf("meta block leaked into output: %q", got)
		}
		if strings.TrimSpace(got) != "<p>Body</p>" {
			t.Errorf("got %q, want only the paragraph", got)
		}
	}
}

func TestCodeBlocks(t *testing.T) {
	t.Run("highlighted", func(t *testing.T) {
		got := body(t, "```go\nfunc main() {}\n```\n")
		if want := Highlight("func main() {}\n", "go"); !strings.Contains(got, want) {
			t.Errorf("got %q, want it to contain %q", got, want)
		}
		if !strings.Contains(got, `<span class="kd">func</span>`) {
			t.Errorf("got %q, want a highlighted keyword", got)
		}
	})

	t.Run("no language", func(t *testing.T) {
		got := body(t, "```\na < b\n```\n")
		if want := Highlight("a < b\n", ""); !strings.Contains(got, want) {
			t.Errorf("got %q, want it to contain %q", got, want)
		}
		if strings.Contains(got, "a < b") {
			t.Errorf("code was not escaped: %q", got)
		}
	})

	t.Run("indented", func(t *testing.T) {
		got := strings.TrimSpace(body(t, "    a < b\n"))
		if want := "<pre><code>a &lt; b\n</code></pre>"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestFootnotes(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		got := body(t, "Body [^1]\n\n[^1]: Note.\n")
		want := `<p>Body <sup class="footnote-reference" id="fr-1-1"><a href="#fn-1">[1]</a></sup></p>` + "\n" +
			"<hr>\n<ol class=\"footnotes-list\">\n" +
			`<li id="fn-1"><p>Note. <a href="#fr-1-1">↩</a></p>` + "\n" +
			"</li>\n</ol>\n"
		if got != want {
			t.Errorf("\ngot:  %q\nwant: %q", got, want)
		}
	})

	t.Run("numbered by first reference", func(t *testing.T) {
		got := body(t, "First[^b] then[^a].\n\n[^a]: A note.\n\n[^b]: B note.\n")
		for _, want := range []string{
			`id="fr-b-1"><a href="#fn-b">[1]</a>`,
			`id="fr-a-1"><a href="#fn-a">[2]</a>`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q in %q", want, got)
			}
		}
		if b, a := strings.Index(got, `<li id="fn-b">`), strings.Index(got, `<li id="fn-a">`); b < 0 || a < 0 || b > a {
			t.Errorf("want fn-b listed before fn-a, got %q", got)
		}
	})

	t.Run("unreferenced definitions are dropped", func(t *testing.T) {
		got := body(t, "Text.\n\n[^x]: Unused.\n")
		if strings.Contains(got, "Unused") || strings.Contains(got, "footnotes-list") {
			t.Errorf("got %q, want no footnote list", got)
		}
	})

	t.Run("backlink per reference", func(t *testing.T) {
		got := body(t, "A[^n] B[^n] C[^n]\n\n[^n]: Note.\n")
		want := `<li id="fn-n"><p>Note. <a href="#fr-n-1">↩1</a> <a href="#fr-n-2">↩2</a> <a href="#fr-n-3">↩3</a></p>`
		if !strings.Contains(got, want) {
			t.Errorf("got %q, want it to contain %q", got, want)
		}
		if n := strings.Count(got, `<a href="#fn-n">[1]</a>`); n != 3 {
			t.Errorf("got %d references, want 3", n)
		}
	})

	t.Run("dangling reference", func(t *testing.T) {
		got := body(t, "See[^missing].\n")
		if !strings.Contains(got, `<a href="#fn-missing">[1]</a>`) {
			t.Errorf("got %q, want a numbered link", got)
		}
		if strings.Contains(got, "footnotes-list") {
			t.Errorf("got %q, want no footnote list", got)
		}
	})

	t.Run("redefinition replaces", func(t *testing.T) {
		got := body(t, "A[^1].\n\n[^1]: Old.\n\n[^1]: New.\n")
		if strings.Contains(got, "Old.") || !strings.Contains(got, "New.") {
			t.Errorf("got %q, want only the last definition", got)
		}
		if n := strings.Count(got, "<li "); n != 1 {
			t.Errorf("got %d list items, want 1", n)
		}
	})

	t.Run("reference inside definition", func(t *testing.T) {
		got := body(t, "A[^1].\n\n[^1]: See also[^2].\n\n[^2]: Deeper.\n")
		item := got[strings.Index(got, `<li id="fn-1">`):strings.Index(got, `<li id="fn-2">`)]
		if !strings.Contains(item, `id="fr-2-1"><a href="#fn-2">[2]</a>`) {
			t.Errorf("got %q, want a reference to footnote 2", item)
		}
	})

	t.Run("code block inside definition", func(t *testing.T) {
		got := body(t, "See[^c].\n\n[^c]: Code:\n\n    ```go\n    x := 1\n    ```\n")
		item := got[strings.Index(got, `<li id="fn-c">`):]
		if !strings.Contains(item, `<pre class="chroma">`) {
			t.Errorf("got %q, want highlighted code in the footnote", item)
		}
		if !strings.Contains(item, `</pre> <a href="#fr-c-1">↩</a></li>`) {
			t.Errorf("got %q, want the backlink after the code block", item)
		}
	})

	t.Run("escaped names", func(t *testing.T) {
		got := body(t, "A[^<b>].\n\n[^<b>]: Note.\n")
		if !strings.Contains(got, `id="fr-&lt;b&gt;-1"`) || !strings.Contains(got, `<li id="fn-&lt;b&gt;">`) {
			t.Errorf("got %q, want escaped ids", got)
		}
	})
}

func TestScenario(t *testing.T) {
	source := "# Hi\n\n```meta\ntitle = \"T\"\ndate = 2024-01-01\n```\nBody [^1]\n\n[^1]: Note."
	page, meta := Compile([]byte(source), inferred)

	if meta.Title != "T" || meta.Date.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("got metadata %+v", meta)
	}
	if !bytes.Contains(page, []byte("<h1> T</h1>")) {
		t.Errorf("missing title heading in %s", page)
	}
	if !bytes.Contains(page, []byte(`id="fr-1-1"`)) {
		t.Errorf("missing reference in %s", page)
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	var items []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.DataAtom == atom.Li && attr(n, "id") == "fn-1" {
			items = append(items, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(items) != 1 {
		t.Fatalf("got %d footnote items, want 1", len(items))
	}
	if text := textContent(items[0]); !strings.Contains(text, "Note.") {
		t.Errorf("got footnote text %q, want it to contain %q", text, "Note.")
	}
	var backlinks []string
	walk = func(n *html.Node) {
		if n.DataAtom == atom.A {
			backlinks = append(backlinks, attr(n, "href"))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(items[0])
	if diff := cmp.Diff([]string{"#fr-1-1"}, backlinks); diff != "" {
		t.Error(diff)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func TestRunConcurrent(t *testing.T) {
	source := []byte("```meta\ntitle = \"T\"\ndate = 2024-01-01\n```\n\nA[^1] and `code`.\n\n```rust\nfn main() {}\n```\n\n[^1]: Note.\n")
	want := Run(source, inferred).HTML
	done := make(chan []byte)
	for i := 0; i < 8; i++ {
		go func() { done <- Run(source, inferred).HTML }()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; !bytes.Equal(got, want) {
			t.Error("concurrent compilations differ")
		}
	}
}
