package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/scanner"
)

func newHighlighter() *Highlighter {
	g := glossary.New(map[string]string{
		"injunction": "A court order requiring a person to do or cease doing a specific action.",
		"bail":       "Temporary release of an accused person awaiting trial.",
	})
	return New(scanner.NewDetector(g), nil)
}

func parse(t *testing.T, page string, opts ...Option) *Document {
	t.Helper()
	doc, err := ParseString(page, newHighlighter(), opts...)
	require.NoError(t, err)
	return doc
}

func TestScanWrapsGlossaryTermOnly(t *testing.T) {
	doc := parse(t, `<html><body><p>the injunction was granted</p></body></html>`)
	require.True(t, doc.Scan())

	markers := doc.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, "injunction", Attr(markers[0], AttrTerm))
	assert.Equal(t, "injunction", Text(markers[0]))

	p := markers[0].Parent
	require.NotNil(t, p)
	assert.Equal(t, "the injunction was granted", Text(p))

	// Surrounding words stay plain text nodes.
	assert.Equal(t, html.TextNode, markers[0].PrevSibling.Type)
	assert.Equal(t, "the ", markers[0].PrevSibling.Data)
	assert.Equal(t, html.TextNode, markers[0].NextSibling.Type)
	assert.Equal(t, " was granted", markers[0].NextSibling.Data)
}

func TestScanPatternMarker(t *testing.T) {
	doc := parse(t, `<html><body><div>Booked under IPC420 today.</div></body></html>`)
	require.True(t, doc.Scan())

	markers := doc.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, "IPC420", Attr(markers[0], AttrTerm))
	assert.Contains(t, doc.String(), `<span class="legal-term-highlight" data-term="IPC420">IPC420</span>`)
}

func TestScanNoBreakSpaceCitations(t *testing.T) {
	doc := parse(t, `<html><body><p>Under Section&nbsp;420 and 18&nbsp;USC&nbsp;1001 and Section 21</p></body></html>`)
	require.True(t, doc.Scan())

	markers := doc.Markers()
	require.Len(t, markers, 3)
	assert.Equal(t, "Section\u00a0420", Attr(markers[0], AttrTerm))
	assert.Equal(t, "18\u00a0USC\u00a01001", Attr(markers[1], AttrTerm))
	assert.Equal(t, "Section 21", Attr(markers[2], AttrTerm))
	assert.Equal(t, "Under Section\u00a0420 and 18\u00a0USC\u00a01001 and Section 21", Text(markers[0].Parent))
}

func TestScanSkipsScriptStyleAndTooltip(t *testing.T) {
	page := `<html><head><style>.bail{}</style></head><body>
<script>var injunction = 1;</script>
<div id="legal-term-tooltip">bail</div>
<span class="legal-term-highlight" data-term="bail">bail</span>
</body></html>`
	doc := parse(t, page)
	assert.False(t, doc.Scan())
	assert.Len(t, doc.Markers(), 1, "pre-existing marker must not be wrapped again")
}

func TestScanNoTerms(t *testing.T) {
	doc := parse(t, `<html><body><p>nothing to see</p></body></html>`)
	assert.False(t, doc.Scan())
	assert.Empty(t, doc.Markers())
}

func TestScanCreatesSingleTooltip(t *testing.T) {
	doc := parse(t, `<html><body><p>bail</p></body></html>`)
	doc.Scan()
	doc.Scan()

	out := doc.String()
	assert.Equal(t, 1, strings.Count(out, `id="legal-term-tooltip"`))
	tip := doc.Tooltip()
	require.NotNil(t, tip)
	assert.Equal(t, "display: none", Attr(tip, "style"))
}

func TestScanIsIdempotent(t *testing.T) {
	doc := parse(t, `<html><body><p>bail and injunction</p></body></html>`)
	require.True(t, doc.Scan())
	first := doc.String()

	assert.False(t, doc.Scan())
	assert.Equal(t, first, doc.String())
}

func TestAppendHTMLScansOnlyNewContent(t *testing.T) {
	doc := parse(t, `<html><body><div id="feed"><p>bail</p></div></body></html>`)
	require.True(t, doc.Scan())
	require.Len(t, doc.Markers(), 1)

	found, err := doc.AppendHTML("#feed", `<p>a new injunction issued</p>`)
	require.NoError(t, err)
	assert.True(t, found)

	markers := doc.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, "bail", Attr(markers[0], AttrTerm))
	assert.Equal(t, "injunction", Attr(markers[1], AttrTerm))
}

func TestAppendHTMLUnknownSelector(t *testing.T) {
	doc := parse(t, `<html><body></body></html>`)
	_, err := doc.AppendHTML("#missing", "<p>bail</p>")
	assert.Error(t, err)
}

func TestObserveIgnoresTextAndTooltipNodes(t *testing.T) {
	doc := parse(t, `<html><body></body></html>`)
	doc.Scan()

	text := &html.Node{Type: html.TextNode, Data: "bail"}
	assert.False(t, doc.Observe(text))

	tip := doc.Tooltip()
	tip.AppendChild(&html.Node{Type: html.TextNode, Data: "bail"})
	assert.False(t, doc.Observe(tip))
}

func TestWithStylesInjectsOnce(t *testing.T) {
	doc := parse(t, `<html><head></head><body><p>bail</p></body></html>`, WithStyles())
	doc.Scan()
	doc.Scan()
	assert.Equal(t, 1, strings.Count(doc.String(), `id="legal-term-styles"`))
}

func TestSetAttr(t *testing.T) {
	n := NewMarker("bail", "bail")
	SetAttr(n, AttrSource, "local")
	SetAttr(n, AttrSource, "cache")
	assert.Equal(t, "cache", Attr(n, AttrSource))
	assert.True(t, IsMarker(n))
	assert.False(t, IsMarker(nil))
}

func TestFromMarkdown(t *testing.T) {
	page, err := FromMarkdown([]byte("# Ruling\n\nThe court granted an **injunction**.\n"))
	require.NoError(t, err)

	doc, err := Parse(strings.NewReader(string(page)), newHighlighter())
	require.NoError(t, err)
	require.True(t, doc.Scan())
	assert.Equal(t, "injunction", Attr(doc.Markers()[0], AttrTerm))
}

func TestFromMarkdownFencedBlock(t *testing.T) {
	page, err := FromMarkdown([]byte("# Clause\n\n```json\n{\"term\": \"bail\"}\n```\n"))
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, "<pre")
	assert.Contains(t, out, "style=")
	assert.Contains(t, out, "<h1 id=\"clause\">Clause</h1>")
}
