package highlight

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleID is the id of the injected stylesheet element.
const StyleID = "legal-term-styles"

// Stylesheet is the default look of markers and the tooltip.
const Stylesheet = `.legal-term-highlight{background:#fff3bf;border-bottom:1px dotted #b08800;cursor:help}
#legal-term-tooltip{position:absolute;z-index:2147483647;max-width:320px;padding:8px 10px;border-radius:6px;background:#1f2328;color:#fff;font:13px/1.4 sans-serif;box-shadow:0 4px 12px rgba(0,0,0,.25)}
#legal-term-tooltip .tooltip-word{font-weight:700;margin-bottom:4px}
#legal-term-tooltip .tooltip-source{margin-top:6px;font-size:11px;opacity:.7}`

// Document is one page: a parsed HTML tree, its highlighter, and the shared
// tooltip element. All tree mutations go through Do so hover handling and
// incremental scans never interleave.
type Document struct {
	mu           sync.Mutex
	doc          *goquery.Document
	highlighter  *Highlighter
	logger       *zap.Logger
	injectStyles bool
	tooltip      *html.Node
}

// Option configures a Document.
type Option func(*Document)

// WithStyles injects Stylesheet into <head> on Scan.
func WithStyles() Option {
	return func(d *Document) { d.injectStyles = true }
}

// WithLogger sets the document logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// Parse reads an HTML page.
func Parse(r io.Reader, h *Highlighter, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	d := &Document{doc: doc, highlighter: h, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(page string, h *Highlighter, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(page), h, opts...)
}

// Highlighter returns the highlighter the page was scanned with.
func (d *Document) Highlighter() *Highlighter {
	return d.highlighter
}

// Do runs fn with exclusive access to the tree.
func (d *Document) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Scan prepares the page and highlights the whole body. It reports whether
// any legal term was found.
func (d *Document) Scan() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := d.body()
	if body == nil {
		return false
	}
	if d.injectStyles {
		d.ensureStyles()
	}
	d.ensureTooltip(body)

	found := d.highlighter.Apply(body)
	if found {
		d.logger.Info("legal terms highlighted", zap.Int("markers", len(d.markers())))
	} else {
		d.logger.Info("no legal terms on page")
	}
	return found
}

// Observe rescans newly inserted subtrees. Only element nodes are
// considered and the tooltip is ignored, matching what a structural
// mutation observer delivers for dynamically loaded content.
func (d *Document) Observe(added ...*html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.observe(added)
}

func (d *Document) observe(added []*html.Node) bool {
	found := false
	for _, n := range added {
		if n.Type != html.ElementNode || Attr(n, "id") == TooltipID {
			continue
		}
		if d.highlighter.Apply(n) {
			found = true
		}
	}
	return found
}

// AppendHTML parses markup as children of the first element matching
// selector, appends them, and runs the incremental scan over the new nodes.
func (d *Document) AppendHTML(selector, markup string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(selector).First()
	if target.Length() == 0 {
		return false, fmt.Errorf("no element matches %q", selector)
	}
	parent := target.Nodes[0]

	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return false, fmt.Errorf("parsing fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return d.observe(nodes), nil
}

// Markers returns every marker span in document order.
func (d *Document) Markers() []*html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.markers()
}

func (d *Document) markers() []*html.Node {
	return d.doc.Find("span." + MarkerClass).Nodes
}

// Tooltip returns the shared tooltip element, creating it if needed.
func (d *Document) Tooltip() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := d.body()
	if body == nil {
		return nil
	}
	return d.ensureTooltip(body)
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.doc.Nodes[0])
}

// String renders the page, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) body() *html.Node {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return body.Nodes[0]
}

func (d *Document) ensureTooltip(body *html.Node) *html.Node {
	if d.tooltip != nil && d.tooltip.Parent != nil {
		return d.tooltip
	}
	if existing := d.doc.Find("#" + TooltipID); existing.Length() > 0 {
		d.tooltip = existing.Nodes[0]
		return d.tooltip
	}
	tip := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "id", Val: TooltipID},
			{Key: "style", Val: "display: none"},
		},
	}
	body.AppendChild(tip)
	d.tooltip = tip
	d.logger.Debug("tooltip element created")
	return tip
}

func (d *Document) ensureStyles() {
	if d.doc.Find("#"+StyleID).Length() > 0 {
		return
	}
	head := d.doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: Stylesheet})
	head.Nodes[0].AppendChild(style)
}
