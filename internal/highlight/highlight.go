// Package highlight applies scanner output to an HTML node tree: text nodes
// containing legal terms are replaced by plain text and marker spans.
package highlight

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/lexhover/internal/scanner"
)

const (
	// MarkerClass is the class carried by every marker span.
	MarkerClass = "legal-term-highlight"
	// TooltipID is the id of the single shared tooltip element.
	TooltipID = "legal-term-tooltip"

	AttrTerm       = "data-term"
	AttrDefinition = "data-definition"
	AttrSource     = "data-source"
	AttrLoading    = "data-loading"
)

// Highlighter walks node trees and wraps detected terms in marker spans.
type Highlighter struct {
	detector *scanner.Detector
	logger   *zap.Logger
}

// New creates a Highlighter backed by detector.
func New(detector *scanner.Detector, logger *zap.Logger) *Highlighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Highlighter{detector: detector, logger: logger}
}

// Detector returns the detector used for scanning text.
func (h *Highlighter) Detector() *scanner.Detector {
	return h.detector
}

// Apply highlights n and its descendants depth-first and reports whether any
// marker was created. Script and style elements, existing markers, and the
// tooltip are left alone.
func (h *Highlighter) Apply(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return h.replaceText(n)
	case html.ElementNode:
		if skip(n) {
			return false
		}
	case html.DocumentNode:
	default:
		return false
	}

	// Collect children first: replacing a text node rewires the sibling list.
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	found := false
	for _, c := range children {
		if h.Apply(c) {
			found = true
		}
	}
	return found
}

func (h *Highlighter) replaceText(n *html.Node) bool {
	parent := n.Parent
	if parent == nil {
		return false
	}
	segs := h.detector.Scan(n.Data)
	if !scanner.HasMarkers(segs) {
		return false
	}
	for _, seg := range segs {
		if seg.Kind == scanner.Marker {
			h.logger.Debug("legal term found", zap.String("term", seg.Term))
			parent.InsertBefore(NewMarker(seg.Text, seg.Term), n)
			continue
		}
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: seg.Text}, n)
	}
	parent.RemoveChild(n)
	return true
}

// NewMarker builds a detached marker span.
func NewMarker(text, term string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: AttrTerm, Val: term},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return span
}

func skip(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style:
		return true
	}
	return IsMarker(n) || Attr(n, "id") == TooltipID
}

// IsMarker reports whether n is a marker span.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(Attr(n, "class")) {
		if class == MarkerClass {
			return true
		}
	}
	return false
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets attribute key on n, adding it when missing.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
