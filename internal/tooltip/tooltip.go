// Package tooltip renders the single shared definition tooltip of a page.
package tooltip

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/lexhover/internal/resolver"
)

// LoadingText is shown while a definition is being fetched.
const LoadingText = "Loading definition..."

// gap is the distance in pixels between the marker and the tooltip.
const gap = 10

// Rect is a marker's bounding box in viewport coordinates.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Viewport carries the page scroll offsets.
type Viewport struct {
	ScrollX, ScrollY float64
}

// Position is the tooltip's absolute page position.
type Position struct {
	Left, Top float64
}

// Content is what the tooltip shows.
type Content struct {
	Term       string
	Definition string
	Source     resolver.Source
	Loading    bool
}

// State is a snapshot of the presenter.
type State struct {
	Visible  bool
	Content  Content
	Position Position
	Owner    *html.Node
}

// Measurer estimates the rendered height of content in pixels.
type Measurer func(Content) float64

// Presenter owns the tooltip element. Every node mutation runs through the
// do function so it is serialized with other changes to the page tree.
type Presenter struct {
	node    *html.Node
	do      func(func())
	measure Measurer

	mu      sync.Mutex
	visible bool
	owner   *html.Node
	content Content
	pos     Position
}

// NewPresenter binds a presenter to the tooltip node. do serializes tree
// mutations; nil runs them inline. measure may be nil for EstimateHeight.
func NewPresenter(node *html.Node, do func(func()), measure Measurer) *Presenter {
	if do == nil {
		do = func(fn func()) { fn() }
	}
	if measure == nil {
		measure = EstimateHeight
	}
	return &Presenter{node: node, do: do, measure: measure}
}

// ShowLoading makes owner the tooltip's marker and shows the loading
// placeholder next to it.
func (p *Presenter) ShowLoading(owner *html.Node, term string, rect Rect, vp Viewport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.owner = owner
	p.visible = true
	p.content = Content{Term: term, Loading: true}
	p.pos = Place(rect, vp, p.measure(p.content))
	p.flush()
}

// Render shows the resolved definition for owner and repositions the tooltip
// for the new height. Visibility is left as is, so a definition arriving
// after the pointer left updates a hidden tooltip. Render is a no-op when
// another marker has taken the tooltip since.
func (p *Presenter) Render(owner *html.Node, c Content, rect Rect, vp Viewport) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.owner != owner {
		return false
	}
	p.content = c
	p.pos = Place(rect, vp, p.measure(c))
	p.flush()
	return true
}

// Hide hides the tooltip. The element is kept for the next hover.
func (p *Presenter) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
	p.flush()
}

// State returns the current presenter state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{Visible: p.visible, Content: p.content, Position: p.pos, Owner: p.owner}
}

// Place positions a tooltip of the given height above rect, or below it when
// there is not enough room above.
func Place(rect Rect, vp Viewport, height float64) Position {
	pos := Position{
		Left: rect.Left + vp.ScrollX,
		Top:  rect.Top + vp.ScrollY - height - gap,
	}
	if rect.Top < height+gap {
		pos.Top = rect.Bottom + vp.ScrollY + gap
	}
	return pos
}

// Label is the human-readable name of a definition source. Sources without
// a label return "".
func Label(s resolver.Source) string {
	switch s {
	case resolver.SourceLocal:
		return "Local Dictionary"
	case resolver.SourceDictionaryAI:
		return "AI + Dictionary"
	case resolver.SourceWebSearch:
		return "Web Search"
	case resolver.SourceCache:
		return "Cached"
	default:
		return ""
	}
}

const (
	lineHeight   = 18.0
	charsPerLine = 45
	padding      = 16.0
)

// EstimateHeight approximates the height of the default stylesheet's
// tooltip by wrapping text at a fixed character width.
func EstimateHeight(c Content) float64 {
	if c.Loading {
		return padding + lineHeight
	}
	h := padding + lineHeight + 4 // term line
	h += float64(wrappedLines(c.Definition)) * lineHeight
	if Label(c.Source) != "" {
		h += 6 + 16
	}
	return h
}

func wrappedLines(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 1
	}
	return (n + charsPerLine - 1) / charsPerLine
}

// flush writes the presenter state into the tooltip node. Callers hold p.mu.
func (p *Presenter) flush() {
	if p.node == nil {
		return
	}
	visible, c, pos := p.visible, p.content, p.pos
	p.do(func() {
		for ch := p.node.FirstChild; ch != nil; ch = p.node.FirstChild {
			p.node.RemoveChild(ch)
		}
		if c.Loading {
			p.node.AppendChild(div("tooltip-loading", LoadingText))
		} else if c.Term != "" {
			p.node.AppendChild(div("tooltip-word", strings.ToUpper(c.Term)))
			p.node.AppendChild(div("tooltip-definition", c.Definition))
			if label := Label(c.Source); label != "" {
				p.node.AppendChild(div("tooltip-source", label))
			}
		}
		setStyle(p.node, visible, pos)
	})
}

func div(class, text string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func setStyle(n *html.Node, visible bool, pos Position) {
	display := "none"
	if visible {
		display = "block"
	}
	style := fmt.Sprintf("display: %s; left: %spx; top: %spx", display, px(pos.Left), px(pos.Top))
	for i := range n.Attr {
		if n.Attr[i].Key == "style" {
			n.Attr[i].Val = style
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
