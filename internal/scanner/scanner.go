// Package scanner finds legal terms in plain text. It knows nothing about
// HTML: Scan turns a string into an ordered list of plain runs and marker
// spans, and the highlight package applies that list to a node tree.
package scanner

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ziadkadry99/lexhover/internal/glossary"
)

// Kind distinguishes plain text from a detected term.
type Kind int

const (
	Plain Kind = iota
	Marker
)

func (k Kind) String() string {
	if k == Marker {
		return "marker"
	}
	return "plain"
}

// Segment is one piece of scanned text. For markers, Term is the value the
// marker carries in data-term.
type Segment struct {
	Kind Kind
	Text string
	Term string
}

// ws matches the whitespace a browser page can put between citation parts,
// including the no-break spaces that &nbsp; decodes to.
const ws = `[\s\v\x{85}\p{Z}\x{FEFF}]*`

// Patterns are the statute and section citation forms, in priority order.
var Patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bIPC` + ws + `\d+[A-Z]?\b`),                  // IPC420, IPC 420A
	regexp.MustCompile(`(?i)\bSection` + ws + `\d+[A-Z]?\b`),              // Section 420
	regexp.MustCompile(`(?i)\bArticle` + ws + `\d+[A-Z]?\b`),              // Article 21
	regexp.MustCompile(`(?i)\b\d+` + ws + `USC` + ws + `§?` + ws + `\d+`), // 18 USC 1001
}

// Detector scans text against a glossary snapshot and the citation patterns.
type Detector struct {
	glossary *glossary.Glossary
	patterns []*regexp.Regexp
}

// NewDetector returns a Detector using the default Patterns. A nil glossary
// disables word matching.
func NewDetector(g *glossary.Glossary) *Detector {
	return &Detector{glossary: g, patterns: Patterns}
}

// Glossary returns the snapshot the detector matches against.
func (d *Detector) Glossary() *glossary.Glossary {
	return d.glossary
}

// DetectPatterns returns every citation match in text, grouped by pattern in
// priority order and trimmed.
func (d *Detector) DetectPatterns(text string) []string {
	var found []string
	for _, re := range d.patterns {
		for _, m := range re.FindAllString(text, -1) {
			found = append(found, strings.TrimSpace(m))
		}
	}
	return found
}

// Scan splits text into plain runs and markers. A citation that starts at the
// current word wins over glossary matching and consumes as many words as the
// citation spans; otherwise each word is checked against the glossary on its
// own. Text that is not part of a marker is kept byte for byte.
func (d *Detector) Scan(text string) []Segment {
	citations := d.DetectPatterns(text)
	tokens := tokenize(text)

	var out []Segment
	for i := 0; i < len(tokens); {
		tok := tokens[i]

		if !tok.space {
			if cite, ok := citationAt(text[tok.off:], citations); ok {
				consumed, next := consumeWords(tokens, i, len(strings.Fields(cite)))
				cut := min(len(cite), len(consumed))
				// The marker shows the page's own spelling; data-term keeps
				// the first spelling the pattern matched.
				out = append(out, Segment{Kind: Marker, Text: consumed[:cut], Term: cite})
				// A citation can end inside the last consumed word ("IPC420,").
				// The remainder stays on the page as plain text.
				if cut < len(consumed) {
					out = appendPlain(out, consumed[cut:])
				}
				i = next
				continue
			}

			if clean := glossary.Normalize(tok.text); clean != "" && d.glossary.Contains(clean) {
				out = append(out, Segment{Kind: Marker, Text: tok.text, Term: clean})
				i++
				continue
			}
		}

		out = appendPlain(out, tok.text)
		i++
	}
	return out
}

// HasMarkers reports whether any segment is a marker.
func HasMarkers(segs []Segment) bool {
	for _, s := range segs {
		if s.Kind == Marker {
			return true
		}
	}
	return false
}

// Terms returns the marker terms in order of appearance.
func Terms(segs []Segment) []string {
	var terms []string
	for _, s := range segs {
		if s.Kind == Marker {
			terms = append(terms, s.Term)
		}
	}
	return terms
}

type token struct {
	text  string
	off   int
	space bool
}

// tokenize splits text into alternating word and whitespace runs.
func tokenize(text string) []token {
	var tokens []token
	start := 0
	inSpace := false
	for i, r := range text {
		sp := unicode.IsSpace(r)
		if i == 0 {
			inSpace = sp
			continue
		}
		if sp != inSpace {
			tokens = append(tokens, token{text: text[start:i], off: start, space: inSpace})
			start = i
			inSpace = sp
		}
	}
	if start < len(text) {
		tokens = append(tokens, token{text: text[start:], off: start, space: inSpace})
	}
	return tokens
}

// citationAt returns the first citation that is a case-insensitive prefix of
// remaining.
func citationAt(remaining string, citations []string) (string, bool) {
	for _, c := range citations {
		if len(remaining) >= len(c) && strings.EqualFold(remaining[:len(c)], c) {
			return c, true
		}
	}
	return "", false
}

// consumeWords joins n words starting at tokens[i], along with the whitespace
// between them, and returns the joined text and the index after the last
// consumed word. Whitespace after the final word is left for the next run.
func consumeWords(tokens []token, i, n int) (string, int) {
	var b strings.Builder
	words := 0
	j := i
	for j < len(tokens) && words < n {
		if !tokens[j].space {
			words++
		}
		b.WriteString(tokens[j].text)
		j++
	}
	return b.String(), j
}

func appendPlain(out []Segment, text string) []Segment {
	if text == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Kind == Plain {
		out[n-1].Text += text
		return out
	}
	return append(out, Segment{Kind: Plain, Text: text})
}
