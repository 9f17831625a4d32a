// Package glossary holds the bundled legal-term dictionary and the
// normalization rule shared by glossary keys and definition cache keys.
package glossary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"
)

//go:embed legal-terms.json
var bundledAsset []byte

// Normalize lowercases s and drops every rune outside [a-z0-9\s].
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, strings.ToLower(s))
}

// Glossary maps normalized terms to definitions. It is never mutated after
// construction, so a single value can be shared by concurrent page scans.
type Glossary struct {
	terms map[string]string
}

// asset is the on-disk shape of a glossary file.
type asset struct {
	Terms map[string]string `json:"terms"`
}

// New builds a glossary from raw term/definition pairs. Keys are normalized;
// entries whose key normalizes to the empty string or whose definition is
// blank are dropped.
func New(terms map[string]string) *Glossary {
	g := &Glossary{terms: make(map[string]string, len(terms))}
	for k, v := range terms {
		key := Normalize(k)
		if key == "" || strings.TrimSpace(v) == "" {
			continue
		}
		g.terms[key] = v
	}
	return g
}

// Parse reads a glossary asset of the form {"terms": {...}}.
func Parse(r io.Reader) (*Glossary, error) {
	var a asset
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding glossary: %w", err)
	}
	if a.Terms == nil {
		return nil, fmt.Errorf("decoding glossary: missing \"terms\" object")
	}
	return New(a.Terms), nil
}

// LoadFile reads a glossary asset from disk.
func LoadFile(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glossary %s: %w", path, err)
	}
	g, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Bundled returns the glossary compiled into the binary.
func Bundled() *Glossary {
	g, err := Parse(bytes.NewReader(bundledAsset))
	if err != nil {
		panic(fmt.Sprintf("glossary: bundled asset is invalid: %v", err))
	}
	return g
}

// Lookup returns the definition for term, normalizing it first.
func (g *Glossary) Lookup(term string) (string, bool) {
	if g == nil {
		return "", false
	}
	def, ok := g.terms[Normalize(term)]
	return def, ok
}

// Contains reports whether term is in the glossary.
func (g *Glossary) Contains(term string) bool {
	_, ok := g.Lookup(term)
	return ok
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.terms)
}

// Terms returns the normalized terms in sorted order.
func (g *Glossary) Terms() []string {
	if g == nil {
		return nil
	}
	out := make([]string, 0, len(g.terms))
	for k := range g.terms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
