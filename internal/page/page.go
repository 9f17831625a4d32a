// Package page is the page side of lexhover: one Session per loaded page,
// answering hovers over its markers by asking the resolver over a
// messaging.Client.
package page

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/highlight"
	"github.com/ziadkadry99/lexhover/internal/messaging"
	"github.com/ziadkadry99/lexhover/internal/resolver"
	"github.com/ziadkadry99/lexhover/internal/tooltip"
)

// Fallback texts shown in place of a definition.
const (
	MsgUnavailable = "Definition not available"
	MsgError       = "Error loading definition"
)

// Session handles one page. Hover events may arrive concurrently; the
// loading set keeps a term from being requested twice at once.
type Session struct {
	doc       *highlight.Document
	glossary  *glossary.Glossary
	client    messaging.Client
	presenter *tooltip.Presenter
	logger    *zap.Logger

	mu      sync.Mutex
	loading map[string]struct{}
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger  *zap.Logger
	measure tooltip.Measurer
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *sessionOptions) { o.logger = l }
}

// WithMeasurer overrides how tooltip heights are estimated.
func WithMeasurer(m tooltip.Measurer) Option {
	return func(o *sessionOptions) { o.measure = m }
}

// NewSession binds a session to doc. The glossary is the snapshot doc's
// highlighter was built with, so lookups agree with what was marked.
func NewSession(doc *highlight.Document, client messaging.Client, opts ...Option) *Session {
	o := sessionOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		doc:       doc,
		glossary:  doc.Highlighter().Detector().Glossary(),
		client:    client,
		presenter: tooltip.NewPresenter(doc.Tooltip(), doc.Do, o.measure),
		logger:    o.logger,
		loading:   make(map[string]struct{}),
	}
}

// Document returns the session's page.
func (s *Session) Document() *highlight.Document { return s.doc }

// Tooltip returns the session's tooltip presenter.
func (s *Session) Tooltip() *tooltip.Presenter { return s.presenter }

// Loading reports whether term is currently being resolved.
func (s *Session) Loading(term string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loading[glossary.Normalize(term)]
	return ok
}

// Definition returns the definition for marker's term. Glossary terms are
// answered locally; anything else is requested from the resolver while the
// term sits in the loading set. A resolved definition is stored on the
// marker.
func (s *Session) Definition(ctx context.Context, marker *html.Node) string {
	var term string
	s.doc.Do(func() { term = highlight.Attr(marker, highlight.AttrTerm) })
	key := glossary.Normalize(term)
	log := s.logger.With(zap.String("term", key))

	s.mu.Lock()
	if _, busy := s.loading[key]; busy {
		s.mu.Unlock()
		log.Debug("already loading")
		return tooltip.LoadingText
	}
	if def, ok := s.glossary.Lookup(key); ok {
		s.mu.Unlock()
		s.doc.Do(func() { highlight.SetAttr(marker, highlight.AttrSource, string(resolver.SourceLocal)) })
		log.Debug("local definition found")
		return def
	}
	s.loading[key] = struct{}{}
	s.mu.Unlock()

	s.doc.Do(func() { highlight.SetAttr(marker, highlight.AttrLoading, "true") })
	defer func() {
		s.mu.Lock()
		delete(s.loading, key)
		s.mu.Unlock()
		s.doc.Do(func() { highlight.SetAttr(marker, highlight.AttrLoading, "false") })
	}()

	log.Debug("requesting definition")
	resp, err := s.client.Send(ctx, messaging.Request{
		Action: messaging.ActionGetDefinition,
		Term:   key,
	})
	if err != nil {
		log.Warn("definition request failed", zap.Error(err))
		return MsgError
	}
	if resp.Definition == "" {
		log.Info("no definition", zap.String("error", resp.Error))
		return MsgUnavailable
	}

	s.doc.Do(func() {
		highlight.SetAttr(marker, highlight.AttrDefinition, resp.Definition)
		highlight.SetAttr(marker, highlight.AttrSource, string(resp.Source))
	})
	log.Debug("definition received", zap.String("source", string(resp.Source)))
	return resp.Definition
}

// HoverEnter shows the tooltip for marker: the loading placeholder first,
// then the definition cached on the marker or a freshly resolved one. It
// returns what was rendered. Leaving the marker never cancels the request.
func (s *Session) HoverEnter(ctx context.Context, marker *html.Node, rect tooltip.Rect, vp tooltip.Viewport) tooltip.Content {
	var term, cached string
	s.doc.Do(func() {
		term = highlight.Attr(marker, highlight.AttrTerm)
		cached = highlight.Attr(marker, highlight.AttrDefinition)
	})

	s.presenter.ShowLoading(marker, term, rect, vp)

	def := cached
	if def == "" {
		def = s.Definition(ctx, marker)
	}

	var source string
	s.doc.Do(func() { source = highlight.Attr(marker, highlight.AttrSource) })

	c := tooltip.Content{Term: term, Definition: def, Source: resolver.Source(source)}
	s.presenter.Render(marker, c, rect, vp)
	return c
}

// HoverLeave hides the tooltip.
func (s *Session) HoverLeave() {
	s.presenter.Hide()
}
