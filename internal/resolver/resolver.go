// Package resolver turns a legal term into a definition by walking a fixed
// fallback chain: cache, local glossary, dictionary refined by a language
// model, then web search refined by a language model.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ziadkadry99/lexhover/internal/cache"
	"github.com/ziadkadry99/lexhover/internal/credentials"
	"github.com/ziadkadry99/lexhover/internal/dictionary"
	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/llm"
	"github.com/ziadkadry99/lexhover/internal/search"
)

// Source tags where a definition came from.
type Source string

const (
	SourceCache        Source = "cache"
	SourceLocal        Source = "local"
	SourceDictionaryAI Source = "dictionary+ai"
	SourceWebSearch    Source = "tavily"
	SourceNone         Source = "none"
	SourceError        Source = "error"
)

// Fixed definitions returned when the chain produces nothing.
const (
	MsgNotFound = "Definition not found"
	MsgError    = "Error loading definition"
)

// Result is a resolved definition.
type Result struct {
	Definition string `json:"definition"`
	Source     Source `json:"source"`
}

// Dictionary looks up dictionary senses of a term.
type Dictionary interface {
	Lookup(ctx context.Context, term string) ([]dictionary.Definition, error)
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, apiKey, query string) ([]search.Result, error)
}

// Resolver resolves terms. It is safe for concurrent use.
type Resolver struct {
	cache   cache.Cache
	dict    Dictionary
	search  Searcher
	keys    credentials.Store
	models  llm.Source
	logger  *zap.Logger
	metrics *Metrics
	group   singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for stage logs.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records every resolution in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New creates a Resolver. A nil cache gets a fresh in-memory cache.
func New(c cache.Cache, dict Dictionary, s Searcher, keys credentials.Store, models llm.Source, opts ...Option) *Resolver {
	if c == nil {
		c = cache.NewMemory()
	}
	r := &Resolver{
		cache:  c,
		dict:   dict,
		search: s,
		keys:   keys,
		models: models,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the resolver's definition cache.
func (r *Resolver) Cache() cache.Cache { return r.cache }

// Resolve returns a definition for term. localDef, when non-empty, is the
// caller's glossary definition and short-circuits the remote stages.
// Resolve never fails: errors degrade to the next stage, and anything
// unexpected yields MsgError with SourceError.
func (r *Resolver) Resolve(ctx context.Context, term, localDef string) Result {
	start := time.Now()
	key := glossary.Normalize(term)

	v, _, _ := r.group.Do(key+"\x00"+localDef, func() (any, error) {
		return r.resolve(ctx, term, key, localDef), nil
	})
	res := v.(Result)

	r.metrics.observe(res.Source, time.Since(start).Seconds())
	return res
}

func (r *Resolver) resolve(ctx context.Context, term, key, localDef string) (res Result) {
	log := r.logger.With(zap.String("term", term))
	defer func() {
		if p := recover(); p != nil {
			log.Error("resolution panicked", zap.String("stage", "exception"), zap.Any("panic", p))
			res = Result{Definition: MsgError, Source: SourceError}
		}
	}()

	if e, ok, err := r.cache.Get(ctx, key); err != nil {
		log.Warn("cache lookup failed", zap.String("stage", "cache"), zap.Error(err))
	} else if ok {
		log.Debug("cache hit", zap.String("stage", "cache"))
		return Result{Definition: e.Definition, Source: SourceCache}
	}

	if localDef != "" {
		log.Debug("using local definition", zap.String("stage", "local"))
		return r.store(ctx, log, key, Result{Definition: localDef, Source: SourceLocal})
	}

	keys, err := r.keys.Load(ctx)
	if err != nil {
		log.Warn("loading credentials failed", zap.String("stage", "credentials"), zap.Error(err))
		keys = credentials.Keys{}
	}

	defs, err := r.dict.Lookup(ctx, term)
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		log.Debug("no dictionary result", zap.String("stage", "dictionary"))
	case err != nil:
		log.Warn("dictionary lookup failed", zap.String("stage", "dictionary"), zap.Error(err))
	}
	if len(defs) > 0 {
		log.Debug("dictionary found", zap.String("stage", "dictionary"), zap.Int("definitions", len(defs)))
		def, err := r.complete(ctx, keys.ModelKey, selectSystemPrompt, selectPrompt(term, defs))
		if err != nil {
			log.Info("model selection unavailable, using first dictionary definition",
				zap.String("stage", "select"), zap.Error(err))
			def = defs[0].Definition
		}
		return r.store(ctx, log, key, Result{Definition: def, Source: SourceDictionaryAI})
	}

	results, err := r.search.Search(ctx, keys.SearchKey, search.Query(term))
	if err != nil {
		log.Info("web search failed", zap.String("stage", "search"), zap.Error(err))
		return Result{Definition: MsgNotFound, Source: SourceNone}
	}
	if len(results) == 0 {
		log.Info("web search returned no results", zap.String("stage", "search"))
		return Result{Definition: MsgNotFound, Source: SourceNone}
	}

	log.Debug("web search found", zap.String("stage", "search"), zap.Int("results", len(results)))
	def, err := r.complete(ctx, keys.ModelKey, synthesizeSystemPrompt, synthesizePrompt(term, results))
	if err != nil {
		log.Info("model synthesis unavailable, using first search result",
			zap.String("stage", "synthesize"), zap.Error(err))
		def = results[0].Content
	}
	return r.store(ctx, log, key, Result{Definition: def, Source: SourceWebSearch})
}

// complete runs one chat completion and returns its trimmed text.
func (r *Resolver) complete(ctx context.Context, apiKey, system, prompt string) (string, error) {
	provider, err := r.models.For(apiKey)
	if err != nil {
		return "", err
	}
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: llm.DefaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", provider.Name(), err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

func (r *Resolver) store(ctx context.Context, log *zap.Logger, key string, res Result) Result {
	if err := r.cache.Set(ctx, key, cache.Entry{Definition: res.Definition, Source: string(res.Source)}); err != nil {
		log.Warn("caching definition failed", zap.String("stage", "cache"), zap.Error(err))
	}
	log.Info("resolved", zap.String("source", string(res.Source)))
	return res
}
