package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/lexhover/internal/cache"
	"github.com/ziadkadry99/lexhover/internal/credentials"
	"github.com/ziadkadry99/lexhover/internal/dictionary"
	"github.com/ziadkadry99/lexhover/internal/llm"
	"github.com/ziadkadry99/lexhover/internal/search"
)

type fakeDictionary struct {
	calls   atomic.Int32
	defs    []dictionary.Definition
	err     error
	release chan struct{}
	panics  bool
}

func (d *fakeDictionary) Lookup(ctx context.Context, term string) ([]dictionary.Definition, error) {
	d.calls.Add(1)
	if d.release != nil {
		<-d.release
	}
	if d.panics {
		panic("boom")
	}
	if d.err != nil {
		return nil, d.err
	}
	if len(d.defs) == 0 {
		return nil, dictionary.ErrNotFound
	}
	return d.defs, nil
}

type fakeSearch struct {
	calls   atomic.Int32
	query   string
	key     string
	results []search.Result
	err     error
}

func (s *fakeSearch) Search(ctx context.Context, apiKey, query string) ([]search.Result, error) {
	s.calls.Add(1)
	s.key, s.query = apiKey, query
	if apiKey == "" {
		return nil, search.ErrMissingKey
	}
	return s.results, s.err
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest
	content  string
	err      error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

type fakeModels struct{ provider *fakeProvider }

func (m fakeModels) For(apiKey string) (llm.Provider, error) {
	if apiKey == "" {
		return nil, llm.ErrMissingKey
	}
	return m.provider, nil
}

type failingKeys struct{}

func (failingKeys) Load(context.Context) (credentials.Keys, error) {
	return credentials.Keys{}, errors.New("store offline")
}
func (failingKeys) Save(context.Context, credentials.Keys) error { return nil }

type fixture struct {
	dict     *fakeDictionary
	search   *fakeSearch
	provider *fakeProvider
	cache    *cache.Memory
	resolver *Resolver
}

func newFixture(t *testing.T, keys credentials.Store) *fixture {
	t.Helper()
	f := &fixture{
		dict:     &fakeDictionary{},
		search:   &fakeSearch{},
		provider: &fakeProvider{content: "  An AI definition.  "},
		cache:    cache.NewMemory(),
	}
	if keys == nil {
		keys = credentials.Static{ModelKey: "sk", SearchKey: "tv"}
	}
	f.resolver = New(f.cache, f.dict, f.search, keys, fakeModels{f.provider},
		WithLogger(zaptest.NewLogger(t)))
	return f
}

func TestResolveLocalThenCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.resolver.Resolve(ctx, "Injunction", "A court order.")
	assert.Equal(t, Result{Definition: "A court order.", Source: SourceLocal}, res)

	res = f.resolver.Resolve(ctx, "injunction!", "")
	assert.Equal(t, Result{Definition: "A court order.", Source: SourceCache}, res)

	assert.Zero(t, f.dict.calls.Load())
	assert.Zero(t, f.search.calls.Load())
}

func TestResolveCacheKeyIsNormalized(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "section 420", cache.Entry{Definition: "Cheating.", Source: "tavily"}))

	res := f.resolver.Resolve(ctx, "Section 420!", "")
	assert.Equal(t, Result{Definition: "Cheating.", Source: SourceCache}, res)
}

func TestResolveDictionaryWithModel(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.defs = []dictionary.Definition{
		{PartOfSpeech: "noun", Definition: "A formal written order.", Example: "a writ of summons"},
		{PartOfSpeech: "noun", Definition: "Scripture."},
	}

	res := f.resolver.Resolve(context.Background(), "writ", "")
	assert.Equal(t, Result{Definition: "An AI definition.", Source: SourceDictionaryAI}, res)

	require.Len(t, f.provider.requests, 1)
	req := f.provider.requests[0]
	assert.Equal(t, llm.DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, selectSystemPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, `"writ"`)
	assert.Contains(t, req.Messages[1].Content, "A formal written order.")
	assert.Contains(t, req.Messages[1].Content, "maximum 2 sentences")
	assert.Zero(t, f.search.calls.Load())

	e, ok, _ := f.cache.Get(context.Background(), "writ")
	require.True(t, ok)
	assert.Equal(t, "dictionary+ai", e.Source)
}

func TestResolveDictionaryModelFailureFallsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.defs = []dictionary.Definition{{Definition: "First sense."}, {Definition: "Second sense."}}
	f.provider.err = errors.New("rate limited")

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, Result{Definition: "First sense.", Source: SourceDictionaryAI}, res)
	assert.Len(t, f.provider.requests, 1)
}

func TestResolveDictionaryWithoutModelKey(t *testing.T) {
	f := newFixture(t, credentials.Static{SearchKey: "tv"})
	f.dict.defs = []dictionary.Definition{{Definition: "First sense."}}

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, Result{Definition: "First sense.", Source: SourceDictionaryAI}, res)
	assert.Empty(t, f.provider.requests)
}

func TestResolveEmptyCompletionFallsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.defs = []dictionary.Definition{{Definition: "First sense."}}
	f.provider.content = "   "

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, "First sense.", res.Definition)
}

func TestResolveSearchSynthesized(t *testing.T) {
	f := newFixture(t, nil)
	f.search.results = []search.Result{
		{Title: "IPC 420", Content: "Cheating and dishonestly inducing delivery of property."},
		{Title: "Other", Content: "Punishable with imprisonment."},
	}

	res := f.resolver.Resolve(context.Background(), "IPC420", "")
	assert.Equal(t, Result{Definition: "An AI definition.", Source: SourceWebSearch}, res)

	assert.Equal(t, "legal definition of IPC420", f.search.query)
	assert.Equal(t, "tv", f.search.key)
	require.Len(t, f.provider.requests, 1)
	req := f.provider.requests[0]
	assert.Equal(t, synthesizeSystemPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "Result 1: Cheating and dishonestly")
	assert.Contains(t, req.Messages[1].Content, "Result 2: Punishable with imprisonment.")
	assert.Contains(t, req.Messages[1].Content, "1-2 sentences")

	res = f.resolver.Resolve(context.Background(), "ipc420", "")
	assert.Equal(t, SourceCache, res.Source)
}

func TestResolveSearchWithoutModelKey(t *testing.T) {
	f := newFixture(t, credentials.Static{SearchKey: "tv"})
	f.search.results = []search.Result{{Content: "Raw snippet."}, {Content: "Other."}}

	res := f.resolver.Resolve(context.Background(), "IPC420", "")
	assert.Equal(t, Result{Definition: "Raw snippet.", Source: SourceWebSearch}, res)
	assert.Empty(t, f.provider.requests)
}

func TestResolveSearchModelFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.search.results = []search.Result{{Content: "Raw snippet."}}
	f.provider.err = errors.New("503")

	res := f.resolver.Resolve(context.Background(), "IPC420", "")
	assert.Equal(t, Result{Definition: "Raw snippet.", Source: SourceWebSearch}, res)
}

func TestResolveNotFoundIsNotCached(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.resolver.Resolve(ctx, "zzyzx", "")
	assert.Equal(t, Result{Definition: MsgNotFound, Source: SourceNone}, res)
	assert.EqualValues(t, 1, f.dict.calls.Load())
	assert.EqualValues(t, 1, f.search.calls.Load())

	f.resolver.Resolve(ctx, "zzyzx", "")
	assert.EqualValues(t, 2, f.search.calls.Load())

	n, _ := f.cache.Len(ctx)
	assert.Zero(t, n)
}

func TestResolveMissingSearchKey(t *testing.T) {
	f := newFixture(t, credentials.Static{ModelKey: "sk"})

	res := f.resolver.Resolve(context.Background(), "IPC420", "")
	assert.Equal(t, Result{Definition: MsgNotFound, Source: SourceNone}, res)
	assert.EqualValues(t, 1, f.search.calls.Load())
}

func TestResolveSearchTransportError(t *testing.T) {
	f := newFixture(t, nil)
	f.search.err = errors.New("connection refused")

	res := f.resolver.Resolve(context.Background(), "IPC420", "")
	assert.Equal(t, SourceNone, res.Source)
}

func TestResolveDictionaryErrorFallsToSearch(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.err = errors.New("dictionary returned status 500")
	f.search.results = []search.Result{{Content: "Snippet."}}

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, SourceWebSearch, res.Source)
}

func TestResolveCredentialFailureDegrades(t *testing.T) {
	f := newFixture(t, failingKeys{})
	f.dict.defs = []dictionary.Definition{{Definition: "First sense."}}

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, Result{Definition: "First sense.", Source: SourceDictionaryAI}, res)
}

func TestResolvePanicYieldsError(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.panics = true

	res := f.resolver.Resolve(context.Background(), "tort", "")
	assert.Equal(t, Result{Definition: MsgError, Source: SourceError}, res)
}

func TestResolveSharesInFlightChain(t *testing.T) {
	f := newFixture(t, nil)
	f.dict.defs = []dictionary.Definition{{Definition: "First sense."}}
	f.dict.release = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.resolver.Resolve(context.Background(), "Tort", "")
		}(i)
	}

	require.Eventually(t, func() bool { return f.dict.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.dict.release)
	wg.Wait()

	assert.EqualValues(t, 1, f.dict.calls.Load())
	for _, r := range results {
		assert.Equal(t, "An AI definition.", r.Definition)
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newFixture(t, nil)
	f.resolver = New(f.cache, f.dict, f.search, credentials.Static{}, fakeModels{f.provider}, WithMetrics(m))

	ctx := context.Background()
	f.resolver.Resolve(ctx, "bail", "Release pending trial.")
	f.resolver.Resolve(ctx, "bail", "")
	f.resolver.Resolve(ctx, "zzyzx", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("none")))

	count, err := testutil.GatherAndCount(reg, "lexhover_resolution_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
