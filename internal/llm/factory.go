package llm

import (
	"errors"
	"net/http"
	"sync"
)

// ErrMissingKey is returned when a provider is requested without an API key.
var ErrMissingKey = errors.New("llm: API key is not set")

// FactoryConfig describes the providers a Factory builds.
type FactoryConfig struct {
	Model   string
	BaseURL string
	// RequestsPerMinute wraps providers in a rate limiter when positive.
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Factory builds one provider per API key and reuses it. Keys are read
// from the credential store on every resolution, so a key change yields a
// fresh provider without restarting the process.
type Factory struct {
	cfg FactoryConfig

	mu        sync.Mutex
	providers map[string]Provider
}

// NewFactory creates a Factory. An empty model selects DefaultModel.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Factory{cfg: cfg, providers: make(map[string]Provider)}
}

// For returns the provider for apiKey.
func (f *Factory) For(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.providers[apiKey]; ok {
		return p, nil
	}
	var p Provider = NewOpenAIProvider(apiKey, f.cfg.Model,
		WithBaseURL(f.cfg.BaseURL), WithHTTPClient(f.cfg.HTTPClient))
	if f.cfg.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, f.cfg.RequestsPerMinute)
	}
	f.providers[apiKey] = p
	return p, nil
}
