package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/cache"
	"github.com/ziadkadry99/lexhover/internal/config"
	"github.com/ziadkadry99/lexhover/internal/credentials"
	"github.com/ziadkadry99/lexhover/internal/db"
	"github.com/ziadkadry99/lexhover/internal/dictionary"
	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/llm"
	"github.com/ziadkadry99/lexhover/internal/messaging"
	"github.com/ziadkadry99/lexhover/internal/resolver"
	"github.com/ziadkadry99/lexhover/internal/search"
)

// backend is the background side: storage, the resolver chain, and the
// in-process message channel in front of it.
type backend struct {
	db       *db.DB
	keys     credentials.Store
	cache    cache.Cache
	glossary *glossary.Holder
	registry *prometheus.Registry
	resolver *resolver.Resolver
	channel  *messaging.Background

	closers []func() error
}

// newBackend opens the database and wires the resolver chain as configured.
func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &backend{registry: prometheus.NewRegistry()}
	b.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	b.db = database
	b.closers = append(b.closers, database.Close)

	b.keys, err = openKeyStore(cfg, database)
	if err != nil {
		b.Close()
		return nil, err
	}

	b.cache, err = openCache(ctx, cfg, database)
	if err != nil {
		b.Close()
		return nil, err
	}
	if c, ok := b.cache.(interface{ Close() error }); ok {
		b.closers = append(b.closers, c.Close)
	}

	g, err := loadGlossary(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.glossary = glossary.NewHolder(g)

	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	b.resolver = resolver.New(
		b.cache,
		dictionary.New(cfg.Dictionary.BaseURL, hc),
		search.New(cfg.Search.BaseURL, hc),
		b.keys,
		llm.NewFactory(llm.FactoryConfig{
			Model:             cfg.Model.Name,
			BaseURL:           cfg.Model.BaseURL,
			RequestsPerMinute: cfg.Model.RequestsPerMinute,
			HTTPClient:        hc,
		}),
		resolver.WithLogger(logger),
		resolver.WithMetrics(resolver.NewMetrics(b.registry)),
	)

	b.channel = messaging.NewBackground(messaging.NewHandler(b.resolver, logger), logger)
	// The channel drains in-flight resolutions before the database closes.
	b.closers = append([]func() error{b.channel.Close}, b.closers...)

	logger.Debug("backend ready",
		zap.String("database", database.Path()),
		zap.String("cache", string(cfg.Cache.Backend)),
		zap.String("credentials", string(cfg.Credentials.Store)),
		zap.Int("glossary_terms", g.Len()),
	)
	return b, nil
}

// Close releases everything newBackend opened, in order.
func (b *backend) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// openKeyStore returns the configured credential store with the
// environment overlay applied.
func openKeyStore(cfg *config.Config, database *db.DB) (credentials.Store, error) {
	var store credentials.Store
	switch cfg.Credentials.Store {
	case config.StoreKeyring:
		store = credentials.NewKeyringStore(cfg.Credentials.KeyringService)
	case config.StoreSQLite, "":
		store = credentials.NewSQLStore(database)
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.Credentials.Store)
	}
	return credentials.WithEnv(store), nil
}

// openRawKeyStore is openKeyStore without the environment overlay, for
// commands that edit the saved keys.
func openRawKeyStore(cfg *config.Config) (credentials.Store, func() error, error) {
	if cfg.Credentials.Store == config.StoreKeyring {
		return credentials.NewKeyringStore(cfg.Credentials.KeyringService), func() error { return nil }, nil
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return credentials.NewSQLStore(database), database.Close, nil
}

func openCache(ctx context.Context, cfg *config.Config, database *db.DB) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheMemory, "":
		return cache.NewMemory(), nil
	case config.CacheSQLite:
		return cache.NewSQL(database), nil
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
			TTL:      cfg.Cache.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis cache: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// loadGlossary reads the configured glossary file, or the bundled one when
// no path is set.
func loadGlossary(cfg *config.Config) (*glossary.Glossary, error) {
	if cfg.Glossary.Path == "" {
		return glossary.Bundled(), nil
	}
	g, err := glossary.LoadFile(cfg.Glossary.Path)
	if err != nil {
		return nil, fmt.Errorf("loading glossary: %w", err)
	}
	return g, nil
}
