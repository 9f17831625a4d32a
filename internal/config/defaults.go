package config

import (
	"time"

	"github.com/ziadkadry99/lexhover/internal/cache"
	"github.com/ziadkadry99/lexhover/internal/credentials"
	"github.com/ziadkadry99/lexhover/internal/dictionary"
	"github.com/ziadkadry99/lexhover/internal/llm"
	"github.com/ziadkadry99/lexhover/internal/search"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".lexhover.yml"

// DefaultIncludes are the page files highlighted by default.
var DefaultIncludes = []string{"**/*.html", "**/*.htm", "**/*.md"}

// DefaultExcludes keeps earlier output out of the next run.
var DefaultExcludes = []string{"highlighted/**"}

// DefaultHost keeps the service on the loopback interface.
const DefaultHost = "127.0.0.1"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: 8765,
		},
		DataDir: ".lexhover",
		Model: ModelConfig{
			Name: llm.DefaultModel,
		},
		Dictionary: EndpointConfig{BaseURL: dictionary.DefaultBaseURL},
		Search:     EndpointConfig{BaseURL: search.DefaultBaseURL},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: cache.DefaultPrefix,
			},
		},
		Credentials: CredentialsConfig{
			Store:          StoreSQLite,
			KeyringService: credentials.DefaultKeyringService,
		},
		Browser: BrowserConfig{
			Timeout: 30 * time.Second,
		},
		Highlight: HighlightConfig{
			Include:      DefaultIncludes,
			Exclude:      DefaultExcludes,
			OutputDir:    "highlighted",
			InjectStyles: true,
		},
		HTTPTimeout: 15 * time.Second,
		LogFormat:   "json",
	}
}
