package config

import "time"

// CacheBackend selects where resolved definitions are kept.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

// CredentialStore selects where API keys are kept.
type CredentialStore string

const (
	StoreSQLite  CredentialStore = "sqlite"
	StoreKeyring CredentialStore = "keyring"
)

// Config is the top-level lexhover configuration, corresponding to .lexhover.yml.
type Config struct {
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	DataDir     string            `yaml:"data_dir" koanf:"data_dir"`
	Glossary    GlossaryConfig    `yaml:"glossary" koanf:"glossary"`
	Model       ModelConfig       `yaml:"model" koanf:"model"`
	Dictionary  EndpointConfig    `yaml:"dictionary" koanf:"dictionary"`
	Search      EndpointConfig    `yaml:"search" koanf:"search"`
	Cache       CacheConfig       `yaml:"cache" koanf:"cache"`
	Credentials CredentialsConfig `yaml:"credentials" koanf:"credentials"`
	Browser     BrowserConfig     `yaml:"browser" koanf:"browser"`
	Highlight   HighlightConfig   `yaml:"highlight" koanf:"highlight"`
	HTTPTimeout time.Duration     `yaml:"http_timeout" koanf:"http_timeout"`
	LogFormat   string            `yaml:"log_format" koanf:"log_format"`
}

// ServerConfig holds the background service settings.
type ServerConfig struct {
	// Host is the interface to bind. Set 0.0.0.0 to listen on every
	// interface; the settings and definition endpoints are unauthenticated.
	Host     string `yaml:"host" koanf:"host"`
	Port     int    `yaml:"port" koanf:"port"`
	AllowAll bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// GlossaryConfig points at a glossary file. An empty path uses the
// bundled glossary.
type GlossaryConfig struct {
	Path  string `yaml:"path" koanf:"path"`
	Watch bool   `yaml:"watch" koanf:"watch"`
}

// ModelConfig configures the language model.
type ModelConfig struct {
	Name              string `yaml:"name" koanf:"name"`
	BaseURL           string `yaml:"base_url" koanf:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EndpointConfig overrides a remote service's base URL.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
}

// CacheConfig selects and configures the definition cache.
type CacheConfig struct {
	Backend CacheBackend `yaml:"backend" koanf:"backend"`
	Redis   RedisConfig  `yaml:"redis" koanf:"redis"`
}

// RedisConfig configures the shared Redis cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr" koanf:"addr"`
	Password string        `yaml:"password" koanf:"password"`
	DB       int           `yaml:"db" koanf:"db"`
	Prefix   string        `yaml:"prefix" koanf:"prefix"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

// CredentialsConfig selects the API key store.
type CredentialsConfig struct {
	Store          CredentialStore `yaml:"store" koanf:"store"`
	KeyringService string          `yaml:"keyring_service" koanf:"keyring_service"`
}

// BrowserConfig configures rendering pages in headless Chrome.
type BrowserConfig struct {
	Enabled      bool          `yaml:"enabled" koanf:"enabled"`
	Bin          string        `yaml:"bin" koanf:"bin"`
	Headful      bool          `yaml:"headful" koanf:"headful"`
	WaitSelector string        `yaml:"wait_selector" koanf:"wait_selector"`
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
}

// HighlightConfig holds settings for batch highlighting of files.
type HighlightConfig struct {
	Include      []string `yaml:"include" koanf:"include"`
	Exclude      []string `yaml:"exclude" koanf:"exclude"`
	OutputDir    string   `yaml:"output_dir" koanf:"output_dir"`
	InjectStyles bool     `yaml:"inject_styles" koanf:"inject_styles"`
}
