package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8765 {
		t.Errorf("expected default port 8765, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected loopback default host, got %q", cfg.Server.Host)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("expected default cache %q, got %q", CacheMemory, cfg.Cache.Backend)
	}
	if cfg.Credentials.Store != StoreSQLite {
		t.Errorf("expected default store %q, got %q", StoreSQLite, cfg.Credentials.Store)
	}
	if cfg.Model.Name != "gpt-3.5-turbo" {
		t.Errorf("expected default model gpt-3.5-turbo, got %q", cfg.Model.Name)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("expected default http_timeout 15s, got %s", cfg.HTTPTimeout)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lexhover.yml")

	original := DefaultConfig()
	original.Server.Port = 9000
	original.Cache.Backend = CacheRedis
	original.Cache.Redis.Addr = "redis:6379"
	original.Cache.Redis.TTL = 24 * time.Hour
	original.Glossary.Path = "terms.json"
	original.Highlight.Include = []string{"**/*.html", "docs/**/*.md"}
	original.HTTPTimeout = 5 * time.Second

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
	if loaded.Cache.Backend != CacheRedis || loaded.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("cache: got %+v", loaded.Cache)
	}
	if loaded.Cache.Redis.TTL != 24*time.Hour {
		t.Errorf("cache.redis.ttl: got %s, want 24h", loaded.Cache.Redis.TTL)
	}
	if loaded.Glossary.Path != "terms.json" {
		t.Errorf("glossary.path: got %q", loaded.Glossary.Path)
	}
	if loaded.HTTPTimeout != 5*time.Second {
		t.Errorf("http_timeout: got %s, want 5s", loaded.HTTPTimeout)
	}
	if len(loaded.Highlight.Include) != 2 || loaded.Highlight.Include[1] != "docs/**/*.md" {
		t.Errorf("highlight.include: got %v", loaded.Highlight.Include)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("expected default cache backend, got %q", cfg.Cache.Backend)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("server.port: got %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("server.host default lost: got %q", cfg.Server.Host)
	}
	if cfg.Model.Name != "gpt-3.5-turbo" {
		t.Errorf("model.name default lost: got %q", cfg.Model.Name)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("LEXHOVER_SERVER__PORT", "9999")
	t.Setenv("LEXHOVER_SERVER__HOST", "0.0.0.0")
	t.Setenv("LEXHOVER_CACHE__REDIS__ADDR", "cache.internal:6380")
	t.Setenv("LEXHOVER_DATA_DIR", "/var/lib/lexhover")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("env override failed: got %d, want 9999", loaded.Server.Port)
	}
	if loaded.Server.Host != "0.0.0.0" {
		t.Errorf("host override failed: got %q", loaded.Server.Host)
	}
	if loaded.Cache.Redis.Addr != "cache.internal:6380" {
		t.Errorf("nested env override failed: got %q", loaded.Cache.Redis.Addr)
	}
	if loaded.DataDir != "/var/lib/lexhover" {
		t.Errorf("data_dir override failed: got %q", loaded.DataDir)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LEXHOVER_SERVER__PORT":          "server.port",
		"LEXHOVER_DATA_DIR":              "data_dir",
		"LEXHOVER_MODEL__BASE_URL":       "model.base_url",
		"LEXHOVER_CACHE__REDIS__TTL":     "cache.redis.ttl",
		"LEXHOVER_HIGHLIGHT__OUTPUT_DIR": "highlight.output_dir",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	if got := cfg.DatabasePath(); got != filepath.Join("/data", "lexhover.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty host", func(c *Config) { c.Server.Host = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty model", func(c *Config) { c.Model.Name = "" }},
		{"negative rpm", func(c *Config) { c.Model.RequestsPerMinute = -1 }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }},
		{"negative ttl", func(c *Config) { c.Cache.Redis.TTL = -time.Second }},
		{"unknown store", func(c *Config) { c.Credentials.Store = "vault" }},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -time.Second }},
		{"negative browser timeout", func(c *Config) { c.Browser.Timeout = -time.Second }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

type scriptedAsker struct {
	selects []int
	answers []string
	labels  []string
}

func (a *scriptedAsker) Select(label string, items []string) (int, error) {
	a.labels = append(a.labels, label)
	if len(a.selects) == 0 {
		return 0, errors.New("no more selections")
	}
	i := a.selects[0]
	a.selects = a.selects[1:]
	return i, nil
}

func (a *scriptedAsker) Prompt(label, def string) (string, error) {
	a.labels = append(a.labels, label)
	if len(a.answers) == 0 {
		return "", errors.New("no more answers")
	}
	v := a.answers[0]
	a.answers = a.answers[1:]
	if v == "" {
		return def, nil
	}
	return v, nil
}

func TestRunWizard(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lexhover.yml")
	a := &scriptedAsker{
		selects: []int{1, 2},
		answers: []string{"redis.local:6379", "9001", "glossary.json"},
	}
	var out bytes.Buffer

	cfg, err := RunWizard(path, DefaultConfig(), a, &out)
	if err != nil {
		t.Fatalf("RunWizard failed: %v", err)
	}
	if cfg.Credentials.Store != StoreKeyring {
		t.Errorf("store: got %q", cfg.Credentials.Store)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.Redis.Addr != "redis.local:6379" {
		t.Errorf("cache: got %+v", cfg.Cache)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if !cfg.Glossary.Watch {
		t.Error("a custom glossary should be watched")
	}
	if !strings.Contains(out.String(), "Configuration saved to") {
		t.Errorf("unexpected output %q", out.String())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 9001 || loaded.Glossary.Path != "glossary.json" {
		t.Errorf("saved config not loaded back: %+v", loaded)
	}
}

func TestRunWizardSkipsRedisAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lexhover.yml")
	a := &scriptedAsker{selects: []int{0, 0}, answers: []string{"", ""}}

	cfg, err := RunWizard(path, DefaultConfig(), a, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunWizard failed: %v", err)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("cache: got %q", cfg.Cache.Backend)
	}
	if cfg.Server.Port != 8765 {
		t.Errorf("port default lost: got %d", cfg.Server.Port)
	}
	for _, l := range a.labels {
		if l == "Redis address" {
			t.Error("redis address asked for memory backend")
		}
	}
}

func TestRunWizardBadPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lexhover.yml")
	a := &scriptedAsker{selects: []int{0, 0}, answers: []string{"eighty"}}

	if _, err := RunWizard(path, DefaultConfig(), a, &bytes.Buffer{}); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("config should not be saved on error")
	}
}
