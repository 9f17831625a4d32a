package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// Asker asks the wizard's questions.
type Asker interface {
	Select(label string, items []string) (int, error)
	Prompt(label, defaultValue string) (string, error)
}

// TerminalAsker asks on the terminal with promptui.
type TerminalAsker struct{}

func (TerminalAsker) Select(label string, items []string) (int, error) {
	idx, _, err := (&promptui.Select{Label: label, Items: items}).Run()
	return idx, err
}

func (TerminalAsker) Prompt(label, defaultValue string) (string, error) {
	return (&promptui.Prompt{Label: label, Default: defaultValue}).Run()
}

// RunWizard runs an interactive configuration wizard starting from base
// and saves the result to path.
func RunWizard(path string, base *Config, a Asker, out io.Writer) (*Config, error) {
	fmt.Fprintln(out, "Welcome to lexhover! Let's configure the definition service.")
	fmt.Fprintln(out)

	cfg := *base

	// 1. Credential store.
	stores := []CredentialStore{StoreSQLite, StoreKeyring}
	idx, err := a.Select("Where should API keys be stored", []string{
		"sqlite: local database under the data directory",
		"keyring: operating system keyring",
	})
	if err != nil {
		return nil, fmt.Errorf("credential store selection: %w", err)
	}
	cfg.Credentials.Store = stores[idx]

	// 2. Cache backend.
	backends := []CacheBackend{CacheMemory, CacheSQLite, CacheRedis}
	idx, err = a.Select("Definition cache", []string{
		"memory: per process",
		"sqlite: persisted in the local database",
		"redis: shared between processes",
	})
	if err != nil {
		return nil, fmt.Errorf("cache selection: %w", err)
	}
	cfg.Cache.Backend = backends[idx]

	if cfg.Cache.Backend == CacheRedis {
		addr, err := a.Prompt("Redis address", cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
		cfg.Cache.Redis.Addr = strings.TrimSpace(addr)
	}

	// 3. Server port.
	portStr, err := a.Prompt("Server port", strconv.Itoa(cfg.Server.Port))
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return nil, fmt.Errorf("server port %q: %w", portStr, err)
	}
	cfg.Server.Port = port

	// 4. Glossary.
	glossaryPath, err := a.Prompt("Glossary file (leave blank for the bundled glossary)", cfg.Glossary.Path)
	if err != nil {
		return nil, fmt.Errorf("glossary path: %w", err)
	}
	cfg.Glossary.Path = strings.TrimSpace(glossaryPath)
	cfg.Glossary.Watch = cfg.Glossary.Path != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", path)
	return &cfg, nil
}
