// Package credentials stores the model and search API keys.
package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Setting names shared by every store.
const (
	ModelKeyName  = "openai_api_key"
	SearchKeyName = "tavily_api_key"
)

// Environment variables that override stored keys.
const (
	ModelKeyEnv  = "OPENAI_API_KEY"
	SearchKeyEnv = "TAVILY_API_KEY"
)

// Messages shown to the user by the settings form and routes.
const (
	MsgIncomplete = "Please enter both API keys"
	MsgSaved      = "API keys saved successfully!"
)

// ErrIncomplete is returned when saving keys with either one missing.
var ErrIncomplete = errors.New("credentials: both API keys are required")

// Keys are the two service credentials. Either may be empty when loaded.
type Keys struct {
	ModelKey  string
	SearchKey string
}

// Validate requires both keys to be present.
func (k Keys) Validate() error {
	if strings.TrimSpace(k.ModelKey) == "" || strings.TrimSpace(k.SearchKey) == "" {
		return ErrIncomplete
	}
	return nil
}

// Trimmed returns k with surrounding whitespace removed from both keys.
func (k Keys) Trimmed() Keys {
	return Keys{ModelKey: strings.TrimSpace(k.ModelKey), SearchKey: strings.TrimSpace(k.SearchKey)}
}

// Store loads and saves keys. Load never fails for keys that were simply
// never saved; they come back empty.
type Store interface {
	Load(ctx context.Context) (Keys, error)
	Save(ctx context.Context, k Keys) error
}

type envStore struct {
	Store
	getenv func(string) string
}

// WithEnv overlays OPENAI_API_KEY and TAVILY_API_KEY on the keys loaded
// from store. Saves go to store unchanged.
func WithEnv(store Store) Store {
	return &envStore{Store: store, getenv: os.Getenv}
}

func (e *envStore) Load(ctx context.Context) (Keys, error) {
	k, err := e.Store.Load(ctx)
	if err != nil {
		return Keys{}, err
	}
	if v := e.getenv(ModelKeyEnv); v != "" {
		k.ModelKey = v
	}
	if v := e.getenv(SearchKeyEnv); v != "" {
		k.SearchKey = v
	}
	return k, nil
}

// Static is a fixed, read-only set of keys.
type Static Keys

func (s Static) Load(context.Context) (Keys, error) { return Keys(s), nil }

func (s Static) Save(context.Context, Keys) error {
	return errors.New("credentials: static keys cannot be saved")
}
