package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name keys are filed under.
const DefaultKeyringService = "lexhover"

// KeyringStore keeps keys in the operating system keyring.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a KeyringStore. An empty service selects
// DefaultKeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Load(context.Context) (Keys, error) {
	model, err := s.get(ModelKeyName)
	if err != nil {
		return Keys{}, err
	}
	search, err := s.get(SearchKeyName)
	if err != nil {
		return Keys{}, err
	}
	return Keys{ModelKey: model, SearchKey: search}, nil
}

func (s *KeyringStore) Save(_ context.Context, k Keys) error {
	k = k.Trimmed()
	if err := k.Validate(); err != nil {
		return err
	}
	if err := keyring.Set(s.service, ModelKeyName, k.ModelKey); err != nil {
		return fmt.Errorf("saving %s to keyring: %w", ModelKeyName, err)
	}
	if err := keyring.Set(s.service, SearchKeyName, k.SearchKey); err != nil {
		return fmt.Errorf("saving %s to keyring: %w", SearchKeyName, err)
	}
	return nil
}

func (s *KeyringStore) get(name string) (string, error) {
	v, err := keyring.Get(s.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s from keyring: %w", name, err)
	}
	return v, nil
}
