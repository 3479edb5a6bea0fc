package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the OS keychain service name.
const DefaultKeyringService = "ai-comment-assistant"

// KeyringStore stores each key as a separate OS keychain entry.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, err := keyring.Get(k.service, key)
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("keyring get %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

func (k *KeyringStore) Set(_ context.Context, values map[string]string) error {
	for key, v := range values {
		if err := keyring.Set(k.service, key, v); err != nil {
			return fmt.Errorf("keyring set %s: %w", key, err)
		}
	}
	return nil
}
