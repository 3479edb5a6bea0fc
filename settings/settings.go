// Package settings persists the provider, API key and model chosen on the
// options surface. Generation only ever reads through Load.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai_comment_assistant/generator"
)

// Storage keys, shared by every backend.
const (
	KeyProvider = "provider"
	KeyAPIKey   = "apiKey"
	KeyModel    = "model"
)

// Keys lists every stored key.
var Keys = []string{KeyProvider, KeyAPIKey, KeyModel}

var (
	ErrAPIKeyRequired = errors.New("API key is required")
	ErrModelRequired  = errors.New("Model is required")
)

// Store is a key-value backend. Get omits keys that have no value.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// Settings is the options-page view of the stored values.
type Settings struct {
	Provider generator.Provider `json:"provider" yaml:"provider"`
	APIKey   string             `json:"apiKey" yaml:"api_key"`
	Model    string             `json:"model" yaml:"model"`
}

// Credentials converts the settings for the generation client.
func (s Settings) Credentials() generator.Credentials {
	return generator.Credentials{Provider: s.Provider, APIKey: s.APIKey, Model: s.Model}
}

// MaskedKey hides all but the last four characters of the API key.
func (s Settings) MaskedKey() string {
	k := []rune(s.APIKey)
	if len(k) == 0 {
		return ""
	}
	if len(k) <= 4 {
		return strings.Repeat("•", len(k))
	}
	return strings.Repeat("•", len(k)-4) + string(k[len(k)-4:])
}

// Load reads the settings and applies defaults: provider falls back to
// openai, model to the provider default. A missing API key is not an error here.
func Load(ctx context.Context, store Store) (Settings, error) {
	values, err := store.Get(ctx, Keys...)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s := Settings{
		Provider: generator.ParseProvider(values[KeyProvider]),
		APIKey:   values[KeyAPIKey],
		Model:    strings.TrimSpace(values[KeyModel]),
	}
	if s.Model == "" {
		s.Model = generator.DefaultModel(s.Provider)
	}
	return s, nil
}

// Validate applies the options-page rules.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrAPIKeyRequired
	}
	if strings.TrimSpace(s.Model) == "" {
		return ErrModelRequired
	}
	return nil
}

// Save validates and writes all three keys.
func Save(ctx context.Context, store Store, s Settings) error {
	s.Provider = generator.ParseProvider(string(s.Provider))
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.Model = strings.TrimSpace(s.Model)
	if err := s.Validate(); err != nil {
		return err
	}
	err := store.Set(ctx, map[string]string{
		KeyProvider: string(s.Provider),
		KeyAPIKey:   s.APIKey,
		KeyModel:    s.Model,
	})
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
