package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ai_comment_assistant/config"
	"ai_comment_assistant/generator"
	"ai_comment_assistant/settings"
)

// buildStore opens the configured settings backend. The returned closer is never nil.
func buildStore(cfg config.Config) (settings.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SettingsBackend {
	case config.BackendRedis:
		rs := settings.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, settings.WithKey(cfg.Redis.Key))
		return rs, rs.Close, nil
	case config.BackendKeyring:
		return settings.NewKeyringStore(cfg.KeyringService), noop, nil
	case config.BackendMemory, "":
		return settings.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("settings backend %s not supported", cfg.SettingsBackend)
	}
}

// seedSettings writes the config's llm block when the store has no API key yet.
func seedSettings(ctx context.Context, cfg config.Config, store settings.Store, log *zap.Logger) error {
	if cfg.LLM == nil || cfg.LLM.APIKey == "" {
		return nil
	}
	cur, err := settings.Load(ctx, store)
	if err != nil {
		return err
	}
	if cur.APIKey != "" {
		return nil
	}
	seed := settings.Settings{
		Provider: generator.ParseProvider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	}
	if seed.Model == "" {
		seed.Model = generator.DefaultModel(seed.Provider)
	}
	if err := settings.Save(ctx, store, seed); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	log.Info("settings seeded from config", zap.String("provider", string(seed.Provider)), zap.String("model", seed.Model))
	return nil
}

// providerHTTPClient returns nil (SDK default transport) unless a request
// timeout is configured.
func providerHTTPClient(cfg config.Config) *http.Client {
	if cfg.RequestTimeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: cfg.RequestTimeout.Std()}
}

func buildClient(cfg config.Config, log *zap.Logger, opts ...generator.ClientOption) *generator.Client {
	httpClient := providerHTTPClient(cfg)
	opts = append([]generator.ClientOption{generator.WithLogger(log)}, opts...)
	return generator.NewDefaultClient(
		generator.LLMSettings{BaseURL: cfg.OpenAIBaseURL, HTTPClient: httpClient},
		generator.LLMSettings{BaseURL: cfg.GeminiBaseURL, HTTPClient: httpClient},
		opts...,
	)
}
