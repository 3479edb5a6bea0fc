// Package config loads the assistant's runtime configuration.
//
// The file may be JSON or YAML (chosen by extension). A .env file next to the
// working directory is loaded first, then a fixed set of environment variables
// override file values.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "config/config.json"

// Settings backends.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendKeyring = "keyring"
)

// Config holds server, storage and provider endpoint settings.
type Config struct {
	ServerAddr      string      `json:"server_addr,omitempty" yaml:"server_addr"`
	SettingsBackend string      `json:"settings_backend,omitempty" yaml:"settings_backend"`
	Redis           RedisConfig `json:"redis" yaml:"redis"`
	KeyringService  string      `json:"keyring_service,omitempty" yaml:"keyring_service"`
	OpenAIBaseURL   string      `json:"openai_base_url,omitempty" yaml:"openai_base_url"`
	GeminiBaseURL   string      `json:"gemini_base_url,omitempty" yaml:"gemini_base_url"`
	// RequestTimeout bounds one generation request; 0 leaves it to the transport.
	RequestTimeout  Duration    `json:"request_timeout,omitempty" yaml:"request_timeout"`
	LLM             *LLMConfig  `json:"llm,omitempty" yaml:"llm"`
}

// RedisConfig addresses the hash that stores settings.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password"`
	DB       int    `json:"db,omitempty" yaml:"db"`
	Key      string `json:"key,omitempty" yaml:"key"`
}

// LLMConfig 首次启动时写入设置存储的初始值（可选）。
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider"`
	Model    string `json:"model,omitempty" yaml:"model"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key"`
}

// Duration accepts "30s" style strings in both JSON and YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration: %s", b)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerAddr:      ":8080",
		SettingsBackend: BackendMemory,
		Redis:           RedisConfig{Addr: "localhost:6379"},
	}
}

// Load reads path (missing file → defaults), then .env and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env 可选，不存在时忽略
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.SettingsBackend = strings.ToLower(strings.TrimSpace(cfg.SettingsBackend))
	if cfg.SettingsBackend == "" {
		cfg.SettingsBackend = BackendMemory
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("COMMENTER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("COMMENTER_SETTINGS_BACKEND"); v != "" {
		cfg.SettingsBackend = v
	}
	if v := os.Getenv("COMMENTER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("COMMENTER_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: COMMENTER_REDIS_DB must be an integer: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = v
	}
	return nil
}

func validateConfig(cfg Config) error {
	switch cfg.SettingsBackend {
	case BackendMemory, BackendKeyring:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("config: redis.addr is required for the redis settings backend")
		}
	default:
		return fmt.Errorf("config: settings_backend %q not supported (memory, redis, keyring)", cfg.SettingsBackend)
	}
	if cfg.RequestTimeout < 0 {
		return errors.New("config: request_timeout must not be negative")
	}
	if cfg.ServerAddr == "" {
		return errors.New("config: server_addr is required")
	}
	return nil
}
