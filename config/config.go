// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package config loads the storyboard pipeline configuration from a YAML
// file, a .env file and the process environment.
//
// Secrets (API keys and the database URL) are read from the environment
// only and are never written by LogValue or String.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Environment variables read by Load.
const (
	EnvDatabaseURL       = "STORYBOARD_DATABASE_URL"
	EnvStore             = "STORYBOARD_STORE"
	EnvBadgerPath        = "STORYBOARD_BADGER_PATH"
	EnvConverterProvider = "STORYBOARD_CONVERTER_PROVIDER"
	EnvConverterModel    = "STORYBOARD_CONVERTER_MODEL"
	EnvEmbeddingProvider = "STORYBOARD_EMBEDDING_PROVIDER"
	EnvEmbeddingScheme   = "STORYBOARD_EMBEDDING_SCHEME"
	EnvAIHost            = "STORYBOARD_AI_HOST"
	EnvWorkers           = "STORYBOARD_WORKERS"
	EnvGoogleAPIKey      = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// StoreConfig selects and configures the storyboard store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// DatabaseURL comes from STORYBOARD_DATABASE_URL only.
	DatabaseURL string `yaml:"-"`
	MaxConns    int32  `yaml:"max_conns"`
	BadgerPath  string `yaml:"badger_path"`
	// LedgerPath holds the ingestion ledger when the store is postgres.
	LedgerPath string `yaml:"ledger_path"`
}

// AIConfig selects the conversion and embedding services.
type AIConfig struct {
	ConverterProvider  string  `yaml:"converter_provider"`
	ConverterHost      string  `yaml:"converter_host"`
	ConverterModel     string  `yaml:"converter_model"`
	EmbeddingProvider  string  `yaml:"embedding_provider"`
	EmbeddingHost      string  `yaml:"embedding_host"`
	EmbeddingScheme    string  `yaml:"embedding_scheme"`
	EmbeddingBatchSize int     `yaml:"embedding_batch_size"`
	MaxInputChars      int     `yaml:"max_input_chars"`
	Temperature        float64 `yaml:"temperature"`
	JSONMode           bool    `yaml:"json_mode"`

	GoogleAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
}

// IngestConfig configures the batch driver.
type IngestConfig struct {
	Workers   int    `yaml:"workers"`
	FieldPath string `yaml:"field_path"`
}

// ReindexConfig configures the reindexing job.
type ReindexConfig struct {
	Workers        int           `yaml:"workers"`
	SkipCurrent    bool          `yaml:"skip_current"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	ReportInterval int           `yaml:"report_interval"`
}

// SearchConfig configures similarity queries.
type SearchConfig struct {
	K         int `yaml:"k"`
	CacheSize int `yaml:"cache_size"`
}

// Config is the root configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	AI      AIConfig      `yaml:"ai"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Reindex ReindexConfig `yaml:"reindex"`
	Search  SearchConfig  `yaml:"search"`
	// Schemes registers embedding schemes beyond the built-in ones.
	Schemes []core.Scheme `yaml:"schemes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Backend:    BackendPostgres,
			MaxConns:   10,
			BadgerPath: "storyboard.db",
			LedgerPath: "storyboard-ledger.db",
		},
		AI: AIConfig{
			ConverterProvider:  aiDefaults.ConverterProvider,
			ConverterHost:      aiDefaults.ConverterHost,
			ConverterModel:     aiDefaults.ConverterModel,
			EmbeddingProvider:  aiDefaults.EmbeddingProvider,
			EmbeddingHost:      aiDefaults.EmbeddingHost,
			EmbeddingScheme:    aiDefaults.EmbeddingScheme.Version,
			EmbeddingBatchSize: aiDefaults.EmbeddingBatchSize,
			MaxInputChars:      aiDefaults.MaxInputChars,
		},
		Ingest: IngestConfig{
			Workers:   4,
			FieldPath: core.DefaultEmbeddingField,
		},
		Reindex: ReindexConfig{
			Workers:        4,
			MaxAttempts:    1,
			RetryDelay:     time.Second,
			ReportInterval: 100,
		},
		Search: SearchConfig{
			K:         5,
			CacheSize: 128,
		},
	}
}

// Load reads the YAML file at path over the defaults, loads .env from the
// working directory and overlays the environment. A missing file is not an
// error. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "err", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.DatabaseURL, EnvDatabaseURL)
	setString(&c.Store.Backend, EnvStore)
	setString(&c.Store.BadgerPath, EnvBadgerPath)
	setString(&c.AI.ConverterProvider, EnvConverterProvider)
	setString(&c.AI.ConverterModel, EnvConverterModel)
	setString(&c.AI.EmbeddingProvider, EnvEmbeddingProvider)
	setString(&c.AI.EmbeddingScheme, EnvEmbeddingScheme)
	setString(&c.AI.GoogleAPIKey, EnvGoogleAPIKey)
	setString(&c.AI.OpenAIAPIKey, EnvOpenAIAPIKey)
	if host, ok := os.LookupEnv(EnvAIHost); ok && host != "" {
		c.AI.ConverterHost = host
		c.AI.EmbeddingHost = host
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvWorkers, err)
		}
		c.Ingest.Workers = n
		c.Reindex.Workers = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// SchemeRegistry returns the built-in schemes plus those in Schemes.
func (c *Config) SchemeRegistry() (*core.SchemeRegistry, error) {
	registry := core.NewSchemeRegistry()
	for _, s := range c.Schemes {
		if err := registry.Register(s); err != nil {
			return nil, fmt.Errorf("%w: schemes: %w", ErrInvalidConfig, err)
		}
	}
	return registry, nil
}

// AIServiceConfig resolves the embedding scheme and returns the provider
// configuration.
func (c *Config) AIServiceConfig(schemes *core.SchemeRegistry) (*ai.Config, error) {
	scheme, err := schemes.Lookup(c.AI.EmbeddingScheme)
	if err != nil {
		return nil, fmt.Errorf("%w: ai.embedding_scheme: %w (known: %s)",
			ErrInvalidConfig, err, strings.Join(schemes.Versions(), ", "))
	}
	cfg := ai.NewConfig(
		ai.WithConverterProvider(c.AI.ConverterProvider),
		ai.WithConverterHost(c.AI.ConverterHost),
		ai.WithConverterModel(c.AI.ConverterModel),
		ai.WithEmbeddingProvider(c.AI.EmbeddingProvider),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingScheme(scheme),
		ai.WithEmbeddingBatchSize(c.AI.EmbeddingBatchSize),
		ai.WithInputLimit(c.AI.MaxInputChars),
		ai.WithGoogleAPIKey(c.AI.GoogleAPIKey),
		ai.WithOpenAIAPIKey(c.AI.OpenAIAPIKey),
	)
	cfg.Temperature = c.AI.Temperature
	cfg.JSONMode = c.AI.JSONMode
	return cfg, nil
}

// Validate checks the store settings and the AI settings.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	return c.ValidateServices()
}

// ValidateServices checks everything except the store settings. The convert
// command writes files only and uses it in place of Validate.
func (c *Config) ValidateServices() error {
	schemes, err := c.SchemeRegistry()
	if err != nil {
		return err
	}
	aiCfg, err := c.AIServiceConfig(schemes)
	if err != nil {
		return err
	}
	if err := aiCfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Ingest.Workers < 1 || c.Reindex.Workers < 1 {
		return fmt.Errorf("%w: workers must be greater than 0", ErrInvalidConfig)
	}
	if c.Reindex.MaxAttempts < 1 {
		return fmt.Errorf("%w: reindex.max_attempts must be greater than 0", ErrInvalidConfig)
	}
	if c.Search.K < 1 {
		return fmt.Errorf("%w: search.k must be greater than 0", ErrInvalidConfig)
	}
	return nil
}

// ValidateStore checks only the store settings. Commands that never call
// an AI service use it in place of Validate.
func (c *Config) ValidateStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: %s is required for the postgres store", ErrInvalidConfig, EnvDatabaseURL)
		}
		if c.Store.LedgerPath == "" {
			return fmt.Errorf("%w: store.ledger_path is required", ErrInvalidConfig)
		}
	case BackendBadger:
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("%w: store.badger_path is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	return nil
}

// LogValue implements slog.LogValuer. Secrets are reported only as set or unset.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("store", c.Store.Backend),
		slog.Bool("databaseURLSet", c.Store.DatabaseURL != ""),
		slog.String("badgerPath", c.Store.BadgerPath),
		slog.String("converterProvider", c.AI.ConverterProvider),
		slog.String("converterModel", c.AI.ConverterModel),
		slog.String("embeddingProvider", c.AI.EmbeddingProvider),
		slog.String("embeddingScheme", c.AI.EmbeddingScheme),
		slog.Bool("googleKeySet", c.AI.GoogleAPIKey != ""),
		slog.Bool("openaiKeySet", c.AI.OpenAIAPIKey != ""),
	)
}

// String renders the configuration without secrets.
func (c *Config) String() string {
	return c.LogValue().String()
}
