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

package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/storyboard/core"
)

// Provider names.
const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Config holds configuration for AI service providers.
// API keys are secrets: they are never logged (see LogValue).
type Config struct {
	// ConverterProvider selects the generative service for storyboard conversion.
	ConverterProvider string

	// ConverterHost is the base URL of an OpenAI-compatible chat API.
	// Ignored by the googleai provider.
	ConverterHost string

	// ConverterModel is the generative model identifier.
	// Example: "gemini-1.5-flash", "gpt-4o-mini"
	ConverterModel string

	// EmbeddingProvider selects the embedding service.
	EmbeddingProvider string

	// EmbeddingHost is the base URL of an OpenAI-compatible embedding API.
	// Ignored by the googleai provider.
	EmbeddingHost string

	// EmbeddingScheme names the model and vector width written to the store.
	EmbeddingScheme core.Scheme

	// EmbeddingBatchSize is the maximum number of texts per embedding request.
	EmbeddingBatchSize int

	// OpenAIAPIKey authenticates against OpenAI. Local OpenAI-compatible
	// servers accept any token, so empty is allowed.
	OpenAIAPIKey string

	// GoogleAPIKey authenticates against the Gemini API.
	GoogleAPIKey string

	// MaxInputChars bounds the document text sent for conversion.
	// Default: 25000
	MaxInputChars int

	// Temperature is the sampling temperature used for conversion.
	Temperature float64

	// JSONMode asks the converter service for JSON output where supported.
	JSONMode bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithConverterProvider sets the conversion service provider.
func WithConverterProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.ConverterProvider = provider
	}
}

// WithConverterHost sets the conversion service host URL.
func WithConverterHost(host string) ConfigOption {
	return func(c *Config) {
		c.ConverterHost = host
	}
}

// WithConverterModel sets the conversion model identifier.
func WithConverterModel(model string) ConfigOption {
	return func(c *Config) {
		c.ConverterModel = model
	}
}

// WithEmbeddingProvider sets the embedding service provider.
func WithEmbeddingProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = provider
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both converter and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.ConverterHost = host
		c.EmbeddingHost = host
	}
}

// WithEmbeddingScheme sets the embedding scheme.
func WithEmbeddingScheme(scheme core.Scheme) ConfigOption {
	return func(c *Config) {
		c.EmbeddingScheme = scheme
	}
}

// WithEmbeddingBatchSize sets the embedding request batch size.
func WithEmbeddingBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = size
	}
}

// WithOpenAIAPIKey sets the OpenAI API key.
func WithOpenAIAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.OpenAIAPIKey = key
	}
}

// WithGoogleAPIKey sets the Gemini API key.
func WithGoogleAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.GoogleAPIKey = key
	}
}

// WithInputLimit sets the conversion input bound in characters.
func WithInputLimit(n int) ConfigOption {
	return func(c *Config) {
		c.MaxInputChars = n
	}
}

// DefaultConfig returns a Config that converts with Gemini and embeds with
// OpenAI text-embedding-3-large.
func DefaultConfig() *Config {
	return &Config{
		ConverterProvider: ProviderGoogleAI,
		ConverterHost:     "https://api.openai.com/v1",
		ConverterModel:    "gemini-1.5-flash",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingHost:     "https://api.openai.com/v1",
		EmbeddingScheme: core.Scheme{
			Version:    core.SchemeOpenAILarge,
			Model:      "text-embedding-3-large",
			Dimensions: 3072,
		},
		EmbeddingBatchSize: 32,
		MaxInputChars:      DefaultMaxInputChars,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithConverterProvider(ProviderOpenAI),
//	    WithConverterModel("gpt-4o-mini"),
//	    WithHost("http://localhost:11434/v1"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.ConverterProvider = strings.ToLower(strings.TrimSpace(c.ConverterProvider))
	c.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.EmbeddingProvider))
	c.ConverterHost = normalizeHost(c.ConverterHost)
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if err := validateProvider("ConverterProvider", c.ConverterProvider); err != nil {
		return err
	}
	if err := validateProvider("EmbeddingProvider", c.EmbeddingProvider); err != nil {
		return err
	}
	if c.ConverterModel == "" {
		return errors.New("ai config: ConverterModel is required")
	}
	if c.ConverterProvider == ProviderOpenAI && c.ConverterHost == "" {
		return errors.New("ai config: ConverterHost is required")
	}
	if c.EmbeddingProvider == ProviderOpenAI && c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if err := c.EmbeddingScheme.Validate(); err != nil {
		return fmt.Errorf("ai config: %w", err)
	}
	if (c.ConverterProvider == ProviderGoogleAI || c.EmbeddingProvider == ProviderGoogleAI) && c.GoogleAPIKey == "" {
		return errors.New("ai config: GoogleAPIKey is required for the googleai provider")
	}
	if c.MaxInputChars <= 0 {
		return errors.New("ai config: MaxInputChars must be greater than 0")
	}
	if c.EmbeddingBatchSize <= 0 {
		return errors.New("ai config: EmbeddingBatchSize must be greater than 0")
	}
	return nil
}

func validateProvider(field, provider string) error {
	switch provider {
	case ProviderOpenAI, ProviderGoogleAI:
		return nil
	case "":
		return fmt.Errorf("ai config: %s is required", field)
	default:
		return fmt.Errorf("ai config: %s: %w: %q", field, ErrUnknownProvider, provider)
	}
}

// LogValue implements slog.LogValuer. Keys are reported only as set or unset.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("converterProvider", c.ConverterProvider),
		slog.String("converterModel", c.ConverterModel),
		slog.String("embeddingProvider", c.EmbeddingProvider),
		slog.String("embeddingScheme", c.EmbeddingScheme.Version),
		slog.Bool("openaiKeySet", c.OpenAIAPIKey != ""),
		slog.Bool("googleKeySet", c.GoogleAPIKey != ""),
	)
}
