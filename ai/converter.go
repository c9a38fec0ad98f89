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
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LLMConverter implements Converter on top of any langchaingo model.
type LLMConverter struct {
	model         llms.Model
	maxInputChars int
	temperature   float64
	jsonMode      bool
	logger        *slog.Logger
}

var _ Converter = (*LLMConverter)(nil)

// ConverterOption configures an LLMConverter.
type ConverterOption func(*LLMConverter)

// WithMaxInputChars bounds the document text sent to the model.
func WithMaxInputChars(n int) ConverterOption {
	return func(c *LLMConverter) {
		c.maxInputChars = n
	}
}

// WithTemperature sets the sampling temperature. Default is 0.
func WithTemperature(t float64) ConverterOption {
	return func(c *LLMConverter) {
		c.temperature = t
	}
}

// WithJSONMode asks the service for a JSON response where supported.
func WithJSONMode(enabled bool) ConverterOption {
	return func(c *LLMConverter) {
		c.jsonMode = enabled
	}
}

// WithConverterLogger sets a custom logger.
func WithConverterLogger(logger *slog.Logger) ConverterOption {
	return func(c *LLMConverter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewLLMConverter wraps model. The model must be safe for concurrent use if
// the converter is shared across goroutines.
func NewLLMConverter(model llms.Model, opts ...ConverterOption) *LLMConverter {
	c := &LLMConverter{
		model:         model,
		maxInputChars: DefaultMaxInputChars,
		logger:        slog.Default().With("component", "converter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert sends the conversion prompt plus a bounded prefix of text to the
// model in a single call and parses the reply.
func (c *LLMConverter) Convert(ctx context.Context, text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	prompt, truncated := BuildConversionPrompt(text, c.maxInputChars)
	if truncated {
		c.logger.Debug("input truncated", "maxChars", c.maxInputChars, "length", len(text))
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	callOpts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	response, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, ErrNoChoices
	}

	result := ParseStoryboard(response.Choices[0].Content)
	if !result.OK() {
		c.logger.Warn("model reply is not a storyboard object", "err", result.Err)
		return nil, result.Err
	}

	c.logger.Debug("converted storyboard", "stage", result.Stage.String(), "bytes", len(result.Content))
	return result.Content, nil
}
