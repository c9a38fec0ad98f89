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
package openai

import (
	"log/slog"

	"github.com/poiesic/storyboard/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewConverter creates a storyboard converter backed by an OpenAI-compatible
// chat completion API. JSON response mode is requested when config.JSONMode
// is set.
func NewConverter(config *ai.Config) (ai.Converter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ConverterHost),
		openai.WithToken(token(config.OpenAIAPIKey)),
		openai.WithModel(config.ConverterModel),
	)
	if err != nil {
		return nil, err
	}

	return ai.NewLLMConverter(client,
		ai.WithMaxInputChars(config.MaxInputChars),
		ai.WithTemperature(config.Temperature),
		ai.WithJSONMode(config.JSONMode),
		ai.WithConverterLogger(slog.Default().With("component", "openai-converter")),
	), nil
}
