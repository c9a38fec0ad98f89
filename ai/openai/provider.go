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
	"fmt"

	"github.com/poiesic/storyboard/ai"
)

// NewProvider creates an AI provider whose converter and embedder both use
// OpenAI-compatible services. The config is validated and normalized before
// use.
//
// Returns ai.AIProvider interface (not a concrete type) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ConverterProvider != ai.ProviderOpenAI || config.EmbeddingProvider != ai.ProviderOpenAI {
		return nil, fmt.Errorf("openai provider: both services must use %q", ai.ProviderOpenAI)
	}

	embedder, err := NewEmbedder(config)
	if err != nil {
		return nil, err
	}
	converter, err := NewConverter(config)
	if err != nil {
		return nil, err
	}

	return ai.NewProvider(converter, embedder), nil
}
