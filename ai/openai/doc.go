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
// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package builds ai.Converter and ai.Embedder values on top of the
// langchaingo OpenAI client, so it works against OpenAI itself or any
// compatible server (Ollama, LocalAI, vLLM).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithConverterProvider(ai.ProviderOpenAI),
//	    ai.WithConverterModel("gpt-4o-mini"),
//	    ai.WithOpenAIAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	content, err := provider.Converter().Convert(ctx, text)
//	vector, err := provider.Embedder().EmbedText(ctx, "Fire Safety Basics")
package openai
