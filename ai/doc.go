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
// Package ai provides abstractions for the generative and embedding services
// used by the storyboard pipeline.
//
// Converter turns extracted document text into a storyboard JSON object with
// a single model call. Replies are accepted by ParseStoryboard in two stages:
// strictly as returned, then once more with code-fence markup removed.
// Anything else is ErrMalformedModelOutput and is never retried.
//
// Embedder maps text to vectors under a core.Scheme. CheckedEmbedder wraps a
// langchaingo embedder and guarantees that empty inputs are refused and that
// every vector has exactly the scheme's width.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI and OpenAI-compatible services
//   - ai/googleai: Gemini
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in the implementation packages return interface types.
// Mock constructors return concrete types so tests can inject behavior and
// read call counts.
//
// Converter and embedder may come from different providers; NewProvider
// combines them and owns their lifecycles.
package ai
