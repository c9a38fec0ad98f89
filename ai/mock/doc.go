// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Converter,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "Fire Safety Basics")
//
//	// Canned model replies go through the real reply parser
//	conv := mock.NewMockConverter()
//	conv.Replies = map[string]string{"deck text": "```json\n{\"moduleName\":\"X\"}\n```"}
//
// # Default Behavior
//
//   - MockEmbedder: hashes words into buckets, so texts sharing words are similar
//   - MockConverter: builds a minimal storyboard named after the first line of text
//   - MockProvider: aggregates mock embedder and converter
package mock
