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
// Package storage provides the storage abstraction layer for storyboards.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two backends implement them:
//
//   - storage/postgres: PostgreSQL with the pgvector extension, for shared deployments
//   - storage/badger: embedded BadgerDB, for local runs and tests
//
// # Usage
//
// Business logic depends on the interfaces only:
//
//	var repo storage.StoryboardRepository
//	repo, err = badger.NewStoryboardRepository(backend, registry)
//
// The backend constructors return concrete types so that backend-specific
// operations (such as postgres column widening) stay reachable.
//
// # Embeddings
//
// A record's vector and the scheme version that produced it are always
// written together. UpsertEmbedding rejects unknown scheme versions and
// vectors whose width differs from the scheme, so a stored vector can always
// be attributed to the model that made it.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
