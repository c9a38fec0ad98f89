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
// Package postgres implements the storyboard store on PostgreSQL with the
// pgvector extension.
//
// Storyboards live in a single table:
//
//	storyboards(id BIGSERIAL, content JSON, embedding vector(N),
//	            embedding_scheme TEXT, inserted_at, updated_at)
//
// content uses the json type, which keeps the inserted text byte for byte.
// The embedding column has a declared width N; UpsertEmbedding refuses a
// scheme of any other width with storage.ErrSchemaWidth before writing, and
// Widen changes N.
//
// Similarity is cosine: score = 1 - (embedding <=> query).
package postgres
