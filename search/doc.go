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
// Package search answers similarity queries over stored storyboards.
//
// A Searcher embeds the query text once with the same embedder used at
// ingestion, clamps the requested result count to the number of records
// whose embedding has the query's width, and delegates ranking to the
// repository. Scores are 1 minus the cosine distance, highest first.
//
// Repeated queries can skip the embedding call by enabling WithQueryCache.
package search
