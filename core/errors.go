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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidContent indicates storyboard content is not a JSON object.
	ErrInvalidContent = errors.New("invalid storyboard content")

	// ErrEmptyContent indicates the content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDimensionMismatch indicates a vector length disagrees with the expected dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnknownScheme indicates an embedding scheme version that is not registered.
	ErrUnknownScheme = errors.New("unknown embedding scheme")

	// ErrInvalidScheme indicates a scheme definition failed validation.
	ErrInvalidScheme = errors.New("invalid embedding scheme")
)
