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
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates an attempt to embed or convert empty text.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrMalformedModelOutput indicates a generative reply that is not a JSON object.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrEmbeddingCount indicates the service returned a different number of vectors than inputs.
	ErrEmbeddingCount = errors.New("embedding count mismatch")

	// ErrNoChoices indicates the generative service returned no candidates.
	ErrNoChoices = errors.New("model returned no choices")

	// ErrUnknownProvider indicates a provider name with no implementation.
	ErrUnknownProvider = errors.New("unknown AI provider")
)

// EmptyInputError identifies which input of a batch was empty.
type EmptyInputError struct {
	Index int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, ErrEmptyInput)
}

// Is reports ErrEmptyInput as a match.
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// MalformedOutputError carries a bounded excerpt of the rejected reply.
type MalformedOutputError struct {
	Excerpt string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v (reply starts %q)", ErrMalformedModelOutput, e.Err, e.Excerpt)
	}
	return fmt.Sprintf("%v (reply starts %q)", ErrMalformedModelOutput, e.Excerpt)
}

// Unwrap returns the JSON decoding cause.
func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedModelOutput as a match.
func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedModelOutput
}
