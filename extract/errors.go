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

package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction indicates a source file could not be read or parsed.
	ErrExtraction = errors.New("extraction failed")

	// ErrUnsupportedFormat indicates a file extension no extractor handles.
	// Batch callers skip these files rather than counting them as failures.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ExtractionError describes a single unreadable or unparseable source file.
type ExtractionError struct {
	Path   string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Format, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is reports ErrExtraction as a match so callers can test the category.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func newExtractionError(path, format string, err error) error {
	return &ExtractionError{Path: path, Format: format, Err: err}
}
