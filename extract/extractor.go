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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format names reported in errors and logs.
const (
	FormatText = "text"
	FormatPPTX = "pptx"
	FormatPDF  = "pdf"
)

var formatsByExt = map[string]string{
	".txt":  FormatText,
	".pptx": FormatPPTX,
	".pdf":  FormatPDF,
}

// Extractor turns a source file into a single text blob.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// FormatOf returns the format name for path, or "" if the extension is not recognized.
func FormatOf(path string) string {
	return formatsByExt[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether path has a recognized extension.
func Supported(path string) bool {
	return FormatOf(path) != ""
}

// FileExtractor dispatches on file extension.
type FileExtractor struct {
	logger *slog.Logger
}

var _ Extractor = (*FileExtractor)(nil)

// Option configures a FileExtractor.
type Option func(*FileExtractor)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *FileExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an extractor for all supported formats.
func New(opts ...Option) Extractor {
	e := &FileExtractor{
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads path and returns its text.
func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := FormatOf(path)
	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text, err = extractText(path)
	case FormatPPTX:
		text, err = extractPPTX(ctx, path)
	case FormatPDF:
		text, err = extractPDF(ctx, path, e.logger)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.logger.Debug("extraction failed", "path", path, "format", format, "err", err)
		return "", newExtractionError(path, format, err)
	}

	e.logger.Debug("extracted text", "path", path, "format", format, "length", len(text))
	return text, nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}
