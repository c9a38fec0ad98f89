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
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/extract"
)

// processor turns one source file into storyboard content.
// Implementations must be safe for concurrent use.
type processor interface {
	// accepts reports whether path is an input this processor handles.
	accepts(path string) bool

	// process produces the storyboard JSON for path.
	process(ctx context.Context, path string) (json.RawMessage, error)
}

// convertProcessor extracts document text and converts it with a generative model.
type convertProcessor struct {
	extractor extract.Extractor
	converter ai.Converter
}

var _ processor = (*convertProcessor)(nil)

func (p *convertProcessor) accepts(path string) bool {
	return extract.Supported(path)
}

func (p *convertProcessor) process(ctx context.Context, path string) (json.RawMessage, error) {
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.converter.Convert(ctx, text)
}

// jsonProcessor reads storyboards that were converted earlier.
type jsonProcessor struct{}

var _ processor = (*jsonProcessor)(nil)

func (jsonProcessor) accepts(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func (jsonProcessor) process(ctx context.Context, path string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateContent(data); err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return data, nil
}
