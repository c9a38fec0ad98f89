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

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// DefaultEmbeddingField is the content path embedded when none is configured.
const DefaultEmbeddingField = "moduleName"

// StoryboardContent is a typed read view over storyboard JSON.
// Fields the model emits that are not listed here are kept in the raw
// content but ignored by this view.
type StoryboardContent struct {
	ModuleName       string          `json:"moduleName"`
	ModuleType       string          `json:"moduleType"`
	Duration         json.RawMessage `json:"duration,omitempty"`
	ComplexityLevel  string          `json:"complexityLevel"`
	Tags             []string        `json:"tags"`
	LearningOutcomes []string        `json:"learningOutcomes"`
	Audience         json.RawMessage `json:"audience,omitempty"`
	BrandGuidelines  json.RawMessage `json:"brandGuidelines,omitempty"`
	SponsorLogo      string          `json:"sponsorLogo"`
	Glossary         json.RawMessage `json:"glossary,omitempty"`
	References       json.RawMessage `json:"references,omitempty"`
	Scenes           []Scene         `json:"scenes"`
}

// Scene is one screen of a storyboard. Nested structures the model is free
// to shape are kept raw.
type Scene struct {
	SceneNumber    json.RawMessage `json:"sceneNumber,omitempty"`
	SceneTitle     string          `json:"sceneTitle"`
	Voiceover      string          `json:"voiceover"`
	OnScreenText   json.RawMessage `json:"onScreenText,omitempty"`
	Layout         json.RawMessage `json:"layout,omitempty"`
	MediaAssets    json.RawMessage `json:"mediaAssets,omitempty"`
	Interactivity  json.RawMessage `json:"interactivity,omitempty"`
	KnowledgeCheck json.RawMessage `json:"knowledgeCheck,omitempty"`
	Branching      json.RawMessage `json:"branching,omitempty"`
	Accessibility  json.RawMessage `json:"accessibility,omitempty"`
	Animation      json.RawMessage `json:"animation,omitempty"`
	CoachGuidance  json.RawMessage `json:"coachGuidance,omitempty"`
	AuthorNotes    json.RawMessage `json:"authorNotes,omitempty"`
}

// ValidateContent checks that raw is a non-empty JSON object.
//
// Field presence is not checked. The conversion prompt asks the model to
// emit "", [] or "TBD" for anything it cannot find, and callers must not
// read meaning into an absent field.
func ValidateContent(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContent, ErrEmptyContent)
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidContent)
	}
	return nil
}

// ParseContent decodes raw into the typed view.
// Fields with unexpected shapes fail decoding; use FieldText for lenient reads.
func ParseContent(raw []byte) (*StoryboardContent, error) {
	if err := ValidateContent(raw); err != nil {
		return nil, err
	}
	var c StoryboardContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}
	return &c, nil
}

// FieldText resolves a dotted path such as "moduleName" or
// "scenes.0.sceneTitle" against raw content and returns its text, trimmed.
// Arrays of scalars are joined with ", ". Objects and missing paths yield "".
func FieldText(raw []byte, path string) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return ""
	}

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return ""
		}
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[part]
			if !ok {
				return ""
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(n) {
				return ""
			}
			node = n[idx]
		default:
			return ""
		}
	}

	return strings.TrimSpace(scalarText(node))
}

func scalarText(node any) string {
	switch v := node.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(scalarText(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Fingerprint returns a stable 64-bit BLAKE2b digest of data in hex.
func Fingerprint(data []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
