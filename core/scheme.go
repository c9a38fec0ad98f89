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
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Scheme binds a stored vector to the model and dimensionality that produced it.
type Scheme struct {
	Version    string `yaml:"version"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Built-in scheme versions.
const (
	SchemeOpenAISmall = "openai-3-small-1536"
	SchemeOpenAILarge = "openai-3-large-3072"
	SchemeGemini      = "gemini-embedding-768"
)

// Validate checks that the scheme is usable.
func (s Scheme) Validate() error {
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidScheme)
	}
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("%w: model is required for %q", ErrInvalidScheme, s.Version)
	}
	if s.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive for %q", ErrInvalidScheme, s.Version)
	}
	return nil
}

// CheckVector returns ErrDimensionMismatch if v does not have the scheme's width.
func (s Scheme) CheckVector(v []float32) error {
	if len(v) != s.Dimensions {
		return fmt.Errorf("%w: got %d, want %d (scheme %s)", ErrDimensionMismatch, len(v), s.Dimensions, s.Version)
	}
	return nil
}

// SchemeRegistry maps scheme versions to their definitions.
// It is safe for concurrent use.
type SchemeRegistry struct {
	mu      sync.RWMutex
	schemes map[string]Scheme
}

// NewSchemeRegistry returns a registry preloaded with the built-in schemes.
func NewSchemeRegistry() *SchemeRegistry {
	r := &SchemeRegistry{schemes: make(map[string]Scheme)}
	for _, s := range builtinSchemes() {
		r.schemes[s.Version] = s
	}
	return r
}

func builtinSchemes() []Scheme {
	return []Scheme{
		{Version: SchemeOpenAISmall, Model: "text-embedding-3-small", Dimensions: 1536},
		{Version: SchemeOpenAILarge, Model: "text-embedding-3-large", Dimensions: 3072},
		{Version: SchemeGemini, Model: "text-embedding-004", Dimensions: 768},
	}
}

// Register adds or replaces a scheme definition.
func (r *SchemeRegistry) Register(s Scheme) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[s.Version] = s
	return nil
}

// Lookup returns the scheme registered under version.
func (r *SchemeRegistry) Lookup(version string) (Scheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemes[version]
	if !ok {
		return Scheme{}, fmt.Errorf("%w: %q", ErrUnknownScheme, version)
	}
	return s, nil
}

// Versions returns the registered versions in sorted order.
func (r *SchemeRegistry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemes))
	for v := range r.schemes {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
