package mock

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/poiesic/storyboard/ai"
)

// MockConverter is a test double for ai.Converter.
// It allows custom behavior injection via function fields.
type MockConverter struct {
	// ConvertFunc is called by Convert if set.
	// If nil, the first line of text becomes the moduleName of a minimal storyboard.
	ConvertFunc func(ctx context.Context, text string) (json.RawMessage, error)

	// Replies maps input text to a raw model reply. A matching reply is run
	// through ai.ParseStoryboard, so prose replies fail the same way the real
	// converter does.
	Replies map[string]string

	callCount atomic.Int64
}

var _ ai.Converter = (*MockConverter)(nil)

// NewMockConverter creates a mock converter with default behavior.
// Note: Returns concrete type to allow test assertions via CallCount().
func NewMockConverter() *MockConverter {
	return &MockConverter{}
}

// Convert returns a storyboard for text.
func (m *MockConverter) Convert(ctx context.Context, text string) (json.RawMessage, error) {
	m.callCount.Add(1)

	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrEmptyInput
	}

	if reply, ok := m.Replies[text]; ok {
		result := ai.ParseStoryboard(reply)
		if !result.OK() {
			return nil, result.Err
		}
		return result.Content, nil
	}

	title, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return json.Marshal(map[string]any{
		"moduleName":    strings.TrimSpace(title),
		"learningGoals": []string{},
		"scenes":        []any{},
	})
}

// CallCount returns the number of times Convert was called.
func (m *MockConverter) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom behavior.
func (m *MockConverter) Reset() {
	m.callCount.Store(0)
	m.ConvertFunc = nil
	m.Replies = nil
}
