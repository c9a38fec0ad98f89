package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, expected: 1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1.0},
		{name: "scale invariant", a: []float32{2, 0}, b: []float32{5, 0}, expected: 1.0},
		{name: "near", a: []float32{1, 0}, b: []float32{0.9, 0.1}, expected: float32(0.9 / math.Sqrt(0.82))},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1, 0, 0}, expected: 0.0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0.0},
		{name: "empty", a: nil, b: nil, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.12, -0.4, 0.33, 0.91, -0.05}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{
			name:     "unit vector remains unchanged",
			input:    []float32{1.0, 0.0, 0.0},
			expected: []float32{1.0, 0.0, 0.0},
		},
		{
			name:     "scale non-unit vector",
			input:    []float32{3.0, 4.0},
			expected: []float32{0.6, 0.8},
		},
		{
			name:     "negative values",
			input:    []float32{-1.0, 1.0},
			expected: []float32{-1.0 / float32(math.Sqrt(2)), 1.0 / float32(math.Sqrt(2))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Equal(t, len(tt.expected), len(result), "vector length mismatch")

			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
		})
	}
}

func TestNormalizeVector_ZeroAndEmpty(t *testing.T) {
	for i, v := range NormalizeVector([]float32{0, 0, 0}) {
		assert.Equal(t, float32(0.0), v, "element %d should be 0", i)
	}
	assert.Empty(t, NormalizeVector([]float32{}))
}
