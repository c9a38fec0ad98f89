package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeRegistry_Builtins(t *testing.T) {
	r := NewSchemeRegistry()

	large, err := r.Lookup(SchemeOpenAILarge)
	require.NoError(t, err)
	assert.Equal(t, 3072, large.Dimensions)
	assert.Equal(t, "text-embedding-3-large", large.Model)

	small, err := r.Lookup(SchemeOpenAISmall)
	require.NoError(t, err)
	assert.Equal(t, 1536, small.Dimensions)

	assert.Equal(t, []string{SchemeGemini, SchemeOpenAILarge, SchemeOpenAISmall}, r.Versions())
}

func TestSchemeRegistry_Unknown(t *testing.T) {
	_, err := NewSchemeRegistry().Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestSchemeRegistry_Register(t *testing.T) {
	r := NewSchemeRegistry()

	require.NoError(t, r.Register(Scheme{Version: "toy-2", Model: "toy", Dimensions: 2}))
	s, err := r.Lookup("toy-2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Dimensions)

	err = r.Register(Scheme{Version: "bad", Model: "toy", Dimensions: 0})
	assert.ErrorIs(t, err, ErrInvalidScheme)

	err = r.Register(Scheme{Version: "", Model: "toy", Dimensions: 3})
	assert.ErrorIs(t, err, ErrInvalidScheme)
}

func TestScheme_CheckVector(t *testing.T) {
	s := Scheme{Version: "toy-2", Model: "toy", Dimensions: 2}

	assert.NoError(t, s.CheckVector([]float32{1, 0}))

	err := s.CheckVector([]float32{1, 0, 0})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "got 3, want 2")
}
