package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/storyboard/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

var testScheme = core.Scheme{Version: "test-4", Model: "test-model", Dimensions: 4}

func fixedWidthClient(width int, calls *int) embeddings.EmbedderClientFunc {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		*calls++
		out := make([][]float32, len(texts))
		for i := range texts {
			v := make([]float32, width)
			v[i%width] = 1
			out[i] = v
		}
		return out, nil
	}
}

func newTestEmbedder(t *testing.T, client embeddings.EmbedderClient) *CheckedEmbedder {
	t.Helper()
	inner, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	require.NoError(t, err)
	e, err := NewCheckedEmbedder(inner, testScheme, nil)
	require.NoError(t, err)
	return e
}

func TestCheckedEmbedder_EmbedText(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(4, &calls))

	v, err := e.EmbedText(context.Background(), "Fire Safety Basics")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, 1, calls)
	assert.Equal(t, testScheme, e.Scheme())
}

func TestCheckedEmbedder_EmptyText(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(4, &calls))

	_, err := e.EmbedText(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, calls)
}

func TestCheckedEmbedder_EmbedTexts(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(4, &calls))

	texts := []string{"line one\nline two", "second"}
	vectors, err := e.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	// caller's slice is not rewritten by newline stripping
	assert.Equal(t, "line one\nline two", texts[0])
}

func TestCheckedEmbedder_EmbedTextsEmptyEntry(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(4, &calls))

	_, err := e.EmbedTexts(context.Background(), []string{"ok", ""})
	require.ErrorIs(t, err, ErrEmptyInput)

	var emptyErr *EmptyInputError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, 1, emptyErr.Index)
	assert.Zero(t, calls)
}

func TestCheckedEmbedder_EmbedTextsNone(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(4, &calls))

	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, calls)
}

func TestCheckedEmbedder_WrongWidth(t *testing.T) {
	calls := 0
	e := newTestEmbedder(t, fixedWidthClient(3, &calls))

	_, err := e.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestCheckedEmbedder_CountMismatch(t *testing.T) {
	client := embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return [][]float32{}, nil
	})
	e := newTestEmbedder(t, client)

	_, err := e.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestCheckedEmbedder_ServiceError(t *testing.T) {
	boom := errors.New("rate limited")
	client := embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	})
	e := newTestEmbedder(t, client)

	_, err := e.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestNewCheckedEmbedder_InvalidScheme(t *testing.T) {
	inner, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(nil))
	require.NoError(t, err)

	_, err = NewCheckedEmbedder(inner, core.Scheme{Version: "x"}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidScheme)
}
