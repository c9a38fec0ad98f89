package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScheme = "test-3"

// setupTestDB connects to STORYBOARD_TEST_DATABASE_URL and recreates the
// storyboards table with a 3-wide embedding column.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	url := os.Getenv("STORYBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STORYBOARD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := NewPool(ctx, url, WithAfterConnect(RegisterVectorTypes))
	require.NoError(t, err)

	_, err = db.Exec(ctx, "DROP TABLE IF EXISTS storyboards")
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, 3))

	cleanup := func() {
		_, _ = db.Exec(ctx, "DROP TABLE IF EXISTS storyboards")
		db.Close()
	}
	return db, cleanup
}

func newTestRepo(t *testing.T, db *pgxpool.Pool) *StoryboardRepository {
	t.Helper()
	schemes := core.NewSchemeRegistry()
	require.NoError(t, schemes.Register(core.Scheme{Version: testScheme, Model: "test", Dimensions: 3}))
	require.NoError(t, schemes.Register(core.Scheme{Version: "test-2", Model: "test", Dimensions: 2}))

	repo, err := NewStoryboardRepository(context.Background(), db, schemes)
	require.NoError(t, err)
	return repo
}

func insertWithVector(t *testing.T, repo *StoryboardRepository, name string, vector []float32) core.ID {
	t.Helper()
	ctx := context.Background()
	id, err := repo.Insert(ctx, json.RawMessage(fmt.Sprintf(`{"moduleName":%q}`, name)))
	require.NoError(t, err)
	if vector != nil {
		require.NoError(t, repo.UpsertEmbedding(ctx, id, vector, testScheme))
	}
	return id
}

func TestStoryboardRepository_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	ctx := context.Background()

	assert.Equal(t, 3, repo.Width())

	content := "{\n  \"moduleName\": \"Café ✓\",\n  \"b\": 1, \"a\": 2\n}"
	id, err := repo.Insert(ctx, json.RawMessage(content))
	require.NoError(t, err)

	record, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, content, string(record.Content))
	assert.Nil(t, record.Embedding)

	_, err = repo.Get(ctx, id+1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoryboardRepository_UpsertEmbedding(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	ctx := context.Background()

	id := insertWithVector(t, repo, "A", []float32{1, 0, 0})

	record, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, record.Embedding)
	assert.Equal(t, testScheme, record.SchemeVersion)

	t.Run("schema width precondition", func(t *testing.T) {
		err := repo.UpsertEmbedding(ctx, id, []float32{1, 0}, "test-2")
		assert.ErrorIs(t, err, storage.ErrSchemaWidth)

		record, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, testScheme, record.SchemeVersion)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		err := repo.UpsertEmbedding(ctx, id, []float32{1, 0}, testScheme)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("not found", func(t *testing.T) {
		err := repo.UpsertEmbedding(ctx, id+1000, []float32{1, 0, 0}, testScheme)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStoryboardRepository_SimilaritySearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	ctx := context.Background()

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, results)

	a := insertWithVector(t, repo, "A", []float32{1, 0, 0})
	insertWithVector(t, repo, "B", []float32{0, 1, 0})
	c := insertWithVector(t, repo, "C", []float32{0.9, 0.1, 0})
	insertWithVector(t, repo, "unembedded", nil)

	results, err = repo.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].Record.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, c, results[1].Record.ID)
	assert.InDelta(t, 0.9939, results[1].Score, 1e-3)

	_, err = repo.SimilaritySearch(ctx, []float32{1, 0, 0}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	eligible, err := repo.CountEligible(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, eligible)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestStoryboardRepository_SimilaritySearch_ZeroVectors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	ctx := context.Background()

	a := insertWithVector(t, repo, "A", []float32{1, 0, 0})
	zero := insertWithVector(t, repo, "zero", []float32{0, 0, 0})
	opposite := insertWithVector(t, repo, "opposite", []float32{-1, 0, 0})

	results, err := repo.SimilaritySearch(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, a, results[0].Record.ID)
	assert.Equal(t, zero, results[1].Record.ID)
	assert.Equal(t, float32(0), results[1].Score)
	assert.Equal(t, opposite, results[2].Record.ID)
	assert.InDelta(t, -1.0, results[2].Score, 1e-6)

	results, err = repo.SimilaritySearch(ctx, []float32{0, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, hit := range results {
		assert.Equal(t, float32(0), hit.Score)
	}
	// equal scores keep insertion order
	assert.Equal(t, []core.ID{a, zero, opposite},
		[]core.ID{results[0].Record.ID, results[1].Record.ID, results[2].Record.ID})
}

func TestStoryboardRepository_ScanAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	repo.pageSize = 2

	var want []core.ID
	for i := range 5 {
		want = append(want, insertWithVector(t, repo, fmt.Sprintf("m%d", i), nil))
	}

	var got []core.ID
	for record, err := range repo.ScanAll(context.Background()) {
		require.NoError(t, err)
		got = append(got, record.ID)
	}
	assert.Equal(t, want, got)
}

func TestWiden(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newTestRepo(t, db)
	ctx := context.Background()

	id := insertWithVector(t, repo, "A", []float32{1, 0, 0})

	_, err := repo.Widen(ctx, 2, false)
	assert.ErrorIs(t, err, ErrWidenBlocked)
	assert.Equal(t, 3, repo.Width())

	cleared, err := repo.Widen(ctx, 2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.Equal(t, 2, repo.Width())

	width, err := ColumnWidth(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, width)

	record, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, record.Embedding)
	assert.Empty(t, record.SchemeVersion)

	require.NoError(t, repo.UpsertEmbedding(ctx, id, []float32{0, 1}, "test-2"))
}
