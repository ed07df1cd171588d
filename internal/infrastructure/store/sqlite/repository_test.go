package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	for _, table := range []string{"words", "grammar"} {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Idempotent
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepository_InsertAssignsIDAndTimestamps(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry := &entities.Entry{
		Kind:         entities.KindWord,
		Surface:      "帯",
		Reading:      "おび",
		Pitch:        "0",
		PartOfSpeech: "名词",
		Analysis:     "<div>analysis</div>",
	}

	id, err := repo.Insert(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	second := &entities.Entry{Kind: entities.KindWord, Surface: "紐", Reading: "ひも"}
	secondID, err := repo.Insert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), secondID)
}

func TestRepository_InsertGrammarSeparateIDSpace(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &entities.Entry{Kind: entities.KindWord, Surface: "帯", Reading: "おび"})
	require.NoError(t, err)

	gid, err := repo.Insert(ctx, &entities.Entry{Kind: entities.KindGrammar, Surface: "〜ばかりに", Reading: "ばかりに"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), gid, "grammar ids are independent of word ids")
}

func TestRepository_InsertRejectsUnknownKind(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Insert(context.Background(), &entities.Entry{Kind: "sentence", Surface: "x"})
	require.Error(t, err)
}

func TestRepository_GetAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	words := []string{"帯", "紐", "海"}
	for _, w := range words {
		_, err := repo.Insert(ctx, &entities.Entry{Kind: entities.KindWord, Surface: w, Reading: "よみ"})
		require.NoError(t, err)
	}

	got, err := repo.GetAll(ctx, entities.KindWord)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, int64(i+1), e.ID, "ordered by id")
		assert.Equal(t, words[i], e.Surface)
		assert.Equal(t, entities.KindWord, e.Kind)
	}

	empty, err := repo.GetAll(ctx, entities.KindGrammar)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_GetByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, &entities.Entry{
		Kind: entities.KindGrammar, Surface: "〜ばかりに", Reading: "ばかりに", Analysis: "explanation",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, entities.KindGrammar, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "〜ばかりに", got.Surface)
	assert.Equal(t, "explanation", got.Analysis)

	missing, err := repo.GetByID(ctx, entities.KindGrammar, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Ids do not leak across kinds.
	other, err := repo.GetByID(ctx, entities.KindWord, id)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRepository_FindWord(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &entities.Entry{
		Kind: entities.KindWord, Surface: "帯", Reading: "おび", Pitch: "0", PartOfSpeech: "名词",
	})
	require.NoError(t, err)

	got, err := repo.FindWord(ctx, "帯", "おび")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "名词", got.PartOfSpeech)

	missing, err := repo.FindWord(ctx, "帯", "たい")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_UpdateAnalysisLeavesCreatedAt(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	timeNow = func() time.Time { return base }
	t.Cleanup(func() { timeNow = time.Now })

	id, err := repo.Insert(ctx, &entities.Entry{
		Kind: entities.KindWord, Surface: "帯", Reading: "おび", Analysis: "old",
	})
	require.NoError(t, err)

	timeNow = func() time.Time { return base.Add(time.Hour) }

	require.NoError(t, repo.UpdateAnalysis(ctx, entities.KindWord, id, "new"))

	got, err := repo.GetByID(ctx, entities.KindWord, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Analysis)
	assert.True(t, got.CreatedAt.Equal(base), "created_at must not change on update")
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestRepository_UpdatePartOfSpeechAndDetails(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, &entities.Entry{
		Kind: entities.KindWord, Surface: "開く", Reading: "ひらく", Pitch: "2", PartOfSpeech: "动词",
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePartOfSpeech(ctx, id, "自动词｜他动词"))
	got, err := repo.GetByID(ctx, entities.KindWord, id)
	require.NoError(t, err)
	assert.Equal(t, "自动词｜他动词", got.PartOfSpeech)
	assert.Equal(t, "2", got.Pitch)

	require.NoError(t, repo.UpdateDetails(ctx, id, "0", "他动词"))
	got, err = repo.GetByID(ctx, entities.KindWord, id)
	require.NoError(t, err)
	assert.Equal(t, "0", got.Pitch)
	assert.Equal(t, "他动词", got.PartOfSpeech)
}

func TestRepository_UniqueSurfaceReading(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &entities.Entry{Kind: entities.KindWord, Surface: "帯", Reading: "おび"})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, &entities.Entry{Kind: entities.KindWord, Surface: "帯", Reading: "おび"})
	require.Error(t, err, "duplicate (word, kana) must be rejected")
}
