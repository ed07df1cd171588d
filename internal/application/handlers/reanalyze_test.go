package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/mocks"
	"github.com/karuta/ankigen/internal/domain/ports"
)

func TestReanalyzeHandler_Handle_All(t *testing.T) {
	store := mocks.NewEntryStore()
	_, err := store.Insert(t.Context(), &entities.Entry{
		Kind: entities.KindWord, Surface: "犬", Reading: "いぬ", Analysis: "old",
	})
	require.NoError(t, err)

	llm := &mocks.AnalysisClient{Analysis: "new"}
	handler := NewReanalyzeHandler(newMockPipeline(llm, store, mocks.NewDeckWriter()))

	result, err := handler.Handle(t.Context(), ReanalyzeOptions{Kind: entities.KindWord})

	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Nil(t, result.Entry)
	assert.Equal(t, 1, result.Summary.Count(entities.OutcomeUpdated))
}

func TestReanalyzeHandler_Handle_ByID(t *testing.T) {
	store := mocks.NewEntryStore()
	_, err := store.Insert(t.Context(), &entities.Entry{
		Kind: entities.KindGrammar, Surface: "〜ながら", Reading: "ながら", Analysis: "old",
	})
	require.NoError(t, err)

	llm := &mocks.AnalysisClient{Analysis: "new"}
	handler := NewReanalyzeHandler(newMockPipeline(llm, store, mocks.NewDeckWriter()))

	result, err := handler.Handle(t.Context(), ReanalyzeOptions{Kind: entities.KindGrammar, ID: 1})

	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.Equal(t, "new", result.Entry.Analysis)
}

func TestReanalyzeHandler_Handle_ByID_NotFound(t *testing.T) {
	handler := NewReanalyzeHandler(newMockPipeline(&mocks.AnalysisClient{}, mocks.NewEntryStore(), mocks.NewDeckWriter()))

	_, err := handler.Handle(t.Context(), ReanalyzeOptions{Kind: entities.KindWord, ID: 99})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestReanalyzeHandler_Handle_PartOfSpeech(t *testing.T) {
	store := mocks.NewEntryStore()
	_, err := store.Insert(t.Context(), &entities.Entry{
		Kind: entities.KindWord, Surface: "高い", Reading: "たかい", PartOfSpeech: "名词",
	})
	require.NoError(t, err)

	llm := &mocks.AnalysisClient{Labels: []string{"一类形容词"}}
	handler := NewReanalyzeHandler(newMockPipeline(llm, store, mocks.NewDeckWriter()))

	result, err := handler.Handle(t.Context(), ReanalyzeOptions{Kind: entities.KindWord, PartOfSpeech: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Count(entities.OutcomeUpdated))

	stored, err := store.GetByID(t.Context(), entities.KindWord, 1)
	require.NoError(t, err)
	assert.Equal(t, "一类形容词", stored.PartOfSpeech)
}

func TestReanalyzeHandler_Handle_Invalid(t *testing.T) {
	handler := NewReanalyzeHandler(newMockPipeline(&mocks.AnalysisClient{}, mocks.NewEntryStore(), mocks.NewDeckWriter()))

	tests := []struct {
		name string
		opts ReanalyzeOptions
	}{
		{"unknown kind", ReanalyzeOptions{Kind: entities.Kind("sentence")}},
		{"pos retag on grammar", ReanalyzeOptions{Kind: entities.KindGrammar, PartOfSpeech: true}},
		{"pos retag with id", ReanalyzeOptions{Kind: entities.KindWord, PartOfSpeech: true, ID: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(t.Context(), tt.opts)
			require.Error(t, err)
		})
	}
}
