package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/mocks"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

func TestExportHandler_Handle(t *testing.T) {
	store := mocks.NewEntryStore()
	_, err := store.Insert(t.Context(), &entities.Entry{
		Kind: entities.KindWord, Surface: "空", Reading: "そら", Analysis: "a",
	})
	require.NoError(t, err)

	decks := mocks.NewDeckWriter()
	output := config.OutputConfig{WordsFile: "words.csv", GrammarFile: "grammar.csv"}
	handler := NewExportHandler(newMockPipeline(&mocks.AnalysisClient{}, store, decks), output)

	result, err := handler.Handle(t.Context())

	require.NoError(t, err)
	assert.Equal(t, "words.csv", result.WordsFile)
	assert.Equal(t, "grammar.csv", result.GrammarFile)
	assert.Len(t, decks.Written[entities.KindWord], 1)
	assert.Empty(t, decks.Written[entities.KindGrammar])
}

func TestExportHandler_Handle_WriteError(t *testing.T) {
	decks := mocks.NewDeckWriter()
	decks.WriteErr = assert.AnError
	handler := NewExportHandler(newMockPipeline(&mocks.AnalysisClient{}, mocks.NewEntryStore(), decks), config.OutputConfig{})

	_, err := handler.Handle(t.Context())
	require.Error(t, err)
}
