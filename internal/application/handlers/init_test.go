package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/mocks"
)

func TestInitHandler_Handle(t *testing.T) {
	tmpDir := t.TempDir()
	handler := NewInitHandler(mocks.NewEntryStore())

	result, err := handler.Handle(t.Context(), tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.yaml"), result.ConfigPath)
	assert.FileExists(t, result.ConfigPath)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("llm:\n"), 0644))

	handler := NewInitHandler(nil)
	_, err := handler.Handle(t.Context(), tmpDir)
	require.Error(t, err)
}
