package handlers

import (
	"context"
	"fmt"

	"github.com/karuta/ankigen/internal/domain/ports"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

// InitHandler handles workspace initialization.
type InitHandler struct {
	store ports.EntryStore
}

// NewInitHandler creates a new init handler. store may be nil when only
// the config file should be written.
func NewInitHandler(store ports.EntryStore) *InitHandler {
	return &InitHandler{store: store}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
}

// Handle writes a starter config and creates the database schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	path, err := config.WriteStarter(basePath)
	if err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if h.store != nil {
		if err := h.store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &InitResult{ConfigPath: path}, nil
}
