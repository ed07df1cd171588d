package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karuta/ankigen/internal/application/handlers"
	"github.com/karuta/ankigen/internal/infrastructure/config"
	"github.com/karuta/ankigen/internal/infrastructure/store/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and create the database",
		Long:  "Creates config.yaml with default values in the current directory and initializes the SQLite schema.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	// The starter file carries the defaults, so the matching database
	// can be created from Default() directly.
	repo, err := sqlite.NewRepository(config.Default().SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	initHandler := handlers.NewInitHandler(repo)
	result, err := initHandler.Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Println("Set OPENROUTER_API_KEY (or llm.api_key in the config) before extracting.")

	return nil
}
