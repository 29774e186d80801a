// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package commands implements the operator CLI behind `tradelite run`.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradelite/tradelite/internal/config"
	"github.com/tradelite/tradelite/internal/database"
)

// Execute runs a CLI command with the given arguments.
func Execute(args []string) error {
	root := &cobra.Command{
		Use:           "tradelite run",
		Short:         "TradeLite Pro operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(UserCommand())
	root.AddCommand(HealthCommand())
	root.AddCommand(VersionCommand())

	root.SetArgs(args)
	return root.Execute()
}

// loadConfig resolves configuration the same way the server does.
func loadConfig(path string) (*config.Config, error) {
	if config.HasRequiredEnvVars() {
		return config.New(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		// No config file; fall back to env and defaults
		return config.New(), nil
	}
	return cfg, nil
}

func initializeDatabase() (*database.DB, error) {
	cfg, err := loadConfig("config.toml")
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}
	return db, nil
}
