// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelite/tradelite/internal/services/cache"
)

type healthReport struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Healthy  bool   `json:"healthy"`
}

func HealthCommand() *cobra.Command {
	var jsonOutput bool

	command := &cobra.Command{
		Use:     "health",
		Short:   "Check database and cache connectivity",
		Example: `  tradelite run health --json`,
	}

	command.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		report := healthReport{Database: "ok", Cache: "ok", Healthy: true}

		db, err := initializeDatabase()
		if err != nil {
			report.Database = err.Error()
			report.Healthy = false
		} else {
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				report.Database = err.Error()
				report.Healthy = false
			}
		}

		cfg, _ := loadConfig("config.toml")
		store, err := cache.InitCache(cfg.Cache)
		if err != nil {
			report.Cache = err.Error()
			report.Healthy = false
		} else {
			defer store.Close()
			probe := cache.PrefixRate + "healthcheck"
			if err := store.Set(ctx, probe, []byte("ok"), 10*time.Second); err != nil {
				report.Cache = err.Error()
				report.Healthy = false
			}
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Printf("Database: %s\n", report.Database)
			fmt.Printf("Cache:    %s\n", report.Cache)
		}

		if !report.Healthy {
			return fmt.Errorf("one or more components unhealthy")
		}
		return nil
	}

	return command
}
