// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/api/routes"
	"github.com/tradelite/tradelite/internal/buildinfo"
	"github.com/tradelite/tradelite/internal/commands"
	"github.com/tradelite/tradelite/internal/config"
	"github.com/tradelite/tradelite/internal/database"
	"github.com/tradelite/tradelite/internal/logger"
)

func init() {
	logger.Init()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "run" {
		if err := commands.Execute(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	startServer()
}

func startServer() {
	log.Info().
		Str("version", buildinfo.Version).
		Str("commit", buildinfo.Commit).
		Str("build_date", buildinfo.Date).
		Msg("Starting tradelite")

	configPath := flag.String("config", "config.toml", "path to config file")
	listenAddr := flag.String("listen", "", "address to listen on, overrides config")
	flag.Parse()

	var cfg *config.Config
	var err error

	if config.HasRequiredEnvVars() {
		cfg = config.New()
	} else {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load configuration file, using defaults")
			cfg = config.New()
		}
	}

	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if os.Getenv("GIN_MODE") == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	if gin.Mode() == gin.DebugMode {
		err = r.SetTrustedProxies(nil)
	} else {
		err = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to set trusted proxies")
	}

	cacheStore := routes.SetupRoutes(r, db, cfg)
	defer func() {
		if err := cacheStore.Close(); err != nil {
			cacheType := strings.ToLower(os.Getenv("CACHE_TYPE"))
			if cacheType == "redis" {
				log.Error().Err(err).Msg("Failed to close Redis cache connection")
			} else {
				log.Debug().Err(err).Msg("Cache cleanup completed")
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", cfg.Server.ListenAddr).
			Str("mode", gin.Mode()).
			Str("database", cfg.Database.Type).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
