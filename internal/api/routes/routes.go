// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/api/handlers"
	"github.com/tradelite/tradelite/internal/api/middleware"
	"github.com/tradelite/tradelite/internal/config"
	"github.com/tradelite/tradelite/internal/database"
	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/services/feedback"
	"github.com/tradelite/tradelite/internal/services/supabase"
	"github.com/tradelite/tradelite/web"
)

// SetupRoutes configures middleware and routes and returns the cache store
// so the caller can close it on shutdown.
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config) cache.Store {
	store, err := cache.InitCache(cfg.Cache)
	if err != nil {
		// Fall back to memory cache so the API stays up
		log.Warn().Err(err).Msg("Cache initialization failed, using memory cache")
		store = cache.NewMemoryStore()
	}

	r.Use(middleware.Logger())
	r.Use(middleware.SetupCORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Secure(nil))

	authLimiter := middleware.NewRateLimiter(store, time.Minute, 30, "auth:")
	apiLimiter := middleware.NewRateLimiter(store, time.Minute, 60, "api:")
	authMiddleware := middleware.NewAuthMiddleware(store)
	cacheMiddleware := middleware.NewCacheMiddleware(store)

	supabaseClient := supabase.New(cfg.Supabase.URL, cfg.Supabase.Key)
	feedbackService := feedback.NewService(cfg.AI.DeepSeekAPIKey, cfg.AI.OpenAIAPIKey)

	healthHandler := handlers.NewHealthHandler(db, store)
	authHandler := handlers.NewAuthHandler(db, store, supabaseClient)
	simulationHandler := handlers.NewSimulationHandler(db, store)
	aiHandler := handlers.NewAIHandler(store, feedbackService)

	// Public endpoints
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	web.RegisterRoutes(r)

	auth := r.Group("/api/auth")
	auth.Use(authLimiter.RateLimit())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/reset-password", authHandler.ResetPassword)

		protected := auth.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			protected.GET("/verify", authHandler.Verify)
			protected.GET("/userinfo", authHandler.UserInfo)
		}
	}

	simulations := r.Group("/api/simulations")
	simulations.Use(apiLimiter.RateLimit())
	simulations.Use(authMiddleware.RequireAuth())
	{
		simulations.POST("", simulationHandler.Create)
		simulations.GET("", cacheMiddleware.Cache(), simulationHandler.List)
		simulations.GET("/:id", cacheMiddleware.Cache(), simulationHandler.Get)
	}

	ai := r.Group("/api/ai")
	ai.Use(apiLimiter.RateLimit())
	ai.Use(authMiddleware.RequireAuth())
	{
		ai.POST("/sentiment", aiHandler.Sentiment)
		ai.POST("/anomalies", aiHandler.Anomalies)
		ai.POST("/feedback", aiHandler.Feedback)
	}

	return store
}
