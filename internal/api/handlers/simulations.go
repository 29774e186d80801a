// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/api/middleware"
	"github.com/tradelite/tradelite/internal/models"
	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/services/simulation"
	"github.com/tradelite/tradelite/internal/types"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// SimulationStore is the database surface the simulation handler needs.
type SimulationStore interface {
	SaveSimulation(ctx context.Context, sim *models.Simulation) error
	GetSimulation(ctx context.Context, id string) (*models.Simulation, error)
	ListSimulations(ctx context.Context, limit, offset int) ([]models.Simulation, error)
}

// SimulationHandler serves /api/simulations. Results are cached for an hour
// and persisted; reads go cache first with a database fallback.
type SimulationHandler struct {
	db    SimulationStore
	cache cache.Store
}

func NewSimulationHandler(db SimulationStore, store cache.Store) *SimulationHandler {
	return &SimulationHandler{
		db:    db,
		cache: store,
	}
}

// Create handles POST /api/simulations
func (h *SimulationHandler) Create(c *gin.Context) {
	var req types.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if req.InitialCapital < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Initial capital must be positive"})
		return
	}

	userID := "anonymous"
	if session, ok := middleware.SessionFromContext(c); ok {
		userID = session.UserID
	}

	sim := simulation.Generate(simulation.Params{
		Asset:          req.Asset,
		Strategy:       req.Strategy,
		Timeframe:      req.Timeframe,
		InitialCapital: req.InitialCapital,
	}, userID)

	if err := h.cache.Set(c.Request.Context(), cache.PrefixSimulation+sim.ID, sim, cache.ResultTTL); err != nil {
		log.Warn().Err(err).Str("simulation", sim.ID).Msg("Failed to cache simulation")
	}

	if err := h.db.SaveSimulation(c.Request.Context(), sim); err != nil {
		log.Error().Err(err).Str("simulation", sim.ID).Msg("Failed to persist simulation")
	}

	c.JSON(http.StatusOK, sim)
}

// Get handles GET /api/simulations/:id
func (h *SimulationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var sim models.Simulation
	err := h.cache.Get(c.Request.Context(), cache.PrefixSimulation+id, &sim)
	if err == nil {
		c.JSON(http.StatusOK, sim)
		return
	}
	if err != cache.ErrKeyNotFound {
		log.Warn().Err(err).Str("simulation", id).Msg("Cache lookup failed")
	}

	stored, err := h.db.GetSimulation(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("simulation", id).Msg("Failed to load simulation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load simulation"})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Simulation not found"})
		return
	}

	// Refresh the cache for subsequent reads
	if err := h.cache.Set(c.Request.Context(), cache.PrefixSimulation+id, stored, cache.ResultTTL); err != nil {
		log.Warn().Err(err).Str("simulation", id).Msg("Failed to cache simulation")
	}

	c.JSON(http.StatusOK, stored)
}

// List handles GET /api/simulations
func (h *SimulationHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	sims, err := h.db.ListSimulations(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list simulations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list simulations"})
		return
	}

	if sims == nil {
		sims = []models.Simulation{}
	}
	c.JSON(http.StatusOK, sims)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
