// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelite/tradelite/internal/api/middleware"
	"github.com/tradelite/tradelite/internal/models"
	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/types"
)

// fakeSimulationStore is an in-memory SimulationStore
type fakeSimulationStore struct {
	sims       map[string]*models.Simulation
	order      []string
	lastLimit  int
	lastOffset int
	failSave   bool
}

func jsonBody(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

func newFakeSimulationStore() *fakeSimulationStore {
	return &fakeSimulationStore{sims: make(map[string]*models.Simulation)}
}

func (s *fakeSimulationStore) SaveSimulation(ctx context.Context, sim *models.Simulation) error {
	if s.failSave {
		return errors.New("db down")
	}
	s.sims[sim.ID] = sim
	s.order = append(s.order, sim.ID)
	return nil
}

func (s *fakeSimulationStore) GetSimulation(ctx context.Context, id string) (*models.Simulation, error) {
	return s.sims[id], nil
}

func (s *fakeSimulationStore) ListSimulations(ctx context.Context, limit, offset int) ([]models.Simulation, error) {
	s.lastLimit = limit
	s.lastOffset = offset

	var out []models.Simulation
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *s.sims[s.order[i]])
	}
	return out, nil
}

func TestSimulationCreate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newFakeSimulationStore()
		memCache := cache.NewMemoryStore()
		handler := NewSimulationHandler(store, memCache)

		w := postJSON(t, handler.Create, `{"asset": "BTC", "strategy": "sma_crossover", "timeframe": 30, "initial_capital": 5000}`)

		require.Equal(t, http.StatusOK, w.Code)

		var sim models.Simulation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
		assert.NotEmpty(t, sim.ID)
		assert.Equal(t, "anonymous", sim.UserID)
		assert.Equal(t, "BTC", sim.Asset)
		assert.Len(t, sim.Data, 30)

		// Persisted and cached
		assert.Contains(t, store.sims, sim.ID)
		var cached models.Simulation
		assert.NoError(t, memCache.Get(context.Background(), cache.PrefixSimulation+sim.ID, &cached))
	})

	t.Run("Uses Session User", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())

		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/", jsonBody(`{"asset": "ETH", "strategy": "rsi", "timeframe": 10}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set(middleware.SessionKey, types.SessionData{UserID: "user-7"})

		handler.Create(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"user-7"`)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())

		w := postJSON(t, handler.Create, `{"asset": "BTC"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Timeframe Out Of Range", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())

		w := postJSON(t, handler.Create, `{"asset": "BTC", "strategy": "rsi", "timeframe": 1000}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Negative Capital", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())

		w := postJSON(t, handler.Create, `{"asset": "BTC", "strategy": "rsi", "timeframe": 10, "initial_capital": -5}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Initial capital must be positive")
	})

	t.Run("Persistence Failure Still Returns Result", func(t *testing.T) {
		store := newFakeSimulationStore()
		store.failSave = true
		handler := NewSimulationHandler(store, cache.NewMemoryStore())

		w := postJSON(t, handler.Create, `{"asset": "BTC", "strategy": "rsi", "timeframe": 10}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSimulationGet(t *testing.T) {
	getSim := func(t *testing.T, handler *SimulationHandler, id string) *httptest.ResponseRecorder {
		t.Helper()
		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/"+id, nil)
		c.Params = gin.Params{{Key: "id", Value: id}}
		handler.Get(c)
		return w
	}

	t.Run("From Cache", func(t *testing.T) {
		memCache := cache.NewMemoryStore()
		sim := models.Simulation{ID: "sim-1", Asset: "BTC"}
		require.NoError(t, memCache.Set(context.Background(), cache.PrefixSimulation+"sim-1", sim, cache.ResultTTL))

		handler := NewSimulationHandler(newFakeSimulationStore(), memCache)
		w := getSim(t, handler, "sim-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"sim-1"`)
	})

	t.Run("From Database", func(t *testing.T) {
		store := newFakeSimulationStore()
		store.sims["sim-2"] = &models.Simulation{ID: "sim-2", Asset: "ETH"}
		memCache := cache.NewMemoryStore()

		handler := NewSimulationHandler(store, memCache)
		w := getSim(t, handler, "sim-2")

		assert.Equal(t, http.StatusOK, w.Code)

		// Cache refreshed for the next read
		var cached models.Simulation
		assert.NoError(t, memCache.Get(context.Background(), cache.PrefixSimulation+"sim-2", &cached))
		assert.Equal(t, "ETH", cached.Asset)
	})

	t.Run("Not Found", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())
		w := getSim(t, handler, "missing")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Simulation not found")
	})
}

func TestSimulationList(t *testing.T) {
	listSims := func(t *testing.T, handler *SimulationHandler, query string) *httptest.ResponseRecorder {
		t.Helper()
		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/?"+query, nil)
		handler.List(c)
		return w
	}

	t.Run("Empty List", func(t *testing.T) {
		handler := NewSimulationHandler(newFakeSimulationStore(), cache.NewMemoryStore())
		w := listSims(t, handler, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("Returns Items", func(t *testing.T) {
		store := newFakeSimulationStore()
		require.NoError(t, store.SaveSimulation(context.Background(), &models.Simulation{ID: "a"}))
		require.NoError(t, store.SaveSimulation(context.Background(), &models.Simulation{ID: "b"}))

		handler := NewSimulationHandler(store, cache.NewMemoryStore())
		w := listSims(t, handler, "")

		assert.Equal(t, http.StatusOK, w.Code)

		var sims []models.Simulation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sims))
		assert.Len(t, sims, 2)
	})

	t.Run("Limit Is Capped", func(t *testing.T) {
		store := newFakeSimulationStore()
		handler := NewSimulationHandler(store, cache.NewMemoryStore())

		listSims(t, handler, "limit=500")
		assert.Equal(t, maxListLimit, store.lastLimit)

		listSims(t, handler, "limit=-3&offset=-1")
		assert.Equal(t, defaultListLimit, store.lastLimit)
		assert.Equal(t, 0, store.lastOffset)
	})
}
