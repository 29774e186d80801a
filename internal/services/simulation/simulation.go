// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package simulation generates synthetic trading-strategy simulations: a
// random-walk price series with warm-up technical indicators and a
// per-strategy performance outcome.
package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tradelite/tradelite/internal/models"
)

// assetProfile holds the starting price and daily volatility for an asset.
type assetProfile struct {
	StartPrice float64
	Volatility float64
}

var assetProfiles = map[string]assetProfile{
	"BTC": {StartPrice: 30000, Volatility: 0.03},
	"ETH": {StartPrice: 2000, Volatility: 0.04},
}

// defaultProfile is used for any asset without a dedicated profile.
var defaultProfile = assetProfile{StartPrice: 100, Volatility: 0.02}

// perfRange is the uniform ROI range a strategy draws its outcome from.
type perfRange struct {
	Min float64
	Max float64
}

var strategyPerformance = map[string]perfRange{
	"sma_crossover": {Min: -0.10, Max: 0.30},
	"ema_crossover": {Min: -0.05, Max: 0.25},
	"macd":          {Min: -0.15, Max: 0.35},
	"rsi":           {Min: -0.20, Max: 0.40},
	"bollinger":     {Min: -0.10, Max: 0.30},
}

// unknownStrategyReturn is the fixed outcome for unrecognized strategies.
const unknownStrategyReturn = 0.10

const (
	smaWindow = 20
	emaWindow = 10
	minPrice  = 0.1
)

// Params describes a simulation to generate.
type Params struct {
	Asset          string
	Strategy       string
	Timeframe      int
	InitialCapital float64
}

// Generate runs a simulation and returns the completed result.
func Generate(params Params, userID string) *models.Simulation {
	if params.InitialCapital <= 0 {
		params.InitialCapital = 10000
	}

	prices := generatePrices(params.Asset, params.Timeframe)
	data := make([]models.SimulationDataPoint, len(prices))
	for i, price := range prices {
		data[i] = models.SimulationDataPoint{
			Day:   i + 1,
			Price: price,
			SMA20: trailingMean(prices, i, smaWindow),
			EMA10: trailingMean(prices, i, emaWindow),
		}
	}

	perf := strategyReturn(params.Strategy)
	finalCapital := round2(params.InitialCapital * (1 + perf))
	roi := round2(perf * 100)

	return &models.Simulation{
		ID:             uuid.NewString(),
		UserID:         userID,
		Asset:          params.Asset,
		Strategy:       params.Strategy,
		Timeframe:      params.Timeframe,
		InitialCapital: params.InitialCapital,
		FinalCapital:   finalCapital,
		ROI:            roi,
		Data:           data,
		CreatedAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
}

// generatePrices produces a bounded random walk for the asset.
func generatePrices(asset string, days int) []float64 {
	profile, ok := assetProfiles[asset]
	if !ok {
		profile = defaultProfile
	}

	prices := make([]float64, days)
	price := profile.StartPrice
	for i := 0; i < days; i++ {
		price += price * profile.Volatility * (rand.Float64() - 0.5)
		if price < minPrice {
			price = minPrice
		}
		prices[i] = round2(price)
	}
	return prices
}

// trailingMean returns the mean of the window prices preceding index i, or
// nil while the window has not filled yet.
func trailingMean(prices []float64, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	var sum float64
	for _, p := range prices[i+1-window : i+1] {
		sum += p
	}
	mean := round2(sum / float64(window))
	return &mean
}

// strategyReturn draws the performance outcome for a strategy.
func strategyReturn(strategy string) float64 {
	r, ok := strategyPerformance[strategy]
	if !ok {
		return unknownStrategyReturn
	}
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
