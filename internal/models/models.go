// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "time"

// User represents a built-in auth user row.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SimulationDataPoint is one day of a simulated price series. Indicator
// fields stay null until their warm-up window has passed.
type SimulationDataPoint struct {
	Day   int      `json:"day"`
	Price float64  `json:"price"`
	SMA20 *float64 `json:"sma20"`
	EMA10 *float64 `json:"ema10"`
}

// Simulation is a completed trading-strategy simulation.
type Simulation struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id"`
	Asset          string                `json:"asset"`
	Strategy       string                `json:"strategy"`
	Timeframe      int                   `json:"timeframe"`
	InitialCapital float64               `json:"initial_capital"`
	FinalCapital   float64               `json:"final_capital"`
	ROI            float64               `json:"roi"`
	Data           []SimulationDataPoint `json:"data"`
	CreatedAt      string                `json:"created_at"`
}
