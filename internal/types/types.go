// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package types defines the request, response and session types shared
// between the API handlers and the service layer.
package types

import "time"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UserResponse is returned on successful registration.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SessionData is the cached session state behind an access token.
type SessionData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	AuthType  string    `json:"auth_type"` // "builtin" or "supabase"
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SimulationRequest is the body of POST /api/simulations.
type SimulationRequest struct {
	Asset          string  `json:"asset" binding:"required"`
	Strategy       string  `json:"strategy" binding:"required"`
	Timeframe      int     `json:"timeframe" binding:"required,min=1,max=365"`
	InitialCapital float64 `json:"initial_capital"`
}

// SentimentRequest is the body of POST /api/ai/sentiment.
type SentimentRequest struct {
	Text string `json:"text" binding:"required"`
}

// SentimentResponse labels a piece of financial text.
type SentimentResponse struct {
	Sentiment   string  `json:"sentiment"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// AnomalyRequest is the body of POST /api/ai/anomalies.
type AnomalyRequest struct {
	Data       []float64 `json:"data" binding:"required"`
	WindowSize int       `json:"window_size"`
}

// AnomalyResponse reports the indices whose rolling z-score exceeded the
// threshold, along with the score for every point.
type AnomalyResponse struct {
	Anomalies []int     `json:"anomalies"`
	Scores    []float64 `json:"scores"`
	Threshold float64   `json:"threshold"`
}

// PerformanceSummary carries the simulation outcome a feedback request is
// about.
type PerformanceSummary struct {
	ROI          float64 `json:"roi"`
	FinalCapital float64 `json:"final_capital"`
}

// FeedbackRequest is the body of POST /api/ai/feedback.
type FeedbackRequest struct {
	Asset       string             `json:"asset" binding:"required"`
	Strategy    string             `json:"strategy" binding:"required"`
	Timeframe   int                `json:"timeframe" binding:"required,min=1,max=365"`
	Performance PerformanceSummary `json:"performance"`
}

// FeedbackResponse is the generated educational feedback.
type FeedbackResponse struct {
	Feedback               string   `json:"feedback"`
	KeyPoints              []string `json:"key_points"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}
