// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package llm implements a chat-completions client for OpenAI-compatible
// APIs. DeepSeek and OpenAI share the wire format, so one client serves
// both, parameterized by base URL and model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tradelite/tradelite/internal/services/core"
	"github.com/tradelite/tradelite/internal/services/resilience"
)

var (
	ErrNoAPIKey       = errors.New("llm: no api key configured")
	ErrCircuitOpen    = errors.New("llm: circuit breaker open")
	ErrEmptyResponse  = errors.New("llm: empty completion response")
	ErrRequestFailed  = errors.New("llm: request failed")
	ErrInvalidPayload = errors.New("llm: invalid response payload")
)

const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-chat"

	OpenAIBaseURL = "https://api.openai.com/v1"
	OpenAIModel   = "gpt-4o"

	requestTimeout = 30 * time.Second
)

// Client calls one chat-completions endpoint.
type Client struct {
	core.ServiceCore
	apiKey  string
	model   string
	breaker *resilience.CircuitBreaker
}

// NewClient creates a chat-completions client for the given endpoint.
func NewClient(name, baseURL, apiKey, model string) *Client {
	return &Client{
		ServiceCore: core.ServiceCore{
			Type:        name,
			DisplayName: name,
			BaseURL:     baseURL,
		},
		apiKey:  apiKey,
		model:   model,
		breaker: resilience.NewCircuitBreaker(3, time.Minute),
	}
}

// NewDeepSeekClient creates a client for the DeepSeek API.
func NewDeepSeekClient(apiKey string) *Client {
	return NewClient("deepseek", DeepSeekBaseURL, apiKey, DeepSeekModel)
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string) *Client {
	return NewClient("openai", OpenAIBaseURL, apiKey, OpenAIModel)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.Type
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatCompletion sends a system and user message and returns the first
// choice's content.
func (c *Client) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", ErrNoAPIKey
	}
	if c.breaker.IsOpen() {
		return "", ErrCircuitOpen
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.MakeRequestWithContext(reqCtx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload), map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		c.breaker.RecordFailure()
		return "", err
	}

	status := resp.StatusCode
	body, err := c.ReadBody(resp)
	if err != nil {
		c.breaker.RecordFailure()
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if status != http.StatusOK {
		c.breaker.RecordFailure()
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("%w: %s (%d)", ErrRequestFailed, parsed.Error.Message, status)
		}
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		c.breaker.RecordFailure()
		return "", ErrEmptyResponse
	}

	c.breaker.RecordSuccess()
	return parsed.Choices[0].Message.Content, nil
}
