// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package core provides the shared HTTP plumbing for outbound service
// clients (Supabase auth, AI providers).
package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/buildinfo"
)

var (
	// Global HTTP client pool, keyed by timeout
	httpClients sync.Map

	ErrServiceNotConfigured = errors.New("service is not configured")
	ErrNilResponse          = errors.New("received nil response from server")
)

// ServiceCore is embedded by outbound API clients.
type ServiceCore struct {
	Type        string
	DisplayName string
	BaseURL     string
}

// getHTTPClient returns a pooled client with the specified timeout
func getHTTPClient(timeout time.Duration) *http.Client {
	if client, ok := httpClients.Load(timeout); ok {
		return client.(*http.Client)
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
		Timeout: timeout,
	}

	httpClients.Store(timeout, client)
	return client
}

// MakeRequestWithContext makes an HTTP request with the provided context.
// The timeout is taken from the context deadline, defaulting to 15 seconds.
func (s *ServiceCore) MakeRequestWithContext(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if url == "" {
		log.Error().Str("service", s.Type).Msg("Service is not configured")
		return nil, ErrServiceNotConfigured
	}

	timeout := 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to create request")
		return nil, err
	}

	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "keep-alive")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()

	client := getHTTPClient(timeout)
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Request failed")
		return nil, err
	}

	if resp == nil {
		log.Error().Str("url", url).Msg("Received nil response from server")
		return nil, ErrNilResponse
	}

	// A redirect from an API endpoint usually means a misconfigured base URL
	if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusMovedPermanently {
		resp.Body.Close()
		err := errors.New("received redirect response, possible configuration issue")
		log.Error().Err(err).Str("url", url).Int("status", resp.StatusCode).Msg("Unexpected redirect")
		return nil, err
	}

	resp.Header.Set("X-Response-Time", time.Since(start).String())

	return resp, nil
}

// MakeRequest is MakeRequestWithContext with a default 15 second timeout.
func (s *ServiceCore) MakeRequest(method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.MakeRequestWithContext(ctx, method, url, body, headers)
}

// ReadBody reads and returns the response body, mapping common upstream
// failure statuses to errors. 4xx statuses with JSON bodies are returned to
// the caller for API-level error handling.
func (s *ServiceCore) ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil {
		return nil, ErrNilResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read response body")
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode >= http.StatusBadRequest {
		var err error
		switch resp.StatusCode {
		case http.StatusBadGateway:
			err = errors.New("service unavailable (502 bad gateway)")
		case http.StatusServiceUnavailable:
			err = errors.New("service unavailable (503)")
		case http.StatusGatewayTimeout:
			err = errors.New("service timeout (504)")
		default:
			if !isJSON(contentType) {
				err = errors.New("service error")
			}
		}
		if err != nil {
			log.Error().Err(err).Int("status", resp.StatusCode).Str("content_type", contentType).Msg("Service error")
			return nil, err
		}
	}

	return body, nil
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}
