// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *Client {
	return NewClient("test", baseURL, "test-key", "test-model")
}

func completionResponse(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestChatCompletion(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req chatRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completionResponse("Generated feedback text")))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		content, err := client.ChatCompletion(context.Background(), "system prompt", "user prompt")

		assert.NoError(t, err)
		assert.Equal(t, "Generated feedback text", content)
	})

	t.Run("No API Key", func(t *testing.T) {
		client := NewClient("test", "http://localhost", "", "test-model")
		_, err := client.ChatCompletion(context.Background(), "s", "u")

		assert.ErrorIs(t, err, ErrNoAPIKey)
	})

	t.Run("API Error Response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "Invalid API key"}}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		_, err := client.ChatCompletion(context.Background(), "s", "u")

		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.Contains(t, err.Error(), "Invalid API key")
	})

	t.Run("Empty Choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		_, err := client.ChatCompletion(context.Background(), "s", "u")

		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Circuit Opens After Repeated Failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "rate limited"}}`))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		for i := 0; i < 3; i++ {
			_, err := client.ChatCompletion(context.Background(), "s", "u")
			assert.ErrorIs(t, err, ErrRequestFailed)
		}

		_, err := client.ChatCompletion(context.Background(), "s", "u")
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})
}

func TestProviderConstructors(t *testing.T) {
	deepseek := NewDeepSeekClient("key")
	assert.Equal(t, "deepseek", deepseek.Name())
	assert.Equal(t, DeepSeekBaseURL, deepseek.BaseURL)
	assert.True(t, deepseek.Enabled())

	openai := NewOpenAIClient("")
	assert.Equal(t, "openai", openai.Name())
	assert.False(t, openai.Enabled())
}
