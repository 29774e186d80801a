// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package supabase implements a client for the Supabase GoTrue auth API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tradelite/tradelite/internal/services/core"
)

// Client calls the GoTrue endpoints under <project>/auth/v1.
type Client struct {
	core.ServiceCore
	apiKey string
}

// New creates a Supabase auth client. URL is the project base URL.
func New(url, apiKey string) *Client {
	return &Client{
		ServiceCore: core.ServiceCore{
			Type:        "supabase",
			DisplayName: "Supabase Auth",
			BaseURL:     url,
		},
		apiKey: apiKey,
	}
}

// Enabled reports whether auth delegation is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != "" && c.apiKey != ""
}

// APIError is a GoTrue error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: %s (%d)", e.Message, e.Status)
}

// AuthUser is the user object returned on signup.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token response of the password grant.
type Session struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new user.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthUser, error) {
	body, err := c.post(ctx, "/auth/v1/signup", credentials{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	// Signup returns the user object directly, or a session wrapping it when
	// email confirmation is disabled.
	var session Session
	if err := json.Unmarshal(body, &session); err == nil && session.User.ID != "" {
		return &session.User, nil
	}

	var user AuthUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("supabase: decoding signup response: %w", err)
	}
	return &user, nil
}

// SignIn performs the password grant and returns the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := c.post(ctx, "/auth/v1/token?grant_type=password", credentials{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("supabase: decoding session: %w", err)
	}
	return &session, nil
}

// SignOut revokes the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/auth/v1/logout", nil, accessToken)
	return err
}

// SendRecovery sends a password recovery email.
func (c *Client) SendRecovery(ctx context.Context, email string) error {
	_, err := c.post(ctx, "/auth/v1/recover", map[string]string{"email": email}, "")
	return err
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, accessToken string) ([]byte, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	headers := map[string]string{"apikey": c.apiKey}
	if accessToken != "" {
		headers["Authorization"] = "Bearer " + accessToken
	}

	resp, err := c.MakeRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body, headers)
	if err != nil {
		return nil, err
	}

	status := resp.StatusCode
	data, err := c.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if status >= http.StatusBadRequest {
		return nil, &APIError{Status: status, Message: errorMessage(data)}
	}

	return data, nil
}

// errorMessage pulls the message out of the several error shapes GoTrue
// responds with.
func errorMessage(body []byte) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "request failed"
	}

	switch {
	case payload.Msg != "":
		return payload.Msg
	case payload.Message != "":
		return payload.Message
	case payload.ErrorDescription != "":
		return payload.ErrorDescription
	case payload.Error != "":
		return payload.Error
	default:
		return "request failed"
	}
}
