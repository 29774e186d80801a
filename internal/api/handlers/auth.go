// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/api/middleware"
	"github.com/tradelite/tradelite/internal/database"
	"github.com/tradelite/tradelite/internal/models"
	"github.com/tradelite/tradelite/internal/services/cache"
	"github.com/tradelite/tradelite/internal/services/supabase"
	"github.com/tradelite/tradelite/internal/types"
	"github.com/tradelite/tradelite/internal/utils"
)

const (
	sessionTokenLength = 32
	sessionDuration    = 24 * time.Hour
)

// UserStore is the database surface the auth handler needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, params database.FindUserParams) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) error
}

// AuthHandler serves /api/auth. When the Supabase client is configured,
// registration, login, logout and password reset are delegated to GoTrue;
// otherwise the built-in provider backed by the users table is used. Both
// providers store sessions in the cache.
type AuthHandler struct {
	db       UserStore
	cache    cache.Store
	supabase *supabase.Client
}

func NewAuthHandler(db UserStore, store cache.Store, supabaseClient *supabase.Client) *AuthHandler {
	return &AuthHandler{
		db:       db,
		cache:    store,
		supabase: supabaseClient,
	}
}

func secureCookies() bool {
	return os.Getenv("GIN_MODE") == "release"
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie("session", token, maxAge, "/", "", secureCookies(), true)
}

func (h *AuthHandler) storeSession(ctx context.Context, token string, session types.SessionData) error {
	return h.cache.Set(ctx, cache.PrefixSession+token, session, sessionDuration)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if h.supabase.Enabled() {
		user, err := h.supabase.SignUp(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			var apiErr *supabase.APIError
			if errors.As(err, &apiErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Message})
				return
			}
			log.Error().Err(err).Msg("Supabase signup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}

		c.JSON(http.StatusCreated, types.UserResponse{ID: user.ID, Email: user.Email})
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.db.FindUser(c.Request.Context(), database.FindUserParams{Email: req.Email})
	if err != nil {
		log.Error().Err(err).Msg("Failed to check for existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	user := &models.User{Email: req.Email, PasswordHash: hash}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, types.UserResponse{
		ID:    strconv.FormatInt(user.ID, 10),
		Email: user.Email,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if h.supabase.Enabled() {
		h.loginSupabase(c, req)
		return
	}
	h.loginBuiltin(c, req)
}

func (h *AuthHandler) loginSupabase(c *gin.Context, req types.LoginRequest) {
	session, err := h.supabase.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Error().Err(err).Msg("Supabase login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	expiresAt := time.Now().Add(sessionDuration)
	if session.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	}

	sessionData := types.SessionData{
		UserID:    session.User.ID,
		Email:     session.User.Email,
		AuthType:  "supabase",
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	if err := h.storeSession(c.Request.Context(), session.AccessToken, sessionData); err != nil {
		log.Error().Err(err).Msg("Failed to store session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	h.setSessionCookie(c, session.AccessToken, int(time.Until(expiresAt).Seconds()))
	c.JSON(http.StatusOK, types.TokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
	})
}

func (h *AuthHandler) loginBuiltin(c *gin.Context, req types.LoginRequest) {
	user, err := h.db.FindUser(c.Request.Context(), database.FindUserParams{Email: req.Email})
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateSecureToken(sessionTokenLength)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	sessionData := types.SessionData{
		UserID:    strconv.FormatInt(user.ID, 10),
		Email:     user.Email,
		AuthType:  "builtin",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(sessionDuration),
	}
	if err := h.storeSession(c.Request.Context(), token, sessionData); err != nil {
		log.Error().Err(err).Msg("Failed to store session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	h.setSessionCookie(c, token, int(sessionDuration.Seconds()))
	c.JSON(http.StatusOK, types.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := extractSessionToken(c)
	if ok {
		var session types.SessionData
		if err := h.cache.Get(c.Request.Context(), cache.PrefixSession+token, &session); err == nil {
			if session.AuthType == "supabase" && h.supabase.Enabled() {
				// Best effort; the cached session is removed regardless
				if err := h.supabase.SignOut(c.Request.Context(), token); err != nil {
					log.Warn().Err(err).Msg("Supabase signout failed")
				}
			}
		}

		if err := h.cache.Delete(c.Request.Context(), cache.PrefixSession+token); err != nil {
			log.Warn().Err(err).Msg("Failed to delete session")
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req types.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if !h.supabase.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Password reset is not available with built-in authentication"})
		return
	}

	if err := h.supabase.SendRecovery(c.Request.Context(), req.Email); err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Message})
			return
		}
		log.Error().Err(err).Msg("Password recovery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send reset email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

// Verify handles GET /api/auth/verify; it sits behind the auth middleware so
// reaching it means the session is valid.
func (h *AuthHandler) Verify(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"email":         session.Email,
		"auth_type":     session.AuthType,
	})
}

// UserInfo handles GET /api/auth/userinfo
func (h *AuthHandler) UserInfo(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	c.JSON(http.StatusOK, types.UserResponse{
		ID:    session.UserID,
		Email: session.Email,
	})
}

// extractSessionToken mirrors the auth middleware's token lookup.
func extractSessionToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("session"); err == nil && token != "" {
		return token, true
	}

	authHeader := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):], true
	}
	return "", false
}
