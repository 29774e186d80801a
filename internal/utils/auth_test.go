// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "TestPass123",
			wantErr:  false,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  false, // bcrypt allows empty passwords
		},
		{
			name:     "long password",
			password: strings.Repeat("a", 72), // bcrypt's max length
			wantErr:  false,
		},
		{
			name:     "too long password",
			password: strings.Repeat("a", 73), // exceeds bcrypt's max length
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if !CheckPasswordHash(tt.password, hash) {
					t.Errorf("CheckPasswordHash() failed to verify hashed password")
				}
				if CheckPasswordHash("wrongpassword", hash) {
					t.Errorf("CheckPasswordHash() incorrectly verified wrong password")
				}
			}
		})
	}
}

func TestGenerateSecureToken(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{
			name:    "valid length",
			length:  32,
			wantErr: false,
		},
		{
			name:    "minimum length",
			length:  1,
			wantErr: false,
		},
		{
			name:    "zero length",
			length:  0,
			wantErr: true,
		},
		{
			name:    "negative length",
			length:  -1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token1, err1 := GenerateSecureToken(tt.length)
			if tt.wantErr {
				assert.Error(t, err1)
				return
			}
			assert.NoError(t, err1)
			assert.Equal(t, tt.length, len(token1))

			token2, err2 := GenerateSecureToken(tt.length)
			assert.NoError(t, err2)
			assert.Equal(t, tt.length, len(token2))
			if tt.length >= 16 {
				assert.NotEqual(t, token1, token2, "Generated tokens should be unique")
			}

			// Hex tokens are safe for cookies and URLs
			assert.Regexp(t, "^[0-9a-f]*$", token1)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "TestPass123",
			wantErr:  false,
		},
		{
			name:     "too short",
			password: "Test1",
			wantErr:  true,
		},
		{
			name:     "no uppercase",
			password: "testpass123",
			wantErr:  true,
		},
		{
			name:     "no lowercase",
			password: "TESTPASS123",
			wantErr:  true,
		},
		{
			name:     "no numbers",
			password: "TestPassword",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckPasswordHash(t *testing.T) {
	password := "TestPass123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	tests := []struct {
		name        string
		password    string
		hash        string
		wantMatches bool
	}{
		{
			name:        "correct password",
			password:    password,
			hash:        hash,
			wantMatches: true,
		},
		{
			name:        "incorrect password",
			password:    "WrongPass123",
			hash:        hash,
			wantMatches: false,
		},
		{
			name:        "empty password",
			password:    "",
			hash:        hash,
			wantMatches: false,
		},
		{
			name:        "invalid hash",
			password:    password,
			hash:        "invalid_hash",
			wantMatches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPasswordHash(tt.password, tt.hash); got != tt.wantMatches {
				t.Errorf("CheckPasswordHash() = %v, want %v", got, tt.wantMatches)
			}
		})
	}
}
