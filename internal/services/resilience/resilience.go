// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package resilience provides a circuit breaker and retry helpers used by
// the outbound provider clients.
package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	MaxRetries     = 3
	InitialBackoff = 100 * time.Millisecond
	MaxBackoff     = 2 * time.Second
)

// CircuitBreaker implements a simple circuit breaker pattern
type CircuitBreaker struct {
	failures     int
	lastFailure  time.Time
	mutex        sync.Mutex
	maxFailures  int
	resetTimeout time.Duration
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// IsOpen reports whether the breaker is tripped. The failure count resets
// once the reset timeout has elapsed since the last failure.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.failures < cb.maxFailures {
		return false
	}
	if time.Since(cb.lastFailure) > cb.resetTimeout {
		cb.failures = 0
		return false
	}
	return true
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
}

// RetryWithBackoff implements exponential backoff retry logic
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	backoff := InitialBackoff

	for i := 0; i < MaxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			// Exponential backoff with 50-150% jitter
			jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))
			backoff = time.Duration(float64(backoff) * 2)
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}
			backoff += jitter
		}
	}

	return fmt.Errorf("failed after %d retries: %w", MaxRetries, err)
}
