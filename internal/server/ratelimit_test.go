// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package server

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiterDisabledByZeroRate(t *testing.T) {
	assert.Nil(t, newRateLimiter(RateLimitConfig{}))
	assert.NotNil(t, newRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
}

func TestRateLimiterCleanupExitsOnDone(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		l.cleanup(done)
		close(stopped)
	}()

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not exit")
	}
}

func TestNewWithRateLimitSpawnsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()

	_, err := New(Config{
		ListenAddr: "127.0.0.1:0",
		RateLimit:  RateLimitConfig{RequestsPerSecond: 5, Burst: 5},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, before, runtime.NumGoroutine())
}
