package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"slapjack-server/internal/server"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	limiter := server.NewRateLimiter(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("conn-1"), "request %d should be allowed", i)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := server.NewRateLimiter(3, time.Second)

	for i := 0; i < 3; i++ {
		limiter.Allow("conn-1")
	}
	assert.False(t, limiter.Allow("conn-1"))
}

func TestRateLimiterIsPerConnection(t *testing.T) {
	limiter := server.NewRateLimiter(1, time.Second)

	assert.True(t, limiter.Allow("conn-1"))
	assert.True(t, limiter.Allow("conn-2"))
	assert.False(t, limiter.Allow("conn-1"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	limiter := server.NewRateLimiter(2, 100*time.Millisecond)

	limiter.Allow("conn-1")
	limiter.Allow("conn-1")
	assert.False(t, limiter.Allow("conn-1"))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, limiter.Allow("conn-1"))
}

func TestRateLimiterForget(t *testing.T) {
	limiter := server.NewRateLimiter(1, time.Minute)

	limiter.Allow("conn-1")
	assert.False(t, limiter.Allow("conn-1"))

	limiter.Forget("conn-1")
	assert.True(t, limiter.Allow("conn-1"))
}
