package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLimiterEnforcesQuota(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:quota", 2, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if !limiter.Allow("203.0.113.5") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if limiter.Allow("203.0.113.5") {
		t.Fatal("request over quota should be blocked")
	}
	if !limiter.Allow("203.0.113.6") {
		t.Fatal("a different key has its own quota")
	}
}

func TestLimiterFailsClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:quota", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("203.0.113.5") {
		t.Fatal("limiter should deny when redis is unreachable")
	}
}

func TestLimiterConstructorValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "test:quota", 1, time.Second); err == nil {
		t.Fatal("expected error for missing redis addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "test:quota", 0, time.Second); err == nil {
		t.Fatal("expected error for zero limit")
	}
}
