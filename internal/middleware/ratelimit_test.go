package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeScripter counts script runs per key in memory.
type fakeScripter struct {
	redis.Scripter
	counts map[string]int64
	err    error
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[keys[0]]++
	cmd.SetVal(f.counts[keys[0]])
	return cmd
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(&fakeScripter{counts: map[string]int64{}}, "api", 2, time.Minute)
	ctx := context.Background()

	for i, want := range []struct {
		allowed   bool
		remaining int
	}{
		{true, 1},
		{true, 0},
		{false, 0},
	} {
		allowed, remaining, err := rl.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if allowed != want.allowed || remaining != want.remaining {
			t.Errorf("call %d: Allow() = %v, %d; want %v, %d", i+1, allowed, remaining, want.allowed, want.remaining)
		}
	}

	if allowed, _, _ := rl.Allow(ctx, "10.0.0.2"); !allowed {
		t.Error("a different client should not share the counter")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(&fakeScripter{counts: map[string]int64{}}, "api", 1, time.Minute)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/abc", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("X-RateLimit-Limit = %s, want 1", got)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRateLimit_RedisDown(t *testing.T) {
	rl := NewRateLimiter(&fakeScripter{err: errors.New("connection refused")}, "api", 10, time.Minute)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	handler := RateLimit(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want passthrough", w.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "203.0.113.9:5555"
	if got := clientKey(req); got != "203.0.113.9" {
		t.Errorf("clientKey() = %q, want 203.0.113.9", got)
	}

	req.RemoteAddr = "203.0.113.9"
	if got := clientKey(req); got != "203.0.113.9" {
		t.Errorf("clientKey() without port = %q", got)
	}
}
