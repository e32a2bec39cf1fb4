package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := New(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("attempt %d rejected, want allowed", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Error("4th attempt allowed, want rejected")
	}
	if !l.Allow(ctx, "5.6.7.8") {
		t.Error("other key rejected, want allowed")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if !l.Allow(ctx, "k") {
		t.Fatal("first attempt rejected")
	}
	if l.Allow(ctx, "k") {
		t.Fatal("second attempt allowed inside window")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(ctx, "k") {
		t.Error("attempt after window rejected, want allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	ctx := context.Background()

	l.Allow(ctx, "k")
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !l.Allow(ctx, "k") {
		t.Error("attempt after Reset rejected")
	}
}

func TestRedisLimiter_NilClientAllows(t *testing.T) {
	var l *RedisLimiter
	if !l.Allow(context.Background(), "k") {
		t.Error("nil limiter rejected, want allowed")
	}
	if err := l.Reset(context.Background(), "k"); err != nil {
		t.Errorf("nil limiter Reset: %v", err)
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_Window(t *testing.T) {
	mr, client := newMiniRedis(t)
	l := NewRedis(client, "test:", 2, time.Minute, zap.NewNop())
	ctx := context.Background()

	var got []bool
	for i := 0; i < 3; i++ {
		got = append(got, l.Allow(ctx, "login:10.0.0.1"))
	}
	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("attempts = %v, want %v", got, want)
		}
	}

	if ttl := mr.TTL("test:login:10.0.0.1"); ttl != time.Minute {
		t.Errorf("counter ttl = %v, want %v", ttl, time.Minute)
	}
	if !l.Allow(ctx, "login:10.0.0.2") {
		t.Error("other key rejected, want allowed")
	}

	mr.FastForward(2 * time.Minute)
	if !l.Allow(ctx, "login:10.0.0.1") {
		t.Error("attempt after window rejected, want allowed")
	}
}

func TestRedisLimiter_Reset(t *testing.T) {
	mr, client := newMiniRedis(t)
	l := NewRedis(client, "test:", 1, time.Minute, zap.NewNop())
	ctx := context.Background()

	if !l.Allow(ctx, "k") {
		t.Fatal("first attempt rejected")
	}
	if l.Allow(ctx, "k") {
		t.Fatal("second attempt allowed inside window")
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("test:k") {
		t.Error("counter still present after Reset")
	}
	if !l.Allow(ctx, "k") {
		t.Error("attempt after Reset rejected")
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	mr, client := newMiniRedis(t)
	l := NewRedis(client, "test:", 1, time.Minute, zap.NewNop())
	ctx := context.Background()

	mr.SetError("server unavailable")
	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "k") {
			t.Fatalf("attempt %d rejected while redis fails, want allowed", i+1)
		}
	}
	if err := l.Reset(ctx, "k"); err == nil {
		t.Error("Reset error = nil while redis fails")
	}

	mr.SetError("")
	if !l.Allow(ctx, "k") {
		t.Error("first attempt after recovery rejected")
	}
	if l.Allow(ctx, "k") {
		t.Error("second attempt after recovery allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "10.0.0.1, 10.0.0.2", "", "192.168.1.1:5555", "10.0.0.1"},
		{"real ip", "", "10.0.0.9", "192.168.1.1:5555", "10.0.0.9"},
		{"remote with port", "", "", "192.168.1.1:5555", "192.168.1.1"},
		{"remote without port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
