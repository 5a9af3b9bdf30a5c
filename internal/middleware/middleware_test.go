package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/isida-tgbot-go/internal/config"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2}, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatal("burst rejected")
	}
	if rl.Allow(1) {
		t.Error("third request within burst window allowed")
	}
	if !rl.Allow(2) {
		t.Error("limits leaked across users")
	}

	now = now.Add(time.Second)
	if !rl.Allow(1) {
		t.Error("token not refilled after a second")
	}

	rl.Reset(1)
	if !rl.Allow(1) || !rl.Allow(1) {
		t.Error("reset did not restore the burst")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1}, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow(1)
	now = now.Add(30 * time.Minute)
	rl.Allow(2)
	now = now.Add(45 * time.Minute)

	if n := rl.Cleanup(); n != 1 {
		t.Errorf("removed: got %d, want 1", n)
	}
}

func TestDisabledRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false}, nil)
	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}

func TestValidateInput(t *testing.T) {
	if err := ValidateInput(strings.Repeat("я", MaxMessageLength)); err != nil {
		t.Errorf("max length rejected: %v", err)
	}
	if err := ValidateInput(strings.Repeat("я", MaxMessageLength+1)); err == nil {
		t.Error("overlong text accepted")
	}
	if err := ValidateInput("\xff"); err == nil {
		t.Error("invalid utf-8 accepted")
	}
}

func TestPacerSpacesSends(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Errorf("4 sends took %v, want at least 60ms", elapsed)
	}
}

func TestPacerHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour)
	p.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestHealthEndpoint(t *testing.T) {
	m := NewMetrics()
	m.RecordReply("pattern")
	m.RecordGameMove("cities", "started")

	srv := httptest.NewServer(NewRouter("/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "isida_replies_total") {
		t.Error("metrics output lacks isida_replies_total")
	}
}
