package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClaude(t *testing.T, h http.HandlerFunc) (*Claude, *Stats) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	stats := NewStats(time.Hour)
	c := NewClaude("test-key", "test-model", "Spanish", stats)
	c.endpoint = srv.URL
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c, stats
}

func TestClaude_Translate(t *testing.T) {
	c, stats := testClaude(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "Spanish") {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"Introducción"}]}`))
	})

	got, err := c.Translate(context.Background(), "Introduction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Introducción" {
		t.Errorf("expected %q, got %q", "Introducción", got)
	}
	if snap := stats.Snapshot(); snap.Count != 1 {
		t.Errorf("expected 1 recorded call, got %d", snap.Count)
	}
}

func TestClaude_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c, stats := testClaude(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	})

	got, err := c.Translate(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls.Load() != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", got, calls.Load())
	}
	if snap := stats.Snapshot(); snap.Errors != 2 || snap.Count != 1 {
		t.Errorf("expected 2 errors and 1 success, got %+v", snap)
	}
}

func TestClaude_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClaude(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Translate(context.Background(), "x")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if int(calls.Load()) != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, calls.Load())
	}
}

func TestClaude_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClaude(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`bad key`))
	})

	_, err := c.Translate(context.Background(), "x")
	if err == nil || IsRetryable(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestClaude_EmptyContent(t *testing.T) {
	c, _ := testClaude(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	})
	if _, err := c.Translate(context.Background(), "x"); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestBackoff(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}
