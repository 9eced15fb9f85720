package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vraj62023/MultimodalChatbot/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/completion", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := middleware.NewRateLimiter(10, 3)
	h := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		if code := doRequest(h, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d within burst got %d", i, code)
		}
	}
	if code := doRequest(h, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := middleware.NewRateLimiter(10, 1)
	h := rl.Handler(okHandler())

	if code := doRequest(h, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client got %d", code)
	}
	if code := doRequest(h, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("first client should be throttled, got %d", code)
	}
	if code := doRequest(h, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("second client must have its own bucket, got %d", code)
	}
}
