package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://pitch.example"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Admin-Token"},
		MaxAge:         10 * time.Minute,
	})(ok)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api", nil)
	req.Header.Set("Origin", "https://pitch.example")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "https://pitch.example" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}

	// Preflight short-circuits with 204.
	pre := httptest.NewRequest(http.MethodOptions, "http://example.com/api", nil)
	pre.Header.Set("Origin", "https://pitch.example")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rwPre := httptest.NewRecorder()
	h.ServeHTTP(rwPre, pre)
	if rwPre.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rwPre.Code)
	}
	if got := rwPre.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("preflight: expected allow-methods header")
	}

	// Unlisted origins get no CORS headers.
	other := httptest.NewRequest(http.MethodGet, "http://example.com/api", nil)
	other.Header.Set("Origin", "https://evil.example")
	rwOther := httptest.NewRecorder()
	h.ServeHTTP(rwOther, other)
	if got := rwOther.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unlisted origin, got %q", got)
	}
}

func TestWithCORS_NoOpWhenUnconfigured(t *testing.T) {
	h := WithCORS(CORSPolicy{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api", nil)
	req.Header.Set("Origin", "https://pitch.example")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rw.Code)
	}
	if got := rw.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers when unconfigured, got %q", got)
	}
}

func TestWithTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})
	h := WithTimeout(20 * time.Millisecond)(slow)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from timeout handler, got %d", rw.Code)
	}
}
