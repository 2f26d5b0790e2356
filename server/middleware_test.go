package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/giygas/cabinet/config"
	"github.com/giygas/cabinet/logging"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.RemoteAddr))
})

func TestLocalOnlyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       int
	}{
		{"ipv4 loopback", "127.0.0.1:5555", http.StatusOK},
		{"ipv6 loopback", "[::1]:5555", http.StatusOK},
		{"clinic lan", "192.168.1.20:5555", http.StatusOK},
		{"private 10/8", "10.0.0.7:5555", http.StatusOK},
		{"public address", "203.0.113.9:5555", http.StatusForbidden},
		{"garbage", "not-an-ip", http.StatusForbidden},
	}

	handler := LocalOnlyMiddleware(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"no header", "127.0.0.1:1234", "", "127.0.0.1:1234"},
		{"from local proxy", "127.0.0.1:1234", "192.168.1.5, 10.0.0.1", "192.168.1.5"},
		{"from lan client ignored", "192.168.1.9:1234", "8.8.8.8", "192.168.1.9:1234"},
	}

	handler := RealIPMiddleware(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if got := rr.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 64, MaxHeaderSize: 128}
	handler := RequestSizeMiddleware(cfg)(okHandler)

	t.Run("small request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader("nom=a"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("large body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(strings.Repeat("x", 65)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("large headers rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Padding", strings.Repeat("p", 200))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("status = %d", rr.Code)
		}
	})
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   int64
	}{
		{http.MethodGet, "/health", 1},
		{http.MethodGet, "/metrics", 1},
		{http.MethodGet, "/", 2},
		{http.MethodGet, "/api/patients", 5},
		{http.MethodPost, "/patients", 10},
		{http.MethodPost, "/ordonnances", 10},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if got := getTokenCost(req); got != tt.want {
				t.Errorf("cost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRateLimiterExhaustsBucket(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := rl.Middleware(okHandler)

	limited := false
	for i := 0; i < bucketCapacity/10+5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/patients", nil)
		req.RemoteAddr = "127.0.0.1:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			if rr.Header().Get("Retry-After") == "" {
				t.Error("Retry-After header missing")
			}
			break
		}
		if rr.Header().Get("X-RateLimit-Limit") == "" {
			t.Fatal("X-RateLimit-Limit header missing")
		}
	}
	if !limited {
		t.Error("bucket never ran out")
	}

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/patients", nil)
	req.RemoteAddr = "192.168.1.2:4000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client status = %d", rr.Code)
	}
}

func TestRateLimiterRejectionKeepsTokens(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := rl.Middleware(okHandler)

	bucket := rl.getBucket("127.0.0.1")
	bucket.TakeAvailable(bucketCapacity - 6)

	serve := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "127.0.0.1:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := serve(http.MethodPost, "/patients"); code != http.StatusTooManyRequests {
		t.Fatalf("POST status = %d, want 429", code)
	}
	if code := serve(http.MethodGet, "/api/patients"); code != http.StatusOK {
		t.Errorf("GET after rejected POST status = %d, want 200", code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()

	rl.getBucket("127.0.0.1")
	used := rl.getBucket("192.168.1.3")
	used.TakeAvailable(50)

	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if _, ok := rl.clients["127.0.0.1"]; ok {
		t.Error("idle client kept")
	}
	if _, ok := rl.clients["192.168.1.3"]; !ok {
		t.Error("active client dropped")
	}
}
