package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/giygas/cabinet/config"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/metrics"
)

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocalOnlyMiddleware refuses clients outside the loopback and private networks:
// the records never leave the clinic.
func LocalOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := remoteHost(r)
		if host == "localhost" {
			next.ServeHTTP(w, r)
			return
		}

		ip := net.ParseIP(host)
		if ip != nil && (ip.IsLoopback() || ip.IsPrivate()) {
			next.ServeHTTP(w, r)
			return
		}

		logging.Warn("Remote access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
		http.Error(w, "Access restricted to the clinic network", http.StatusForbidden)
	})
}

// RealIPMiddleware uses the first X-Forwarded-For entry, but only when the request
// comes from a local reverse proxy.
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := net.ParseIP(remoteHost(r)); ip != nil && ip.IsLoopback() {
				if idx := strings.Index(xff, ","); idx != -1 {
					xff = xff[:idx]
				}
				r.RemoteAddr = strings.TrimSpace(xff)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequestSizeMiddleware limits the size of request headers and body
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr)
				respondWithJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody),
				})
				return
			}

			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}
			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr)
				respondWithJSON(w, http.StatusRequestHeaderFieldsTooLarge, map[string]string{
					"error": fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize),
				})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			next.ServeHTTP(w, r)
		})
	}
}

const (
	bucketRate     = 5
	bucketCapacity = 300
)

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
	stop    chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}
	return bucket
}

// cleanup drops clients whose bucket has refilled
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// getTokenCost charges writes more than reads; monitoring is almost free
func getTokenCost(r *http.Request) int64 {
	switch r.URL.Path {
	case "/health", "/metrics":
		return 1
	}
	if r.Method == http.MethodPost {
		return 10
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return 5
	}
	return 2
}

// Middleware rejects a client once its bucket is empty
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(remoteHost(r))
		cost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		// a rejected request leaves the bucket untouched
		if bucket.Available() < cost || bucket.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "10")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logging.Error("Failed to encode JSON response", "error", err)
		}
	}
}
