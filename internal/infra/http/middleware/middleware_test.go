package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/internal/config"
	redisinfra "github.com/hromada/backoffice/internal/infra/redis"
	"github.com/hromada/backoffice/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{name: "generated", header: ""},
		{name: "propagated", header: "req-42", wantKeep: true},
		{name: "oversized is replaced", header: strings.Repeat("x", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID, gotIP string
			h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				gotID = GetRequestID(r.Context())
				gotIP = GetClientIP(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/debtors", nil)
			req.RemoteAddr = "10.1.2.3:5555"
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, gotID)
			if tt.wantKeep {
				assert.Equal(t, tt.header, gotID)
			} else {
				assert.NotEqual(t, tt.header, gotID)
			}
			assert.Equal(t, gotID, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "10.1.2.3", gotIP)
		})
	}
}

func TestRecovery(t *testing.T) {
	h := RequestID()(Recovery(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://admin.hromada.gov.ua"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}
	h := CORS(cfg)(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://admin.hromada.gov.ua")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "https://admin.hromada.gov.ua", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("declared length", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Петренко"}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("streamed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.MultiReader(strings.NewReader(`{"name":"Петренко"}`)))
		req.ContentLength = -1
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.True(t, IsBodyTooLarge(readErr))
	})

	t.Run("get is untouched", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll([]byte(s), nil)
}

func TestDecompress(t *testing.T) {
	const body = `{"payer_name":"Коваленко","limit":10}`

	tests := []struct {
		name     string
		encoding string
		data     []byte
		cfg      *DecompressConfig
		wantCode int
		wantBody string
	}{
		{name: "gzip", encoding: "gzip", data: gzipped(t, body), wantCode: http.StatusOK, wantBody: body},
		{name: "zstd", encoding: "zstd", data: zstded(t, body), wantCode: http.StatusOK, wantBody: body},
		{name: "plain", encoding: "", data: []byte(body), wantCode: http.StatusOK, wantBody: body},
		{name: "unsupported", encoding: "br", data: []byte(body), wantCode: http.StatusUnsupportedMediaType},
		{name: "corrupt", encoding: "gzip", data: []byte("not gzip"), wantCode: http.StatusBadRequest},
		{
			name:     "ratio exceeded",
			encoding: "gzip",
			data:     gzipped(t, strings.Repeat("a", 100000)),
			cfg:      &DecompressConfig{MaxDecompressedSize: 1 << 20, MaxCompressedSize: 1 << 20, MaxCompressionRatio: 10, AllowedEncodings: []string{"gzip"}},
			wantCode: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Decompress(tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				got = string(b)
				assert.Empty(t, r.Header.Get("Content-Encoding"))
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/charges/search", bytes.NewReader(tt.data))
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, got)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Run("slow handler", func(t *testing.T) {
		h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler", func(t *testing.T) {
		h := Timeout(time.Second)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("panic reaches recovery", func(t *testing.T) {
		h := Recovery(logger.NewNop())(Timeout(time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{RequestsPerSec: 1, Burst: 2, CleanupInterval: time.Minute}, logger.NewNop())
	defer rl.Stop()
	h := rl.Middleware()(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/debtors", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debtors", nil)
	req.RemoteAddr = "192.0.2.8:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own bucket")
}

func TestRateLimitWithStop_Disabled(t *testing.T) {
	mw, stop := RateLimitWithStop(&config.RateLimitConfig{Enabled: false}, logger.NewNop())
	defer stop()

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

type fakeDistributedLimiter struct {
	result *redisinfra.MiddlewareRateLimitResult
	err    error
	keys   []string
}

func (f *fakeDistributedLimiter) Allow(_ context.Context, key string) (*redisinfra.MiddlewareRateLimitResult, error) {
	f.keys = append(f.keys, key)
	return f.result, f.err
}

func (f *fakeDistributedLimiter) Limit() int { return 100 }

func TestDistributedRateLimit(t *testing.T) {
	reset := time.Now().Add(time.Minute)

	tests := []struct {
		name      string
		limiter   *fakeDistributedLimiter
		path      string
		wantCode  int
		wantCalls int
	}{
		{
			name:      "allowed",
			limiter:   &fakeDistributedLimiter{result: &redisinfra.MiddlewareRateLimitResult{Allowed: true, Remaining: 99, ResetAt: reset}},
			path:      "/api/v1/debtors",
			wantCode:  http.StatusOK,
			wantCalls: 1,
		},
		{
			name:      "denied",
			limiter:   &fakeDistributedLimiter{result: &redisinfra.MiddlewareRateLimitResult{ResetAt: reset, RetryAt: time.Now().Add(30 * time.Second)}},
			path:      "/api/v1/debtors",
			wantCode:  http.StatusTooManyRequests,
			wantCalls: 1,
		},
		{
			name:      "redis down fails open",
			limiter:   &fakeDistributedLimiter{err: errors.New("connection refused")},
			path:      "/api/v1/debtors",
			wantCode:  http.StatusOK,
			wantCalls: 1,
		},
		{
			name:     "probes skipped",
			limiter:  &fakeDistributedLimiter{err: errors.New("unused")},
			path:     "/health",
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DistributedRateLimit(DistributedRateLimitConfig{
				Limiter:  tt.limiter,
				SkipFunc: SkipProbes,
			})(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.RemoteAddr = "198.51.100.4:1234"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Len(t, tt.limiter.keys, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, "198.51.100.4", tt.limiter.keys[0])
			}
			if tt.wantCode == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/v1/debtors/42", "/api/v1/debtors/{id}"},
		{"/api/v1/registries/7/records", "/api/v1/registries/{id}/records"},
		{"/api/v1/charges/search", "/api/v1/charges/search"},
		{"/", "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in), tt.in)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersWithConfig(SecurityHeadersConfig{HSTSEnabled: true, HSTSIncludeSubdomains: true})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
