package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// readyTimeout bounds all dependency checks of one readiness probe.
const readyTimeout = 5 * time.Second

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	names  []string
	checks map[string]Pinger
	now    func() time.Time
}

// HealthHandlerOption configures the health handler.
type HealthHandlerOption func(*HealthHandler)

// WithCheck adds a named dependency to the readiness probe.
func WithCheck(name string, p Pinger) HealthHandlerOption {
	return func(h *HealthHandler) {
		if p == nil {
			return
		}
		if _, exists := h.checks[name]; !exists {
			h.names = append(h.names, name)
		}
		h.checks[name] = p
	}
}

// WithDatabase adds the database check.
func WithDatabase(db Pinger) HealthHandlerOption {
	return WithCheck("database", db)
}

// WithRedis adds the Redis check.
func WithRedis(redis Pinger) HealthHandlerOption {
	return WithCheck("redis", redis)
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(opts ...HealthHandlerOption) *HealthHandler {
	h := &HealthHandler{
		checks: make(map[string]Pinger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	sort.Strings(h.names)
	return h
}

// HealthResponse represents the liveness response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
	})
}

// ReadyResponse represents the readiness response.
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Ready handles GET /ready. It answers 503 when any dependency is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	results := make([]CheckResult, len(h.names))
	var wg sync.WaitGroup
	for i, name := range h.names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = check(ctx, h.checks[name])
		}()
	}
	wg.Wait()

	response := ReadyResponse{
		Status:    "ready",
		Timestamp: h.now().UTC(),
		Checks:    make(map[string]CheckResult, len(h.names)),
	}
	status := http.StatusOK
	for i, name := range h.names {
		response.Checks[name] = results[i]
		if results[i].Status != "ok" {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

func check(ctx context.Context, p Pinger) CheckResult {
	start := time.Now()
	err := p.Ping(ctx)
	result := CheckResult{Status: "ok", Duration: time.Since(start).String()}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}
	return result
}
