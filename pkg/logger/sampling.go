package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SamplingConfig configures log sampling.
type SamplingConfig struct {
	Enabled bool

	// Tick is the interval after which counters reset.
	Tick time.Duration

	// Threshold is how many identical records pass per tick before sampling.
	Threshold uint64

	// Rate is the fraction of records kept after the threshold, in [0, 1].
	Rate float64

	// ErrorRate replaces Rate for warnings and errors.
	ErrorRate float64

	// MaxCounterSize bounds the number of distinct messages tracked.
	MaxCounterSize int

	// NeverSampleMessages are message prefixes that are always logged.
	NeverSampleMessages []string

	// EnableMetrics counts processed and dropped records in Prometheus.
	EnableMetrics bool
}

// Sampling defaults.
const (
	DefaultSamplingTick           = time.Second
	DefaultSamplingThreshold      = 100
	DefaultSamplingMaxCounterSize = 10000
)

// samplingState is shared by a handler and its WithAttrs/WithGroup children.
type samplingState struct {
	counters  sync.Map // level:message -> *atomic.Uint64
	size      atomic.Int64
	lastReset atomic.Int64
}

type samplingHandler struct {
	next  slog.Handler
	cfg   SamplingConfig
	state *samplingState
}

// NewSamplingHandler wraps h so that the first Threshold records with the
// same level and message are logged each tick, and after that only a Rate
// fraction of them. It returns h unchanged when sampling is disabled.
func NewSamplingHandler(h slog.Handler, cfg SamplingConfig) slog.Handler {
	if !cfg.Enabled {
		return h
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultSamplingTick
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultSamplingThreshold
	}
	if cfg.MaxCounterSize <= 0 {
		cfg.MaxCounterSize = DefaultSamplingMaxCounterSize
	}

	st := &samplingState{}
	st.lastReset.Store(time.Now().UnixNano())
	return &samplingHandler{next: h, cfg: cfg, state: st}
}

func (h *samplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *samplingHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.EnableMetrics {
		observeProcessed(r.Level)
	}

	for _, prefix := range h.cfg.NeverSampleMessages {
		if strings.HasPrefix(r.Message, prefix) {
			return h.next.Handle(ctx, r)
		}
	}

	h.maybeReset()

	if h.state.size.Load() >= int64(h.cfg.MaxCounterSize) {
		return h.next.Handle(ctx, r)
	}

	v, loaded := h.state.counters.LoadOrStore(r.Level.String()+":"+r.Message, new(atomic.Uint64))
	if !loaded {
		h.state.size.Add(1)
	}
	count := v.(*atomic.Uint64).Add(1)

	if count <= h.cfg.Threshold {
		return h.next.Handle(ctx, r)
	}

	rate := h.cfg.Rate
	if r.Level >= slog.LevelWarn {
		rate = h.cfg.ErrorRate
	}
	if keep(count, rate) {
		return h.next.Handle(ctx, r)
	}

	if h.cfg.EnableMetrics {
		observeDropped(r.Level)
	}
	return nil
}

func (h *samplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &samplingHandler{next: h.next.WithAttrs(attrs), cfg: h.cfg, state: h.state}
}

func (h *samplingHandler) WithGroup(name string) slog.Handler {
	return &samplingHandler{next: h.next.WithGroup(name), cfg: h.cfg, state: h.state}
}

// keep decides deterministically: with rate 0.1 every tenth record passes.
func keep(count uint64, rate float64) bool {
	if rate >= 1.0 {
		return true
	}
	if rate <= 0.0 {
		return false
	}
	return count%uint64(1.0/rate) == 0
}

func (h *samplingHandler) maybeReset() {
	now := time.Now().UnixNano()
	last := h.state.lastReset.Load()
	if now-last < h.cfg.Tick.Nanoseconds() {
		return
	}
	if !h.state.lastReset.CompareAndSwap(last, now) {
		return
	}
	h.state.counters.Range(func(key, _ any) bool {
		h.state.counters.Delete(key)
		return true
	})
	h.state.size.Store(0)
}
