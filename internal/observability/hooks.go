package observability

import (
	"context"
	"sync"

	"github.com/cfblog/cfblog-web/internal/cache"
	"github.com/cfblog/cfblog-web/internal/wp"
)

var (
	_ wp.Hooks       = (*Hooks)(nil)
	_ cache.Observer = (*Hooks)(nil)
)

// Hooks observe gateway requests and cache lookups.
// Verbosity levels:
//   - 0: collect stats only
//   - 1: also trace cache misses
//   - 2: also trace every request and cache hit
type Hooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewHooks creates Hooks with the given verbosity level.
// A nil collector disables metrics; a nil writer disables tracing.
func NewHooks(level int, collector *SessionCollector, writer *TraceWriter) *Hooks {
	return &Hooks{
		level:     level,
		collector: collector,
		writer:    writer,
	}
}

// SetLevel changes the verbosity level at runtime.
func (h *Hooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *Hooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

func (h *Hooks) snapshot() (int, *SessionCollector, *TraceWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level, h.collector, h.writer
}

// OnRequestEnd is called after every gateway request.
func (h *Hooks) OnRequestEnd(_ context.Context, info wp.RequestInfo, result wp.RequestResult) {
	level, collector, writer := h.snapshot()

	if collector != nil {
		collector.RecordRequest(RequestMetricsFromGateway(info, result))
	}
	if level >= 2 && writer != nil {
		writer.WriteRequest(info, result)
	}
}

// RecordCacheHit is called when a cache serves a value from memory.
func (h *Hooks) RecordCacheHit(name string) {
	level, collector, writer := h.snapshot()

	if collector != nil {
		collector.RecordCacheHit(name)
	}
	if level >= 2 && writer != nil {
		writer.WriteCache(name, true)
	}
}

// RecordCacheMiss is called when a cache has to fetch.
func (h *Hooks) RecordCacheMiss(name string) {
	level, collector, writer := h.snapshot()

	if collector != nil {
		collector.RecordCacheMiss(name)
	}
	if level >= 1 && writer != nil {
		writer.WriteCache(name, false)
	}
}
