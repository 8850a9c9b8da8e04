// Package observability collects request and cache metrics and traces gateway traffic.
package observability

import (
	"maps"
	"sync"
	"time"

	"github.com/cfblog/cfblog-web/internal/wp"
)

// RequestMetrics holds timing and status information for a single API request.
type RequestMetrics struct {
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Error      error
}

// RequestMetricsFromGateway converts gateway hook data.
func RequestMetricsFromGateway(info wp.RequestInfo, result wp.RequestResult) RequestMetrics {
	return RequestMetrics{
		Method:     info.Method,
		URL:        info.URL,
		StatusCode: result.StatusCode,
		Duration:   result.Duration,
		Error:      result.Err,
	}
}

// CacheStats counts lookups against one named cache.
type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// SessionMetrics aggregates metrics for a process or CLI session.
type SessionMetrics struct {
	StartTime      time.Time             `json:"start_time"`
	EndTime        time.Time             `json:"end_time"`
	TotalRequests  int                   `json:"total_requests"`
	FailedRequests int                   `json:"failed_requests"`
	CacheHits      int                   `json:"cache_hits"`
	CacheMisses    int                   `json:"cache_misses"`
	TotalLatency   time.Duration         `json:"total_latency"`
	Caches         map[string]CacheStats `json:"caches,omitempty"`
}

// SessionCollector accumulates metrics. It is safe for concurrent use and
// keeps counters rather than per-request records.
type SessionCollector struct {
	mu sync.Mutex

	startTime      time.Time
	totalRequests  int
	failedRequests int
	totalLatency   time.Duration
	caches         map[string]CacheStats
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{
		startTime: time.Now(),
		caches:    map[string]CacheStats{},
	}
}

// RecordRequest records one API request. Transport errors and non-2xx
// statuses count as failures.
func (c *SessionCollector) RecordRequest(m RequestMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += m.Duration
	if m.Error != nil || m.StatusCode < 200 || m.StatusCode >= 300 {
		c.failedRequests++
	}
}

// RecordCacheHit counts a lookup served from memory.
func (c *SessionCollector) RecordCacheHit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.caches[name]
	s.Hits++
	c.caches[name] = s
}

// RecordCacheMiss counts a lookup that had to fetch.
func (c *SessionCollector) RecordCacheMiss(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.caches[name]
	s.Misses++
	c.caches[name] = s
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := SessionMetrics{
		StartTime:      c.startTime,
		EndTime:        time.Now(),
		TotalRequests:  c.totalRequests,
		FailedRequests: c.failedRequests,
		TotalLatency:   c.totalLatency,
		Caches:         maps.Clone(c.caches),
	}
	for _, s := range c.caches {
		m.CacheHits += s.Hits
		m.CacheMisses += s.Misses
	}
	return m
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.failedRequests = 0
	c.totalLatency = 0
	c.caches = map[string]CacheStats{}
}
