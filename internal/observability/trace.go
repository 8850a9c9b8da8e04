package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cfblog/cfblog-web/internal/wp"
)

// sensitiveParams are query parameter names that are scrubbed from trace output.
var sensitiveParams = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"client_secret": true,
	"_wpnonce":      true,
}

// TraceWriter writes human-readable trace lines with timestamps relative to
// when it was created.
type TraceWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
}

// NewTraceWriter creates a TraceWriter that writes to stderr.
func NewTraceWriter() *TraceWriter {
	return NewTraceWriterTo(os.Stderr)
}

// NewTraceWriterTo creates a TraceWriter that writes to w.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteRequest writes a request line.
// Format: [0.234s] GET /wp-json/wp/v2/tags/3 -> 200 (45ms)
func (t *TraceWriter) WriteRequest(info wp.RequestInfo, result wp.RequestResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime).Seconds()
	safeURL := scrubURL(info.URL)
	if result.Err != nil {
		fmt.Fprintf(t.writer, "[%.3fs] %s %s -> ERROR: %v\n", elapsed, info.Method, safeURL, result.Err)
		return
	}
	fmt.Fprintf(t.writer, "[%.3fs] %s %s -> %d (%dms)\n", elapsed, info.Method, safeURL, result.StatusCode, result.Duration.Milliseconds())
}

// WriteCache writes a cache lookup line.
// Format: [0.234s] cache site_info: hit
func (t *TraceWriter) WriteCache(name string, hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	fmt.Fprintf(t.writer, "[%.3fs] cache %s: %s\n", time.Since(t.startTime).Seconds(), name, outcome)
}

// Reset resets the start time for relative timestamps.
func (t *TraceWriter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTime = time.Now()
}

func scrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}

	if !modified {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}
