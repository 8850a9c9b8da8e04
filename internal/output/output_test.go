package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfblog/cfblog-web/internal/wp"
)

type termRow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriterJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf})

	require.NoError(t, w.OK([]termRow{{ID: 1, Name: "Go"}}, WithSummary("1 category")))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "1 category", resp["summary"])
	assert.Len(t, resp["data"], 1)
}

func TestWriterQuietWritesDataOnly(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatQuiet, Writer: &buf})

	require.NoError(t, w.OK(map[string]string{"site_title": "CFBlog"}, WithSummary("ignored")))
	assert.JSONEq(t, `{"site_title":"CFBlog"}`, buf.String())
}

func TestWriterAutoIsJSONWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Writer: &buf})
	assert.False(t, w.Styled())
	require.NoError(t, w.OK("x"))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestWriterErrEnvelope(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf})

	require.NoError(t, w.Err(ErrUsageHint("bad key", "try site_title")))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, CodeUsage, resp.Code)
	assert.Equal(t, "try site_title", resp.Hint)
}

func TestWriterJQ(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Format: FormatJSON, Writer: &buf, JQ: ".data[].name"})

	require.NoError(t, w.OK([]termRow{{ID: 1, Name: "Go"}, {ID: 2, Name: "Web"}}))
	assert.Equal(t, "Go\nWeb\n", buf.String())
}

func TestWriterJQObjects(t *testing.T) {
	var buf bytes.Buffer
	w := New(Options{Writer: &buf, JQ: ".data | length"})
	require.NoError(t, w.OK([]int{1, 2, 3}))
	assert.Equal(t, "3\n", buf.String())
}

func TestApplyJQErrors(t *testing.T) {
	_, err := ApplyJQ(".[", nil)
	require.Error(t, err)
	assert.Equal(t, CodeUsage, AsError(err).Code)

	_, err = ApplyJQ(`error("boom")`, map[string]any{})
	require.Error(t, err)
}

func TestStyledRendering(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	w := New(Options{Format: FormatStyled, Writer: &buf})

	require.NoError(t, w.OK([]termRow{{ID: 3, Name: "Go", Count: 7}}, WithSummary("Categories")))
	out := buf.String()
	assert.Contains(t, out, "Categories")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Go")
	assert.Contains(t, out, "7")
}

func TestStyledObjectAndStats(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	w := New(Options{Format: FormatStyled, Writer: &buf})

	stats := map[string]any{"total_requests": 3, "failed_requests": 1, "cache_hits": 2, "cache_misses": 1, "total_latency": int64(45 * time.Millisecond)}
	require.NoError(t, w.OK(map[string]any{"site_title": "CFBlog", "site_author": "Ann"}, WithMeta("stats", stats)))

	out := buf.String()
	assert.Regexp(t, `Site Title\s*: CFBlog`, out)
	assert.Contains(t, out, "Stats: 3 requests | 1 failed | cache 2/3 hit | 45ms")
}

func TestStyledEmptyAndError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	w := New(Options{Format: FormatStyled, Writer: &buf})

	require.NoError(t, w.OK([]termRow{}))
	assert.Contains(t, buf.String(), "(no results)")

	buf.Reset()
	require.NoError(t, w.Err(ErrNotFound("tag", "9")))
	assert.Contains(t, buf.String(), "Error: tag not found: 9")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "JSON": FormatJSON, "styled": FormatStyled, "quiet": FormatQuiet} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFromGateway(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"transport", &wp.Error{Reason: wp.ReasonTransport, Method: "GET", URL: "http://x", Cause: errors.New("refused")}, CodeNetwork, ExitNetwork},
		{"not found", &wp.Error{Reason: wp.ReasonStatus, Method: "GET", URL: "http://x", StatusCode: http.StatusNotFound}, CodeNotFound, ExitNotFound},
		{"server", &wp.Error{Reason: wp.ReasonStatus, Method: "PUT", URL: "http://x", StatusCode: 500}, CodeAPI, ExitAPI},
		{"decode", &wp.Error{Reason: wp.ReasonDecode, Method: "GET", URL: "http://x", Cause: errors.New("eof")}, CodeAPI, ExitAPI},
		{"plain", errors.New("other"), CodeAPI, ExitAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromGateway(tt.err)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.exit, e.ExitCode())
			assert.ErrorIs(t, e, tt.err)
		})
	}
}

func TestAsErrorPassesThrough(t *testing.T) {
	orig := ErrUsage("x")
	assert.Same(t, orig, AsError(orig))
	assert.Equal(t, "x: h", ErrUsageHint("x", "h").Error())
}
