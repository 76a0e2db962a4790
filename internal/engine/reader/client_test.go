package reader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagefold/mdgate/internal/fetch"
)

func TestConvert_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://example.com", req["url"])
		require.Equal(t, float64(30000), req["timeout_ms"])
		require.Equal(t, true, req["html_fallback"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"resolvedUrl":    "https://example.com/",
			"status":         200,
			"contentType":    "text/html",
			"source":         "native",
			"markdownTokens": 120,
			"contentSignal":  "high",
			"markdown":       "# Example",
		})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, UserAgent: "mdgate/0.1"}, nil)
	res, err := c.Convert(context.Background(), fetch.Request{
		URL:          "https://example.com",
		TimeoutMs:    fetch.DefaultTimeoutMs,
		HTMLFallback: true,
	})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/", res.ResolvedURL)
	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, 120, res.MarkdownTokens)
	require.Equal(t, "# Example", res.Markdown)
}

func TestConvert_ServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "fetch timed out"})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL}, nil)
	_, err := c.Convert(context.Background(), fetch.Request{
		URL:       "https://slow.test",
		TimeoutMs: fetch.DefaultTimeoutMs,
	})
	require.EqualError(t, err, "fetch timed out")
}

func TestConvert_Unreachable(t *testing.T) {
	t.Parallel()

	c := New(Config{Endpoint: "http://127.0.0.1:1"}, nil)
	_, err := c.Convert(context.Background(), fetch.Request{
		URL:       "https://example.com",
		TimeoutMs: 1000,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "reader service")
}
