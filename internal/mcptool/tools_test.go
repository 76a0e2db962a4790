package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/pagefold/mdgate/internal/fetch"
	"github.com/pagefold/mdgate/internal/orchestrator"
)

type fakeEngine struct {
	mu    sync.Mutex
	calls atomic.Int64
	fails map[string]error
}

func (f *fakeEngine) Convert(_ context.Context, req fetch.Request) (fetch.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fails[req.URL]; ok {
		return fetch.Result{}, err
	}
	return fetch.Result{
		ResolvedURL:    req.URL + "/",
		StatusCode:     200,
		ContentType:    "text/html",
		Source:         "native",
		MarkdownTokens: 42,
		ContentSignal:  "high",
		Markdown:       "# converted",
	}, nil
}

func newHandlers(eng fetch.Engine) *handlers {
	return &handlers{orch: orchestrator.New(eng, nil), logger: nil}
}

func callRequest(t *testing.T, args any) *mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	}
}

func textOf(t *testing.T, c mcp.Content) string {
	t.Helper()
	tc, ok := c.(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestFetchMarkdown_SuccessHasMetadataAndBody(t *testing.T) {
	t.Parallel()

	h := newHandlers(&fakeEngine{})
	res, err := h.fetchMarkdown(context.Background(), callRequest(t, map[string]any{
		"url": "https://example.com",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res.Content[0])), &meta))
	require.Equal(t, "https://example.com", meta["url"])
	require.Equal(t, "https://example.com/", meta["resolvedUrl"])
	require.Equal(t, float64(42), meta["markdownTokens"])
	require.NotContains(t, meta, "markdown")

	require.Equal(t, "# converted", textOf(t, res.Content[1]))
}

func TestFetchMarkdown_FailureIsErrorFlagged(t *testing.T) {
	t.Parallel()

	h := newHandlers(&fakeEngine{fails: map[string]error{
		"https://down.test": errors.New("connection refused"),
	}})
	res, err := h.fetchMarkdown(context.Background(), callRequest(t, map[string]any{
		"url": "https://down.test",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	require.Equal(t, "Error fetching https://down.test: connection refused", textOf(t, res.Content[0]))
}

func TestFetchMarkdown_InvalidURL(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	h := newHandlers(eng)
	res, err := h.fetchMarkdown(context.Background(), callRequest(t, map[string]any{
		"url": "not-a-url",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res.Content[0]), "Invalid URL: not-a-url")
	require.Zero(t, eng.calls.Load(), "engine must not run for invalid input")
}

func TestBatchFetchMarkdown_OneBlockPerURL(t *testing.T) {
	t.Parallel()

	h := newHandlers(&fakeEngine{fails: map[string]error{
		"https://b.test": errors.New("boom"),
	}})
	res, err := h.batchFetchMarkdown(context.Background(), callRequest(t, map[string]any{
		"urls": []string{"https://a.test", "https://b.test"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res.Content[0])), &first))
	require.Equal(t, true, first["success"])
	require.Equal(t, "https://a.test", first["url"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res.Content[1])), &second))
	require.Equal(t, false, second["success"])
	require.Equal(t, "boom", second["error"])
}

func TestBatchFetchMarkdown_SizeValidation(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	h := newHandlers(eng)

	urls := make([]string, fetch.MaxBatchSize+1)
	for i := range urls {
		urls[i] = "https://example.com"
	}
	res, err := h.batchFetchMarkdown(context.Background(), callRequest(t, map[string]any{"urls": urls}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, textOf(t, res.Content[0]), "batch size must be between 1 and 10")
	require.Zero(t, eng.calls.Load())
}

func TestNewServer_RegistersTools(t *testing.T) {
	t.Parallel()

	s := NewServer(orchestrator.New(&fakeEngine{}, nil), "test", nil)
	require.NotNil(t, s)
}
