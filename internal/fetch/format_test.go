package fetch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleResult() Result {
	return Result{
		ResolvedURL:    "https://example.com/",
		StatusCode:     200,
		ContentType:    "text/html",
		Source:         "native",
		MarkdownTokens: 120,
		ContentSignal:  "high",
		Markdown:       "# Example",
	}
}

func TestFormatSingle_FieldNames(t *testing.T) {
	t.Parallel()

	resp := FormatSingle(Success("https://example.com", sampleResult()))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "https://example.com", decoded["url"])
	require.Equal(t, "https://example.com/", decoded["resolvedUrl"])
	require.Equal(t, float64(200), decoded["status"])
	require.Equal(t, "text/html", decoded["contentType"])
	require.Equal(t, "native", decoded["source"])
	require.Equal(t, float64(120), decoded["markdownTokens"])
	require.Equal(t, "high", decoded["contentSignal"])
	require.Equal(t, "# Example", decoded["markdown"])
}

func TestFormatMetadata_OmitsMarkdown(t *testing.T) {
	t.Parallel()

	meta := FormatMetadata(Success("https://example.com", sampleResult()))
	raw, err := json.Marshal(meta)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotContains(t, decoded, "markdown")
	require.Equal(t, "https://example.com", decoded["url"])
}

func TestFormatBatch_TaggedItems(t *testing.T) {
	t.Parallel()

	outcomes := []Outcome{
		Success("https://a.test", sampleResult()),
		Failure("https://b.test", errors.New("connection refused")),
	}
	resp := FormatBatch(outcomes)
	require.Len(t, resp.Results, 2)

	ok := resp.Results[0]
	require.True(t, ok.Success)
	require.Equal(t, "https://a.test", ok.URL)
	require.Equal(t, "# Example", ok.Markdown)
	require.Empty(t, ok.Error)

	failed := resp.Results[1]
	require.False(t, failed.Success)
	require.Equal(t, "https://b.test", failed.URL)
	require.Equal(t, "connection refused", failed.Error)

	// A failed item exposes only url, success, and error.
	raw, err := json.Marshal(failed)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 3)
}
