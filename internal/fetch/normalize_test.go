package fetch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery_Defaults(t *testing.T) {
	t.Parallel()

	req, err := NormalizeQuery(url.Values{"url": {"https://example.com"}})
	require.NoError(t, err)
	require.Equal(t, "https://example.com", req.URL)
	require.Equal(t, DefaultTimeoutMs, req.TimeoutMs)
	require.True(t, req.HTMLFallback)
}

func TestNormalizeQuery_MissingURL(t *testing.T) {
	t.Parallel()

	_, err := NormalizeQuery(url.Values{})
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "url parameter is required")
}

func TestNormalizeQuery_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NormalizeQuery(url.Values{"url": {"not-a-url"}})
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Equal(t, "Invalid URL: not-a-url", err.Error())
}

func TestNormalizeQuery_HTMLFallbackExactStringMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		value    string
		fallback bool
	}{
		{name: "absent keeps fallback", value: "", fallback: true},
		{name: "literal false disables", value: "false", fallback: false},
		{name: "uppercase False keeps fallback", value: "False", fallback: true},
		{name: "zero keeps fallback", value: "0", fallback: true},
		{name: "no keeps fallback", value: "no", fallback: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			values := url.Values{"url": {"https://example.com"}}
			if tc.value != "" {
				values.Set("html_fallback", tc.value)
			}
			req, err := NormalizeQuery(values)
			require.NoError(t, err)
			require.Equal(t, tc.fallback, req.HTMLFallback)
		})
	}
}

func TestNormalizeQuery_Timeout(t *testing.T) {
	t.Parallel()

	req, err := NormalizeQuery(url.Values{
		"url":     {"https://example.com"},
		"timeout": {"5000"},
	})
	require.NoError(t, err)
	require.Equal(t, 5000, req.TimeoutMs)

	// The HTTP path forwards out-of-range values as-is; only positivity is
	// enforced here.
	req, err = NormalizeQuery(url.Values{
		"url":     {"https://example.com"},
		"timeout": {"500000"},
	})
	require.NoError(t, err)
	require.Equal(t, 500000, req.TimeoutMs)

	_, err = NormalizeQuery(url.Values{
		"url":     {"https://example.com"},
		"timeout": {"abc"},
	})
	require.True(t, IsValidation(err))

	_, err = NormalizeQuery(url.Values{
		"url":     {"https://example.com"},
		"timeout": {"-1"},
	})
	require.True(t, IsValidation(err))
}

func TestNormalizeBody_Single(t *testing.T) {
	t.Parallel()

	single, batch, err := NormalizeBody([]byte(`{"url":"https://example.com","timeout_ms":2000,"html_fallback":false}`))
	require.NoError(t, err)
	require.Nil(t, batch)
	require.NotNil(t, single)
	require.Equal(t, "https://example.com", single.URL)
	require.Equal(t, 2000, single.TimeoutMs)
	require.False(t, single.HTMLFallback)
}

func TestNormalizeBody_Batch(t *testing.T) {
	t.Parallel()

	single, batch, err := NormalizeBody([]byte(`{"urls":["https://a.test","https://b.test"]}`))
	require.NoError(t, err)
	require.Nil(t, single)
	require.NotNil(t, batch)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, batch.URLs)
	require.Equal(t, DefaultTimeoutMs, batch.TimeoutMs)
	require.True(t, batch.HTMLFallback)
}

func TestNormalizeBody_MutuallyExclusive(t *testing.T) {
	t.Parallel()

	_, _, err := NormalizeBody([]byte(`{"url":"https://a.test","urls":["https://b.test"]}`))
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestNormalizeBody_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, _, err := NormalizeBody([]byte(`{`))
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "invalid JSON body")
}

func TestNormalizeBody_MissingShape(t *testing.T) {
	t.Parallel()

	_, _, err := NormalizeBody([]byte(`{}`))
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "url or urls is required")
}

func TestNewBatchRequest_SizeBounds(t *testing.T) {
	t.Parallel()

	_, err := NewBatchRequest(nil, nil, nil)
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "batch size must be between 1 and 10")

	urls := make([]string, MaxBatchSize+1)
	for i := range urls {
		urls[i] = "https://example.com"
	}
	_, err = NewBatchRequest(urls, nil, nil)
	require.True(t, IsValidation(err))

	batch, err := NewBatchRequest(urls[:MaxBatchSize], nil, nil)
	require.NoError(t, err)
	require.Len(t, batch.URLs, MaxBatchSize)
}

func TestNewBatchRequest_NamesOffendingURL(t *testing.T) {
	t.Parallel()

	_, err := NewBatchRequest([]string{"https://a.test", "not-a-url"}, nil, nil)
	require.True(t, IsValidation(err))
	require.Equal(t, "Invalid URL: not-a-url", err.Error())
}
