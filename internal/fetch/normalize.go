package fetch

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// rawPayload mirrors the POST /api body. url and urls are mutually
// exclusive input shapes.
type rawPayload struct {
	URL          string   `json:"url"`
	URLs         []string `json:"urls"`
	TimeoutMs    *int     `json:"timeout_ms"`
	HTMLFallback *bool    `json:"html_fallback"`
}

// NormalizeQuery builds a single-fetch Request from GET query parameters.
// html_fallback is disabled only by the literal string "false"; any other
// value, including absence, keeps it enabled.
func NormalizeQuery(values url.Values) (Request, error) {
	rawURL := values.Get("url")
	if rawURL == "" {
		return Request{}, NewValidationError("url parameter is required")
	}

	var timeoutMs *int
	if raw := values.Get("timeout"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, NewValidationError("timeout must be an integer")
		}
		timeoutMs = &n
	}

	var fallback *bool
	if values.Get("html_fallback") == "false" {
		f := false
		fallback = &f
	}

	return NewRequest(rawURL, timeoutMs, fallback)
}

// NormalizeBody parses a POST /api JSON body into either a single Request
// or a BatchRequest. Exactly one of the returned requests is non-nil on
// success.
func NormalizeBody(body []byte) (*Request, *BatchRequest, error) {
	var payload rawPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, NewValidationError("invalid JSON body")
	}

	switch {
	case payload.URL != "" && len(payload.URLs) > 0:
		return nil, nil, NewValidationError("url and urls are mutually exclusive")
	case payload.URL != "":
		req, err := NewRequest(payload.URL, payload.TimeoutMs, payload.HTMLFallback)
		if err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	case payload.URLs != nil:
		batch, err := NewBatchRequest(payload.URLs, payload.TimeoutMs, payload.HTMLFallback)
		if err != nil {
			return nil, nil, err
		}
		return nil, &batch, nil
	default:
		return nil, nil, NewValidationError("url or urls is required")
	}
}

// NewRequest validates a single URL plus options. A nil timeout or fallback
// selects the documented default.
func NewRequest(rawURL string, timeoutMs *int, htmlFallback *bool) (Request, error) {
	if err := validateURL(rawURL); err != nil {
		return Request{}, err
	}
	timeout, err := resolveTimeout(timeoutMs)
	if err != nil {
		return Request{}, err
	}
	return Request{
		URL:          rawURL,
		TimeoutMs:    timeout,
		HTMLFallback: resolveFallback(htmlFallback),
	}, nil
}

// NewBatchRequest validates a URL list plus shared options. Size bounds are
// checked before individual URLs so an oversized batch fails fast.
func NewBatchRequest(rawURLs []string, timeoutMs *int, htmlFallback *bool) (BatchRequest, error) {
	if len(rawURLs) == 0 || len(rawURLs) > MaxBatchSize {
		return BatchRequest{}, NewValidationError(
			"batch size must be between 1 and %d, got %d", MaxBatchSize, len(rawURLs))
	}
	for _, u := range rawURLs {
		if err := validateURL(u); err != nil {
			return BatchRequest{}, err
		}
	}
	timeout, err := resolveTimeout(timeoutMs)
	if err != nil {
		return BatchRequest{}, err
	}
	urls := make([]string, len(rawURLs))
	copy(urls, rawURLs)
	return BatchRequest{
		URLs:         urls,
		TimeoutMs:    timeout,
		HTMLFallback: resolveFallback(htmlFallback),
	}, nil
}

// validateURL requires an absolute URL with scheme and host.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewValidationError("Invalid URL: %s", rawURL)
	}
	return nil
}

// resolveTimeout rejects non-positive values but deliberately does not
// clamp to [MinTimeoutMs, MaxTimeoutMs]; only the tool schema carries those
// bounds and the engine owns any clamping beyond that.
func resolveTimeout(timeoutMs *int) (int, error) {
	if timeoutMs == nil {
		return DefaultTimeoutMs, nil
	}
	if *timeoutMs <= 0 {
		return 0, NewValidationError("timeout_ms must be a positive integer")
	}
	return *timeoutMs, nil
}

func resolveFallback(htmlFallback *bool) bool {
	if htmlFallback == nil {
		return true
	}
	return *htmlFallback
}
