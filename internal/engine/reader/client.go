// Package reader implements fetch.Engine as a client for a remote reader
// service that performs the actual conversion.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/fetch"
)

// Config controls the reader client.
type Config struct {
	// Endpoint receives conversion requests as JSON POSTs.
	Endpoint string
	// UserAgent is sent with every request when set.
	UserAgent string
}

// Client calls the remote reader service.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// conversionRequest is the wire request to the reader service.
type conversionRequest struct {
	URL          string `json:"url"`
	TimeoutMs    int    `json:"timeout_ms"`
	HTMLFallback bool   `json:"html_fallback"`
}

// conversionResponse is the wire result from the reader service.
type conversionResponse struct {
	ResolvedURL    string `json:"resolvedUrl"`
	Status         int    `json:"status"`
	ContentType    string `json:"contentType"`
	Source         string `json:"source"`
	MarkdownTokens int    `json:"markdownTokens"`
	ContentSignal  string `json:"contentSignal"`
	Markdown       string `json:"markdown"`
	Error          string `json:"error"`
}

// New builds a Client with a pooled transport.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		logger: logger,
	}
}

// Convert forwards the request to the reader service. The per-request
// timeout covers the whole round trip since the service enforces the same
// budget on its own fetch.
func (c *Client) Convert(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	payload, err := json.Marshal(conversionRequest{
		URL:          req.URL,
		TimeoutMs:    req.TimeoutMs,
		HTMLFallback: req.HTMLFallback,
	})
	if err != nil {
		return fetch.Result{}, fmt.Errorf("encode conversion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fetch.Result{}, fmt.Errorf("build conversion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("reader service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fetch.Result{}, fmt.Errorf("read reader response: %w", err)
	}

	var decoded conversionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fetch.Result{}, fmt.Errorf("decode reader response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || decoded.Error != "" {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("reader service returned status %d", resp.StatusCode)
		}
		return fetch.Result{}, fmt.Errorf("%s", msg)
	}

	return fetch.Result{
		ResolvedURL:    decoded.ResolvedURL,
		StatusCode:     decoded.Status,
		ContentType:    decoded.ContentType,
		Source:         decoded.Source,
		MarkdownTokens: decoded.MarkdownTokens,
		ContentSignal:  decoded.ContentSignal,
		Markdown:       decoded.Markdown,
	}, nil
}
