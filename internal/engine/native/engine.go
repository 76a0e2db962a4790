// Package native converts URLs to markdown in-process: a colly fetch, an
// html-to-markdown conversion, a tiktoken count, and a goquery-based content
// signal.
package native

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/fetch"
)

const (
	// SourceNative marks markdown produced by the converter.
	SourceNative = "native"
	// SourceFallback marks raw HTML returned because conversion yielded
	// nothing usable and the request allowed falling back.
	SourceFallback = "fallback"
)

// Config controls fetch behavior for the native backend.
type Config struct {
	UserAgent string
}

// Engine implements fetch.Engine without a remote conversion service.
type Engine struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
	counter       TokenCounter
	logger        *zap.Logger
}

// page is the raw fetch result before conversion.
type page struct {
	resolvedURL string
	statusCode  int
	contentType string
	body        []byte
}

// New builds an Engine. A nil counter gets the tiktoken-backed default.
func New(cfg Config, counter TokenCounter, logger *zap.Logger) *Engine {
	if counter == nil {
		counter = NewTiktokenCounter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	transport := newHTTPTransport()
	c.WithTransport(transport)
	return &Engine{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
		counter:       counter,
		logger:        logger,
	}
}

// Convert fetches the URL and produces a markdown result. The caller's
// timeout is enforced on the fetch; cancellation of ctx abandons the wait.
func (e *Engine) Convert(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	p, err := e.fetchPage(ctx, req)
	if err != nil {
		return fetch.Result{}, err
	}
	if p.statusCode >= 400 {
		return fetch.Result{}, fmt.Errorf("upstream returned status %d", p.statusCode)
	}

	body := string(p.body)
	markdown, source, err := e.toMarkdown(body, p.contentType, req.HTMLFallback)
	if err != nil {
		return fetch.Result{}, err
	}

	return fetch.Result{
		ResolvedURL:    p.resolvedURL,
		StatusCode:     p.statusCode,
		ContentType:    p.contentType,
		Source:         source,
		MarkdownTokens: e.counter.Count(markdown),
		ContentSignal:  signalFor(body, markdown, p.contentType),
		Markdown:       markdown,
	}, nil
}

// toMarkdown picks the conversion path for the content type. html_fallback
// only matters when conversion produces nothing usable: enabled, the raw
// HTML is passed through tagged as fallback; disabled, the fetch fails.
func (e *Engine) toMarkdown(body, contentType string, htmlFallback bool) (string, string, error) {
	if !isHTML(contentType, body) {
		if !isTextual(contentType) {
			return "", "", fmt.Errorf("unsupported content type: %s", contentType)
		}
		return body, SourceNative, nil
	}

	markdown, err := htmltomarkdown.ConvertString(body)
	if err != nil || strings.TrimSpace(markdown) == "" {
		if !htmlFallback {
			if err != nil {
				return "", "", fmt.Errorf("markdown conversion failed: %w", err)
			}
			return "", "", fmt.Errorf("markdown conversion produced no content")
		}
		return body, SourceFallback, nil
	}
	return markdown, SourceNative, nil
}

// fetchPage runs one colly visit, racing it against ctx so an abandoned
// request never blocks the caller.
func (e *Engine) fetchPage(ctx context.Context, req fetch.Request) (page, error) {
	collector := e.baseCollector.Clone()
	if e.cfg.UserAgent != "" {
		collector.UserAgent = e.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(time.Duration(req.TimeoutMs) * time.Millisecond)
	collector.WithTransport(e.transport)

	var (
		result   page
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		result = page{
			resolvedURL: r.Request.URL.String(),
			statusCode:  r.StatusCode,
			contentType: mediaType(r.Headers.Get("Content-Type")),
			body:        append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result = page{
				resolvedURL: r.Request.URL.String(),
				statusCode:  r.StatusCode,
				contentType: mediaType(r.Headers.Get("Content-Type")),
			}
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if result.statusCode >= 400 {
			// Surface the status to the caller rather than colly's wrapper.
			return result, nil
		}
		if err != nil {
			return page{}, fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		if fetchErr != nil {
			return page{}, fmt.Errorf("fetch %s: %w", req.URL, fetchErr)
		}
		return result, nil
	}
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	return mt
}

func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "html") {
		return true
	}
	if contentType != "" {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	return strings.HasPrefix(contentType, "text/") ||
		strings.Contains(contentType, "json") ||
		strings.Contains(contentType, "xml") ||
		strings.Contains(contentType, "markdown")
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
