// Package mcptool registers the gateway's MCP tools and shapes their
// content-block responses. Rate limiting for tool traffic happens at the
// /mcp and /sse transport paths, before any protocol handling.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/fetch"
	"github.com/pagefold/mdgate/internal/orchestrator"
)

// ToolFetchMarkdown and ToolBatchFetchMarkdown are the registered tool
// names, also listed in the service descriptor.
const (
	ToolFetchMarkdown      = "fetch_markdown"
	ToolBatchFetchMarkdown = "batch_fetch_markdown"
)

type handlers struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

type fetchArgs struct {
	URL          string `json:"url"`
	TimeoutMs    *int   `json:"timeout_ms"`
	HTMLFallback *bool  `json:"html_fallback"`
}

type batchArgs struct {
	URLs         []string `json:"urls"`
	TimeoutMs    *int     `json:"timeout_ms"`
	HTMLFallback *bool    `json:"html_fallback"`
}

// NewServer builds the MCP server with both fetch tools registered.
func NewServer(orch *orchestrator.Orchestrator, version string, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{orch: orch, logger: logger.Named("mcptool")}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "mdgate",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	s.AddTool(&mcp.Tool{
		Name:        ToolFetchMarkdown,
		Description: "Fetch a URL and convert its content to markdown. Returns a JSON metadata block followed by the raw markdown.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"format":      "uri",
					"description": "Absolute URL to fetch",
				},
				"timeout_ms": map[string]any{
					"type":        "integer",
					"minimum":     fetch.MinTimeoutMs,
					"maximum":     fetch.MaxTimeoutMs,
					"description": "Per-fetch timeout in milliseconds",
				},
				"html_fallback": map[string]any{
					"type":        "boolean",
					"description": "Return raw HTML when markdown conversion yields nothing (default true)",
				},
			},
			"required": []string{"url"},
		},
	}, h.fetchMarkdown)

	s.AddTool(&mcp.Tool{
		Name:        ToolBatchFetchMarkdown,
		Description: "Fetch up to 10 URLs concurrently and convert each to markdown. Returns one JSON block per URL, tagged with success.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"urls": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string", "format": "uri"},
					"minItems": 1,
					"maxItems": fetch.MaxBatchSize,
				},
				"timeout_ms": map[string]any{
					"type":    "integer",
					"minimum": fetch.MinTimeoutMs,
					"maximum": fetch.MaxTimeoutMs,
				},
				"html_fallback": map[string]any{
					"type": "boolean",
				},
			},
			"required": []string{"urls"},
		},
	}, h.batchFetchMarkdown)

	return s
}

// StreamableHandler serves the MCP server over streamable HTTP.
func StreamableHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

// SSEHandler serves the MCP server over the legacy SSE transport.
func SSEHandler(s *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

func (h *handlers) fetchMarkdown(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args fetchArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	fetchReq, err := fetch.NewRequest(args.URL, args.TimeoutMs, args.HTMLFallback)
	if err != nil {
		return errorResult("Error fetching %s: %s", args.URL, err.Error()), nil
	}

	outcome := h.orch.RunSingle(ctx, fetchReq)
	if !outcome.OK() {
		return errorResult("Error fetching %s: %s", outcome.URL, outcome.Err.Error()), nil
	}

	meta, err := json.Marshal(fetch.FormatMetadata(outcome))
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(meta)},
			&mcp.TextContent{Text: outcome.Result.Markdown},
		},
	}, nil
}

func (h *handlers) batchFetchMarkdown(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args batchArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	batchReq, err := fetch.NewBatchRequest(args.URLs, args.TimeoutMs, args.HTMLFallback)
	if err != nil {
		return errorResult("%s", err.Error()), nil
	}

	outcomes := h.orch.RunBatch(ctx, batchReq)
	content := make([]mcp.Content, 0, len(outcomes))
	for _, outcome := range outcomes {
		item, err := json.Marshal(fetch.FormatBatchItem(outcome))
		if err != nil {
			return nil, fmt.Errorf("encode batch item: %w", err)
		}
		content = append(content, &mcp.TextContent{Text: string(item)})
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
