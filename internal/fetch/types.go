package fetch

import "context"

const (
	// DefaultTimeoutMs applies when a request does not carry its own timeout.
	DefaultTimeoutMs = 30000
	// MinTimeoutMs and MaxTimeoutMs are the bounds advertised by the tool
	// schema. The raw HTTP API intentionally does not enforce them; any
	// positive value is forwarded to the engine as-is.
	MinTimeoutMs = 1000
	MaxTimeoutMs = 120000
	// MaxBatchSize caps the number of URLs per batch request.
	MaxBatchSize = 10
	// MaxIdentityLen bounds the caller identity used in limiter keys.
	MaxIdentityLen = 128
)

// Request captures everything needed to convert a single URL.
type Request struct {
	URL          string
	TimeoutMs    int
	HTMLFallback bool
}

// BatchRequest is an ordered set of URLs sharing one option set. Result
// order must match URL order.
type BatchRequest struct {
	URLs         []string
	TimeoutMs    int
	HTMLFallback bool
}

// Result is what the conversion engine produces for one URL.
type Result struct {
	ResolvedURL    string
	StatusCode     int
	ContentType    string
	Source         string
	MarkdownTokens int
	ContentSignal  string
	Markdown       string
}

// Outcome is the per-URL result of a fetch attempt. Exactly one of Result
// or Err is set. URL always carries the originally requested URL so callers
// can correlate batch entries regardless of redirects.
type Outcome struct {
	URL    string
	Result *Result
	Err    error
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// Success builds a successful outcome for the requested URL.
func Success(url string, res Result) Outcome {
	return Outcome{URL: url, Result: &res}
}

// Failure builds a failed outcome for the requested URL.
func Failure(url string, err error) Outcome {
	return Outcome{URL: url, Err: err}
}

// Engine converts one URL to markdown. Implementations own timeout
// enforcement using Request.TimeoutMs and must respect ctx cancellation.
type Engine interface {
	Convert(ctx context.Context, req Request) (Result, error)
}
