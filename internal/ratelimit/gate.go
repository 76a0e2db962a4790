package ratelimit

import (
	"time"

	"go.uber.org/zap"
)

// Scope is an independently budgeted rate-limit partition. Exhausting one
// scope's budget never affects another scope for the same identity.
type Scope string

const (
	// ScopeTransport gates the MCP transport paths (/mcp, /sse).
	ScopeTransport Scope = "transport"
	// ScopeAPI gates every /api call.
	ScopeAPI Scope = "api"
	// ScopeAPIBatch additionally gates batch POST bodies once the batch
	// shape is detected. Batch calls burn both budgets.
	ScopeAPIBatch Scope = "api-batch"
)

// WindowSeconds is the fixed window advertised to callers via Retry-After.
// It is a hint, not a promise tied to the limiter's internal clock.
const WindowSeconds = 60

// Decision is the result of a gate check.
type Decision struct {
	Allowed           bool
	Scope             Scope
	RetryAfterSeconds int
}

// Config holds per-scope budgets for one fixed window.
type Config struct {
	Enabled            bool
	TransportPerWindow int
	APIPerWindow       int
	BatchPerWindow     int
}

// Gate composes scope and identity into limiter keys and delegates to the
// limiter primitive.
type Gate struct {
	limiter Limiter
	cfg     Config
	logger  *zap.Logger
}

// NewGate builds a Gate. A nil limiter gets the default keyed limiter over
// the fixed window.
func NewGate(limiter Limiter, cfg Config, logger *zap.Logger) *Gate {
	if limiter == nil {
		limiter = NewKeyedLimiter(WindowSeconds * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{limiter: limiter, cfg: cfg, logger: logger}
}

// Check consumes one slot of the scope's budget for the identity. On deny
// the caller must stop immediately and surface the rate-limit error; no
// partial work happens after a deny.
func (g *Gate) Check(scope Scope, identity string) Decision {
	if !g.cfg.Enabled {
		return Decision{Allowed: true, Scope: scope, RetryAfterSeconds: WindowSeconds}
	}
	key := string(scope) + ":" + identity
	if g.limiter.Allow(key, g.budget(scope)) {
		return Decision{Allowed: true, Scope: scope, RetryAfterSeconds: WindowSeconds}
	}
	g.logger.Debug("rate limit exceeded",
		zap.String("scope", string(scope)),
		zap.String("identity", identity),
	)
	return Decision{Allowed: false, Scope: scope, RetryAfterSeconds: WindowSeconds}
}

func (g *Gate) budget(scope Scope) int {
	switch scope {
	case ScopeTransport:
		return g.cfg.TransportPerWindow
	case ScopeAPIBatch:
		return g.cfg.BatchPerWindow
	default:
		return g.cfg.APIPerWindow
	}
}
