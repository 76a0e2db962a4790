// Package identity derives the caller fingerprint used as the rate-limit
// partition key. Derivation is deterministic over request metadata and never
// fails; it falls through to the "anonymous" sentinel.
package identity

import (
	"net"
	"net/http"
	"unicode/utf8"

	"github.com/pagefold/mdgate/internal/fetch"
)

// Anonymous is the sentinel identity for requests carrying no usable
// metadata.
const Anonymous = "anonymous"

// FromRequest resolves the caller identity. Precedence is fixed: explicit
// API key header, then auth credential, then network address, then
// user-agent, then Anonymous.
func FromRequest(r *http.Request) string {
	if key := r.Header.Get("X-Api-Key"); key != "" {
		return truncate(key)
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return truncate(auth)
	}
	if host := remoteHost(r); host != "" {
		return truncate("ip:" + host)
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		return truncate("ua:" + ua)
	}
	return Anonymous
}

func remoteHost(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. from a test harness.
		return r.RemoteAddr
	}
	return host
}

// truncate bounds identity values so composed limiter keys cannot grow
// without limit. The cut backs off to a rune boundary so a multi-byte
// sequence in a key or user-agent never yields an invalid-UTF-8 key.
func truncate(s string) string {
	if len(s) <= fetch.MaxIdentityLen {
		return s
	}
	cut := fetch.MaxIdentityLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
