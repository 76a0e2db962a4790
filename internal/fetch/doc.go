// Package fetch holds the request, outcome, and response-envelope types shared
// by the HTTP API and the MCP tool surface, plus the input normalizer that
// turns query strings, JSON bodies, and tool arguments into validated
// requests before any network activity happens.
package fetch
