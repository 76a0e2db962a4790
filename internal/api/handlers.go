package api

import (
	"io"
	"net/http"

	"github.com/pagefold/mdgate/internal/fetch"
	"github.com/pagefold/mdgate/internal/ratelimit"
)

// handleOptions answers CORS preflight. Preflights carry no fetch work and
// are not counted against the api budget; the actual GET/POST that follows
// one is still gated.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleGet serves GET /api?url=&timeout=&html_fallback=.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, ratelimit.ScopeAPI) {
		return
	}

	req, err := fetch.NormalizeQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSingle(w, r, req)
}

// handlePost serves POST /api with either {url} or {urls}. The api scope is
// checked before the body is parsed; the batch scope only once the batch
// shape is detected.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, ratelimit.ScopeAPI) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	single, batch, err := fetch.NormalizeBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if batch != nil {
		if !s.allow(w, r, ratelimit.ScopeAPIBatch) {
			return
		}
		outcomes := s.orch.RunBatch(r.Context(), *batch)
		// Batch responses are always 200; failures ride in per-item flags.
		writeJSON(w, http.StatusOK, fetch.FormatBatch(outcomes))
		return
	}

	s.respondSingle(w, r, *single)
}

func (s *Server) respondSingle(w http.ResponseWriter, r *http.Request, req fetch.Request) {
	outcome := s.orch.RunSingle(r.Context(), req)
	if !outcome.OK() {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": outcome.Err.Error(),
			"url":   outcome.URL,
		})
		return
	}
	writeJSON(w, http.StatusOK, fetch.FormatSingle(outcome))
}
