package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tssouza/cnpjgraph/pkg/expand"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// handleGraph serves POST /graph: seed tokens and layer count in the body.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req GraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	s.expandAndRespond(w, r, req.IDs, req.Layers)
}

// handleGraphPath serves GET /graph/{layers}/{token}. The token may itself
// contain ';'-separated seeds; it is everything after the layer segment so
// person ids with embedded '/' never break (those never occur, but name
// fragments with spaces do).
func (s *Server) handleGraphPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/graph/")
	layerStr, token, found := strings.Cut(rest, "/")
	if !found || token == "" {
		s.respondError(w, http.StatusBadRequest, "expected /graph/{layers}/{ids}")
		return
	}
	layers, err := strconv.Atoi(layerStr)
	if err != nil || layers < 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid layer count %q", layerStr))
		return
	}

	s.expandAndRespond(w, r, token, layers)
}

// expandAndRespond resolves the raw seed tokens, runs the traversal, and
// writes the graph document. Invalid seeds downgrade to warnings; a store
// failure is the only fatal outcome.
func (s *Server) expandAndRespond(w http.ResponseWriter, r *http.Request, rawIDs string, layers int) {
	tokens := splitSeedTokens(rawIDs)
	if len(tokens) == 0 {
		s.respondError(w, http.StatusBadRequest, "no seed identifiers given")
		return
	}

	ctx := r.Context()
	seeds, seedErrs := s.resolver.ResolveAll(ctx, tokens)

	var warnings []string
	for _, err := range seedErrs {
		if !errors.Is(err, identity.ErrInvalidIdentifier) {
			s.respondStoreError(w, r, err)
			return
		}
		warnings = append(warnings, err.Error())
		s.metricsRegistry.InvalidSeedsTotal.Inc()
	}

	result, err := s.engine.Expand(ctx, seeds, layers)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	result.Warnings = append(warnings, result.Warnings...)

	doc := expand.BuildDocument(result)
	s.logger.Info("graph request served",
		RequestIDField(ctx),
		logging.Layer(layers),
		logging.Int("nodes", len(doc.Nodes)),
		logging.Int("edges", len(doc.Edges)))
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("graph request failed",
		RequestIDField(r.Context()),
		logging.Error(err))
	if errors.Is(err, store.ErrStoreUnavailable) {
		s.respondError(w, http.StatusServiceUnavailable, "data store unavailable")
		return
	}
	s.respondError(w, http.StatusInternalServerError, "graph expansion failed")
}

// splitSeedTokens splits a ';'-separated token list, dropping empty entries.
func splitSeedTokens(raw string) []string {
	var tokens []string
	for _, tok := range strings.Split(raw, ";") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
