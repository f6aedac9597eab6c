// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/douglasArantes/wikibrowser-service/internal/claims"
	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
)

// ClaimsService is the exploration behavior backing the HTTP endpoints.
type ClaimsService interface {
	Claims(ctx context.Context, itemID, lang string) (*claims.ClaimsResult, error)
	RelatedClaims(ctx context.Context, itemID, lang string) (*claims.ClaimsResult, error)
	Traverse(ctx context.Context, p sparql.TraversalParams) (*claims.TraversalResult, error)
}

// Fixed failure messages returned to callers when a query family fails.
const (
	msgClaimsFailed    = "Wikidata query unsuccessful"
	msgRelatedFailed   = "Wikidata related query unsuccessful"
	msgTraversalFailed = "Wikidata traversal query unsuccessful"
)

func (s *Server) registerClaimsRoutes() {
	s.router.Get("/claims", s.handleClaims)
	s.router.Get("/claimsxml", s.handleClaimsXML)
	s.router.Get("/relatedclaims", s.handleRelatedClaims)
	s.router.Get("/traversal", s.handleTraversal)

	// The exploration endpoints need raw http.ResponseWriter access to honor
	// the plain-text failure contract and the XML variant, so they cannot use
	// Huma's standard handler signature. The chi routes above serve requests;
	// the operations below document them in the OpenAPI spec.
	s.addClaimsOperation("claims", "/claims", "Direct claims for an item",
		"Returns the claims where the item is the subject, grouped by property, as JSON.", "application/json")
	s.addClaimsOperation("claimsxml", "/claimsxml", "Direct claims for an item as XML",
		"Returns the claims where the item is the subject, grouped by property, as XML.", "application/xml")
	s.addClaimsOperation("relatedclaims", "/relatedclaims", "Claims referencing an item",
		"Returns the claims where the item is the value, grouped by property, as JSON.", "application/json")
	s.addTraversalOperation()
}

func (s *Server) addClaimsOperation(id, path, summary, description, contentType string) {
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: id,
		Method:      http.MethodGet,
		Path:        path,
		Summary:     summary,
		Description: description,
		Tags:        []string{"claims"},
		Parameters: []*huma.Param{
			{Name: "id", In: "query", Description: "Wikidata item id (default " + defaultClaimsItem + ")"},
			{Name: "lang", In: "query", Description: "Language code (default from configuration)"},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Claims grouped by property",
				Content: map[string]*huma.MediaType{
					contentType: {Schema: &huma.Schema{Type: "object"}},
				},
			},
			"500": {Description: "Query execution failed (plain text message)"},
		},
	})
}

func (s *Server) addTraversalOperation() {
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "traversal",
		Method:      http.MethodGet,
		Path:        "/traversal",
		Summary:     "Traverse the graph along a property",
		Description: "Single-source traversal from an origin item along one property, optionally toward a target for shortest-path discovery.",
		Tags:        []string{"claims"},
		Parameters: []*huma.Param{
			{Name: "id", In: "query", Description: "Origin item id (default " + defaultTraversalItem + ")"},
			{Name: "prop", In: "query", Description: "Property id to follow (default " + defaultTraversalProp + ")"},
			{Name: "direction", In: "query", Description: "f, r or u (default f)"},
			{Name: "depth", In: "query", Description: "Maximum iterations (default 200)"},
			{Name: "target", In: "query", Description: "Optional target item id"},
			{Name: "limit", In: "query", Description: "Maximum result rows (default 200)"},
			{Name: "lang", In: "query", Description: "Language code (default from configuration)"},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Items discovered in arrival order",
				Content: map[string]*huma.MediaType{
					"application/json": {Schema: &huma.Schema{Type: "object"}},
				},
			},
			"500": {Description: "Query execution failed (plain text message)"},
		},
	})
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runClaims(w, r, "claims", msgClaimsFailed, false)
	if !ok {
		return
	}
	s.writeJSON(w, "claims", result)
}

func (s *Server) handleClaimsXML(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runClaims(w, r, "claimsxml", msgClaimsFailed, false)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		slog.Warn("writing response", "endpoint", "claimsxml", "error", err)
		return
	}
	if err := xml.NewEncoder(w).Encode(result); err != nil {
		slog.Warn("encoding response", "endpoint", "claimsxml", "error", err)
		return
	}
	s.countRequest("claimsxml", "ok")
	s.tracker.RecordSuccess(upstreamSparql)
}

func (s *Server) handleRelatedClaims(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runClaims(w, r, "relatedclaims", msgRelatedFailed, true)
	if !ok {
		return
	}
	s.writeJSON(w, "relatedclaims", result)
}

func (s *Server) handleTraversal(w http.ResponseWriter, r *http.Request) {
	if s.explorer == nil {
		s.serviceUnavailable(w, "traversal")
		return
	}

	params := s.traversalParams(r)
	result, err := s.explorer.Traverse(r.Context(), params)
	if err != nil {
		s.fail(w, r, "traversal", msgTraversalFailed, err)
		return
	}
	s.writeJSON(w, "traversal", result)
}

// runClaims executes the shared request flow of the three claims variants:
// parameter normalization, service dispatch, and the failure contract.
func (s *Server) runClaims(w http.ResponseWriter, r *http.Request, endpoint, failureMsg string, related bool) (*claims.ClaimsResult, bool) {
	if s.explorer == nil {
		s.serviceUnavailable(w, endpoint)
		return nil, false
	}

	itemID := queryParam(r, "id", defaultClaimsItem)
	lang := s.lang(r)

	var (
		result *claims.ClaimsResult
		err    error
	)
	if related {
		result, err = s.explorer.RelatedClaims(r.Context(), itemID, lang)
	} else {
		result, err = s.explorer.Claims(r.Context(), itemID, lang)
	}
	if err != nil {
		s.fail(w, r, endpoint, failureMsg, err)
		return nil, false
	}
	return result, true
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("encoding response", "endpoint", endpoint, "error", err)
		return
	}
	s.countRequest(endpoint, "ok")
	s.tracker.RecordSuccess(upstreamSparql)
}

const upstreamSparql = "sparql"

// fail applies the failure contract: a fixed plain-text message with
// status 500, never the underlying error detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, endpoint, msg string, err error) {
	slog.Error("query failed",
		"endpoint", endpoint,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err)
	s.countRequest(endpoint, "error")
	s.tracker.RecordFailure(upstreamSparql)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (s *Server) serviceUnavailable(w http.ResponseWriter, endpoint string) {
	s.countRequest(endpoint, "error")
	http.Error(w, "service not ready", http.StatusServiceUnavailable)
}

func (s *Server) countRequest(endpoint, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}
