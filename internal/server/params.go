// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package server

import (
	"net/http"
	"strconv"

	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
)

// Defaults applied when a query parameter is absent or unusable.
const (
	defaultClaimsItem    = "Q7259"
	defaultTraversalItem = "Q1"
	defaultTraversalProp = "P793"
	defaultDepth         = 200
	defaultLimit         = 200

	// fallbackDepth is used when depth is present but not a number at all.
	fallbackDepth = 1
)

func queryParam(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

// parseDepth coerces the depth parameter. A non-numeric value degrades to 1;
// a non-positive value degrades to the default.
func parseDepth(raw string) int {
	if raw == "" {
		return defaultDepth
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallbackDepth
	}
	if n <= 0 {
		return defaultDepth
	}
	return n
}

// parseLimit coerces the limit parameter. Non-numeric and non-positive
// values both degrade to the default.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return n
}

// traversalParams extracts and normalizes the /traversal query parameters.
func (s *Server) traversalParams(r *http.Request) sparql.TraversalParams {
	q := r.URL.Query()
	return sparql.TraversalParams{
		ItemID:     queryParam(r, "id", defaultTraversalItem),
		PropertyID: queryParam(r, "prop", defaultTraversalProp),
		Direction:  sparql.ParseDirection(q.Get("direction")),
		Depth:      parseDepth(q.Get("depth")),
		TargetID:   q.Get("target"),
		Limit:      parseLimit(q.Get("limit")),
		Lang:       s.lang(r),
	}
}

// lang resolves the request language, falling back to the configured
// default when the parameter is absent.
func (s *Server) lang(r *http.Request) string {
	return queryParam(r, "lang", s.cfg.DefaultLang)
}
