// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// maxResponseBytes bounds how much of a query response is read. The request
// LIMIT keeps well-formed responses far below this.
const maxResponseBytes = 8 << 20

// Client executes built queries against the remote query service and parses
// the row-oriented JSON result, preserving source order exactly.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a query client for the given SPARQL endpoint. The
// timeout applies per request in addition to any caller context deadline.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Claims runs the direct-claims query and returns its rows in source order.
func (c *Client) Claims(ctx context.Context, itemID, lang string) ([]Binding, error) {
	return c.claimsFamily(ctx, ClaimsQuery(itemID, lang), itemID, lang)
}

// RelatedClaims runs the inverse-claims query and returns its rows in
// source order.
func (c *Client) RelatedClaims(ctx context.Context, itemID, lang string) ([]Binding, error) {
	return c.claimsFamily(ctx, RelatedClaimsQuery(itemID, lang), itemID, lang)
}

func (c *Client) claimsFamily(ctx context.Context, query, itemID, lang string) ([]Binding, error) {
	body, err := c.execute(ctx, query)
	if err != nil {
		return nil, wberr.Wrap(err, queryFailureCode(err), "executing claims query",
			wberr.FieldItemID(itemID), wberr.FieldLang(lang))
	}

	var envelope claimsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, wberr.Wrap(err, wberr.CodeSparqlParseInvalidBody, "decoding claims bindings",
			wberr.FieldItemID(itemID))
	}
	return envelope.Results.Bindings, nil
}

// Traverse runs the traversal query and returns its rows in source order.
func (c *Client) Traverse(ctx context.Context, p TraversalParams) ([]TraversalBinding, error) {
	body, err := c.execute(ctx, TraversalQuery(p))
	if err != nil {
		return nil, wberr.Wrap(err, queryFailureCode(err), "executing traversal query",
			wberr.FieldItemID(p.ItemID), wberr.FieldPropertyID(p.PropertyID))
	}

	var envelope traversalEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, wberr.Wrap(err, wberr.CodeSparqlParseInvalidBody, "decoding traversal bindings",
			wberr.FieldItemID(p.ItemID))
	}
	return envelope.Results.Bindings, nil
}

// queryFailureCode keeps the timeout classification when re-wrapping an
// execute error with request context.
func queryFailureCode(err error) wberr.Code {
	if wberr.IsTimeout(err) {
		return wberr.CodeSparqlQueryTimeout
	}
	return wberr.CodeSparqlQueryUpstreamFailure
}

func (c *Client) execute(ctx context.Context, query string) ([]byte, error) {
	url := c.endpoint + "?format=json&query=" + query
	slog.Debug("executing sparql query", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, wberr.Wrap(err, wberr.CodeSparqlQueryTimeout, "query deadline exceeded")
		}
		return nil, fmt.Errorf("calling query service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("query service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading query response: %w", err)
	}
	return body, nil
}
