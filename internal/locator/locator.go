// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package locator resolves a Wikidata item identifier to its Wikipedia
// article metadata via the locator microservice. Lookups are an optional
// enrichment: callers tolerate failure and omit the enriched fields.
package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// ArticleInfo is the locator's answer for one item.
type ArticleInfo struct {
	ArticleTitle string `json:"articleTitle"`
	ItemID       string `json:"articleId"`
}

// Client calls the locator service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a locator client. baseURL is the service root without a
// trailing slash.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup resolves an item id to article metadata for a language.
func (c *Client) Lookup(ctx context.Context, itemID, lang string) (*ArticleInfo, error) {
	u := fmt.Sprintf("%s/locator?id=%s&lang=%s", c.baseURL, url.QueryEscape(itemID), url.QueryEscape(lang))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, wberr.Wrap(err, wberr.CodeLocatorLookupUpstreamFailure, "building locator request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wberr.Wrap(err, wberr.CodeLocatorLookupUpstreamFailure, "calling locator",
			wberr.FieldItemID(itemID), wberr.FieldLang(lang))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, wberr.Errorf(wberr.CodeLocatorLookupUpstreamFailure,
			"locator returned status %d for item %s", resp.StatusCode, itemID)
	}

	var info ArticleInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, wberr.Wrap(err, wberr.CodeLocatorResponseInvalid, "decoding locator response",
			wberr.FieldItemID(itemID))
	}
	return &info, nil
}
