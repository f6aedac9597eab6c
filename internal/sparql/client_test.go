// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package sparql_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const claimsFixture = `{
  "head": {"vars": ["propUrl", "propLabel", "valUrl", "valLabel", "picture"]},
  "results": {"bindings": [
    {
      "propUrl": {"type": "literal", "value": "N/A"},
      "propLabel": {"type": "literal", "value": "identity"},
      "valUrl": {"type": "uri", "value": "http://www.wikidata.org/entity/Q42"},
      "valLabel": {"type": "literal", "value": "Douglas Adams"}
    },
    {
      "propUrl": {"type": "uri", "value": "http://www.wikidata.org/prop/direct/P31"},
      "propLabel": {"type": "literal", "value": "instance of"},
      "valUrl": {"type": "uri", "value": "http://www.wikidata.org/entity/Q5"},
      "valLabel": {"type": "literal", "value": "human"},
      "picture": {"type": "uri", "value": "http://commons.wikimedia.org/wiki/Special:FilePath/Douglas%20adams%20portrait.jpg"}
    }
  ]}
}`

const traversalFixture = `{
  "head": {"vars": ["item", "itemLabel", "picture"]},
  "results": {"bindings": [
    {
      "item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q1"},
      "itemLabel": {"type": "literal", "value": "universe"}
    },
    {
      "item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q323"},
      "itemLabel": {"type": "literal", "value": "big bang"},
      "picture": {"type": "uri", "value": "http://commons.wikimedia.org/wiki/Special:FilePath/Universe.png"}
    }
  ]}
}`

func TestClaimsParsesRowsInOrder(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(claimsFixture))
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	rows, err := client.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Contains(t, gotQuery, "format=json")
	assert.Equal(t, "identity", rows[0].PropLabel.Value)
	assert.Nil(t, rows[0].Picture)
	assert.Equal(t, "http://www.wikidata.org/entity/Q5", rows[1].ValURL.Value)
	require.NotNil(t, rows[1].Picture)
	assert.Contains(t, rows[1].Picture.Value, "Special:FilePath")
}

func TestTraverseParsesRows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(traversalFixture))
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	rows, err := client.Traverse(context.Background(), sparql.TraversalParams{
		ItemID: "Q1", PropertyID: "P793", Direction: sparql.Forward,
		Depth: 3, Limit: 200, Lang: "en",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "universe", rows[0].ItemLabel.Value)
	require.NotNil(t, rows[1].Picture)
}

func TestClaimsUpstreamStatusIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "java.util.concurrent.TimeoutException", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	rows, err := client.Claims(context.Background(), "Q42", "en")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, wberr.CodeSparqlQueryUpstreamFailure, wberr.CodeOf(err))
}

func TestClaimsUnreachableEndpointIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	ts.Close() // deliberately closed before use

	client := sparql.NewClient(ts.URL, time.Second)
	_, err := client.Claims(context.Background(), "Q42", "en")
	require.Error(t, err)
	assert.Equal(t, wberr.CodeSparqlQueryUpstreamFailure, wberr.CodeOf(err))
}

func TestClaimsMalformedBodyIsParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	rows, err := client.Claims(context.Background(), "Q42", "en")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, wberr.CodeSparqlParseInvalidBody, wberr.CodeOf(err))
}

func TestTraverseMalformedBodyIsParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"bindings": "nope"}}`))
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	_, err := client.Traverse(context.Background(), sparql.TraversalParams{
		ItemID: "Q1", PropertyID: "P793", Direction: sparql.Forward, Depth: 1, Limit: 10, Lang: "en",
	})
	require.Error(t, err)
	assert.Equal(t, wberr.CodeSparqlParseInvalidBody, wberr.CodeOf(err))
}

func TestEmptyResultSetIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"head": {"vars": []}, "results": {"bindings": []}}`))
	}))
	defer ts.Close()

	client := sparql.NewClient(ts.URL, time.Second)
	rows, err := client.Claims(context.Background(), "Q999999999", "en")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
