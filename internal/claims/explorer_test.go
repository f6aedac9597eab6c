// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package claims_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/douglasArantes/wikibrowser-service/internal/claims"
	"github.com/douglasArantes/wikibrowser-service/internal/locator"
	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
	"github.com/douglasArantes/wikibrowser-service/internal/thumbnail"
	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeQueries struct {
	claims    []sparql.Binding
	related   []sparql.Binding
	traversal []sparql.TraversalBinding
	err       error
}

func (f *fakeQueries) Claims(context.Context, string, string) ([]sparql.Binding, error) {
	return f.claims, f.err
}

func (f *fakeQueries) RelatedClaims(context.Context, string, string) ([]sparql.Binding, error) {
	return f.related, f.err
}

func (f *fakeQueries) Traverse(context.Context, sparql.TraversalParams) ([]sparql.TraversalBinding, error) {
	return f.traversal, f.err
}

type fakeLocator struct {
	info *locator.ArticleInfo
	err  error
}

func (f *fakeLocator) Lookup(context.Context, string, string) (*locator.ArticleInfo, error) {
	return f.info, f.err
}

// recordingMirror captures upserts for assertions.
type recordingMirror struct {
	mu    sync.Mutex
	items map[string]string
	edges []string
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{items: map[string]string{}}
}

func (m *recordingMirror) AddItem(_ context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = label
	return nil
}

func (m *recordingMirror) AddRelationship(_ context.Context, from, to, prop, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, fmt.Sprintf("%s-[%s]->%s", from, prop, to))
	return nil
}

func (m *recordingMirror) Close() error { return nil }

type failingMirror struct{}

func (failingMirror) AddItem(context.Context, string, string) error {
	return wberr.New(wberr.CodeMirrorUpsertFailure, "mirror down")
}

func (failingMirror) AddRelationship(context.Context, string, string, string, string) error {
	return wberr.New(wberr.CodeMirrorUpsertFailure, "mirror down")
}

func (failingMirror) Close() error { return nil }

// hangingMirror blocks every upsert until its context expires.
type hangingMirror struct{}

func (hangingMirror) AddItem(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingMirror) AddRelationship(ctx context.Context, _, _, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingMirror) Close() error { return nil }

// ---------------------------------------------------------------------------
// binding fixtures
// ---------------------------------------------------------------------------

func entityURL(id string) string { return "http://www.wikidata.org/entity/" + id }
func propURL(id string) string   { return "http://www.wikidata.org/prop/direct/" + id }

func binding(propID, propLabel, valID, valLabel, picture string) sparql.Binding {
	b := sparql.Binding{
		PropURL:   sparql.Value{Type: "uri", Value: propURL(propID)},
		PropLabel: sparql.Value{Type: "literal", Value: propLabel},
		ValURL:    sparql.Value{Type: "uri", Value: entityURL(valID)},
		ValLabel:  sparql.Value{Type: "literal", Value: valLabel},
	}
	if picture != "" {
		b.Picture = &sparql.Value{Type: "uri", Value: picture}
	}
	return b
}

func identityBinding(itemID, label string) sparql.Binding {
	return sparql.Binding{
		PropURL:   sparql.Value{Type: "literal", Value: "N/A"},
		PropLabel: sparql.Value{Type: "literal", Value: "identity"},
		ValURL:    sparql.Value{Type: "uri", Value: entityURL(itemID)},
		ValLabel:  sparql.Value{Type: "literal", Value: label},
	}
}

// ---------------------------------------------------------------------------
// grouping
// ---------------------------------------------------------------------------

func TestClaimsGroupsContiguousPropertiesAndCollapsesAdjacentDuplicates(t *testing.T) {
	queries := &fakeQueries{claims: []sparql.Binding{
		binding("P1", "author", "Q10", "Alpha", ""),
		binding("P1", "author", "Q11", "Beta", "http://commons.wikimedia.org/wiki/Special:FilePath/Beta.png"),
		binding("P1", "author", "Q11", "Beta", "http://commons.wikimedia.org/wiki/Special:FilePath/Beta2.png"),
		binding("P2", "genre", "Q20", "Gamma", ""),
	}}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 2)

	p1 := result.Claims[0]
	assert.Equal(t, "P1", p1.Prop.ID)
	assert.Equal(t, "author", p1.Prop.Label)
	require.Len(t, p1.Items, 2, "adjacent duplicate value must collapse")
	assert.Equal(t, "Q10", p1.Items[0].ID)
	assert.Equal(t, "Q11", p1.Items[1].ID)

	p2 := result.Claims[1]
	assert.Equal(t, "P2", p2.Prop.ID)
	require.Len(t, p2.Items, 1)
	assert.Equal(t, "Q20", p2.Items[0].ID)
}

func TestClaimsCapsValuesPerProperty(t *testing.T) {
	var rows []sparql.Binding
	for i := 0; i < 30; i++ {
		rows = append(rows, binding("P1", "cast member", fmt.Sprintf("Q%d", 100+i), fmt.Sprintf("actor %d", i), ""))
	}
	queries := &fakeQueries{claims: rows}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 1)
	require.Len(t, result.Claims[0].Items, claims.MaxValuesPerProperty)

	// The first 25 encountered survive.
	assert.Equal(t, "Q100", result.Claims[0].Items[0].ID)
	assert.Equal(t, "Q124", result.Claims[0].Items[24].ID)
}

func TestCappedRowsStillPopulateThumbnailCache(t *testing.T) {
	var rows []sparql.Binding
	for i := 0; i < 30; i++ {
		rows = append(rows, binding("P1", "cast member",
			fmt.Sprintf("Q%d", 100+i), fmt.Sprintf("actor %d", i),
			fmt.Sprintf("http://commons.wikimedia.org/wiki/Special:FilePath/a%d.png", i)))
	}
	cache := thumbnail.NewCache()
	explorer := claims.NewExplorer(&fakeQueries{claims: rows}, nil, cache, nil, nil)

	_, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)

	// Row 29 was dropped by the cap but its thumbnail is cached anyway.
	url, ok := cache.Get("Q129", "en")
	require.True(t, ok)
	assert.Equal(t, "https://commons.wikimedia.org/wiki/Special:Redirect/file/a29.png?width=100px", url)
}

func TestEmptyBindingsYieldEmptyClaims(t *testing.T) {
	explorer := claims.NewExplorer(&fakeQueries{}, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	assert.NotNil(t, result.Claims)
	assert.Empty(t, result.Claims)
	assert.Equal(t, "Q42", result.WdItem)
	assert.Equal(t, "en", result.Lang)
}

func TestClaimsHeaderBaseURLs(t *testing.T) {
	explorer := claims.NewExplorer(&fakeQueries{}, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "pt")
	require.NoError(t, err)
	assert.Equal(t, claims.WikidataItemBase, result.WdItemBase)
	assert.Equal(t, claims.WikidataPropBase, result.WdPropBase)
	assert.Equal(t, "https://pt.wikipedia.org/wiki/", result.WpBase)
	assert.Equal(t, "https://pt.m.wikipedia.org/wiki/", result.WpMobileBase)
}

func TestFirstRowOfNewPropertyNeverTreatedAsDuplicate(t *testing.T) {
	// Same value id appears as last row of P1 and first row of P2.
	queries := &fakeQueries{claims: []sparql.Binding{
		binding("P1", "author", "Q10", "Alpha", ""),
		binding("P2", "editor", "Q10", "Alpha", ""),
	}}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 2)
	assert.Len(t, result.Claims[0].Items, 1)
	assert.Len(t, result.Claims[1].Items, 1)
}

// ---------------------------------------------------------------------------
// mirror side effects
// ---------------------------------------------------------------------------

func TestDirectClaimsUpsertOnlyNamespacedProperties(t *testing.T) {
	queries := &fakeQueries{claims: []sparql.Binding{
		identityBinding("Q42", "Douglas Adams"),
		binding("P31", "instance of", "Q5", "human", ""),
	}}
	mir := newRecordingMirror()
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), mir, nil)

	_, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)

	// The sentinel identity property ("N/A") does not reach the mirror.
	assert.NotContains(t, mir.items, "Q42")
	assert.Equal(t, "human", mir.items["Q5"])
	assert.Equal(t, []string{"Q42-[P31]->Q5"}, mir.edges)
}

func TestRelatedClaimsNeverUpsert(t *testing.T) {
	queries := &fakeQueries{related: []sparql.Binding{
		binding("P50", "author", "Q11", "novel", ""),
	}}
	mir := newRecordingMirror()
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), mir, nil)

	result, err := explorer.RelatedClaims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 1)
	assert.Empty(t, mir.items)
	assert.Empty(t, mir.edges)
}

func TestMirrorFailureDoesNotFailRequest(t *testing.T) {
	queries := &fakeQueries{claims: []sparql.Binding{
		binding("P31", "instance of", "Q5", "human", ""),
	}}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), failingMirror{}, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 1)
}

func TestHungMirrorStallsResponseByAtMostOneTimeout(t *testing.T) {
	var rows []sparql.Binding
	for i := 0; i < 10; i++ {
		rows = append(rows, binding("P31", "instance of", fmt.Sprintf("Q%d", 100+i), fmt.Sprintf("value %d", i), ""))
	}
	explorer := claims.NewExplorer(&fakeQueries{claims: rows}, nil, thumbnail.NewCache(), hangingMirror{}, nil).
		WithMirrorTimeout(50 * time.Millisecond)

	start := time.Now()
	result, err := explorer.Claims(context.Background(), "Q42", "en")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, result.Claims, 1)
	assert.Len(t, result.Claims[0].Items, 10)
	// Ten values emit twenty upsert events. The replay shares a single
	// 50ms deadline; per-call waits would take a second.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestFirstRowWithUnboundPropertyStartsClaim(t *testing.T) {
	mir := newRecordingMirror()
	queries := &fakeQueries{claims: []sparql.Binding{
		{
			PropURL:  sparql.Value{Type: "literal", Value: ""},
			ValURL:   sparql.Value{Type: "uri", Value: entityURL("Q10")},
			ValLabel: sparql.Value{Type: "literal", Value: "Alpha"},
		},
		binding("P50", "author", "Q11", "Beta", ""),
	}}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), mir, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	require.Len(t, result.Claims, 2)
	assert.Equal(t, "", result.Claims[0].Prop.ID)
	require.Len(t, result.Claims[0].Items, 1)
	assert.Equal(t, "Q10", result.Claims[0].Items[0].ID)

	// Only the namespaced property reaches the mirror.
	assert.NotContains(t, mir.items, "Q10")
	assert.Contains(t, mir.items, "Q11")
}

// ---------------------------------------------------------------------------
// locator enrichment
// ---------------------------------------------------------------------------

func TestLocatorEnrichmentPopulatesHeaderAndSeedsMirror(t *testing.T) {
	mir := newRecordingMirror()
	loc := &fakeLocator{info: &locator.ArticleInfo{ArticleTitle: "Douglas Adams", ItemID: "Q42"}}
	explorer := claims.NewExplorer(&fakeQueries{}, loc, thumbnail.NewCache(), mir, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	assert.Equal(t, "Douglas Adams", result.ArticleTitle)
	assert.Equal(t, "Q42", result.ArticleID)
	assert.Equal(t, "Douglas Adams", mir.items["Q42"])
}

func TestLocatorFailureLeavesHeaderFieldsEmpty(t *testing.T) {
	loc := &fakeLocator{err: wberr.New(wberr.CodeLocatorLookupUpstreamFailure, "down")}
	explorer := claims.NewExplorer(&fakeQueries{}, loc, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Claims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	assert.Empty(t, result.ArticleTitle)
	assert.Empty(t, result.ArticleID)
}

func TestRelatedClaimsEnrichmentDoesNotSeedMirror(t *testing.T) {
	mir := newRecordingMirror()
	loc := &fakeLocator{info: &locator.ArticleInfo{ArticleTitle: "Douglas Adams", ItemID: "Q42"}}
	explorer := claims.NewExplorer(&fakeQueries{}, loc, thumbnail.NewCache(), mir, nil)

	result, err := explorer.RelatedClaims(context.Background(), "Q42", "en")
	require.NoError(t, err)
	assert.Equal(t, "Douglas Adams", result.ArticleTitle)
	assert.Empty(t, mir.items)
}

// ---------------------------------------------------------------------------
// query failure propagation
// ---------------------------------------------------------------------------

func TestQueryFailureAbortsClaims(t *testing.T) {
	queries := &fakeQueries{err: wberr.New(wberr.CodeSparqlQueryUpstreamFailure, "unreachable")}
	explorer := claims.NewExplorer(queries, nil, thumbnail.NewCache(), nil, nil)

	_, err := explorer.Claims(context.Background(), "Q42", "en")
	require.Error(t, err)
	assert.Equal(t, wberr.CodeSparqlQueryUpstreamFailure, wberr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// traversal
// ---------------------------------------------------------------------------

func traversalBinding(itemID, label, picture string) sparql.TraversalBinding {
	b := sparql.TraversalBinding{
		Item:      sparql.Value{Type: "uri", Value: entityURL(itemID)},
		ItemLabel: sparql.Value{Type: "literal", Value: label},
	}
	if picture != "" {
		b.Picture = &sparql.Value{Type: "uri", Value: picture}
	}
	return b
}

func TestTraversePreservesOrderAndDuplicates(t *testing.T) {
	queries := &fakeQueries{traversal: []sparql.TraversalBinding{
		traversalBinding("Q1", "universe", ""),
		traversalBinding("Q323", "big bang", "http://commons.wikimedia.org/wiki/Special:FilePath/Universe.png"),
		traversalBinding("Q1", "universe", ""),
	}}
	cache := thumbnail.NewCache()
	explorer := claims.NewExplorer(queries, nil, cache, nil, nil)

	result, err := explorer.Traverse(context.Background(), sparql.TraversalParams{
		ItemID: "Q1", PropertyID: "P793", Direction: sparql.Forward, Depth: 3, Limit: 200, Lang: "en",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 3, "repeated items stay; consumers decide about dedup")
	assert.Equal(t, "Q1", result.Items[0].ID)
	assert.Equal(t, "Q323", result.Items[1].ID)
	assert.Equal(t, "Q1", result.Items[2].ID)

	assert.Equal(t, "https://commons.wikimedia.org/wiki/Special:Redirect/file/Universe.png?width=100px",
		result.Items[1].Picture)
	cached, ok := cache.Get("Q323", "en")
	require.True(t, ok)
	assert.Equal(t, result.Items[1].Picture, cached)
}

func TestTraverseEmptyResult(t *testing.T) {
	explorer := claims.NewExplorer(&fakeQueries{}, nil, thumbnail.NewCache(), nil, nil)

	result, err := explorer.Traverse(context.Background(), sparql.TraversalParams{
		ItemID: "Q1", PropertyID: "P793", Direction: sparql.Forward, Depth: 1, Limit: 10, Lang: "en",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}
