// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package claims

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/douglasArantes/wikibrowser-service/internal/locator"
	"github.com/douglasArantes/wikibrowser-service/internal/metrics"
	"github.com/douglasArantes/wikibrowser-service/internal/mirror"
	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
	"github.com/douglasArantes/wikibrowser-service/internal/thumbnail"
)

// QueryClient executes the three query shapes against the remote query
// service. *sparql.Client satisfies this; tests substitute fakes.
type QueryClient interface {
	Claims(ctx context.Context, itemID, lang string) ([]sparql.Binding, error)
	RelatedClaims(ctx context.Context, itemID, lang string) ([]sparql.Binding, error)
	Traverse(ctx context.Context, p sparql.TraversalParams) ([]sparql.TraversalBinding, error)
}

// ArticleLocator resolves an item id to article metadata.
type ArticleLocator interface {
	Lookup(ctx context.Context, itemID, lang string) (*locator.ArticleInfo, error)
}

// defaultMirrorTimeout bounds the whole upsert replay of one request so the
// mirror can never stall the response path beyond a single window.
const defaultMirrorTimeout = 2 * time.Second

// Explorer orchestrates one exploration request: query execution, optional
// article enrichment, aggregation, and graph-mirror upserts.
type Explorer struct {
	queries QueryClient
	locator ArticleLocator
	thumbs  *thumbnail.Cache
	mirror  mirror.GraphMirror
	metrics *metrics.Metrics

	mirrorTimeout time.Duration
}

// NewExplorer wires an Explorer. loc may be nil when no locator service is
// configured; mir defaults to the no-op mirror when nil.
func NewExplorer(queries QueryClient, loc ArticleLocator, thumbs *thumbnail.Cache,
	mir mirror.GraphMirror, m *metrics.Metrics) *Explorer {
	if mir == nil {
		mir = mirror.Noop{}
	}
	return &Explorer{
		queries:       queries,
		locator:       loc,
		thumbs:        thumbs,
		mirror:        mir,
		metrics:       m,
		mirrorTimeout: defaultMirrorTimeout,
	}
}

// WithMirrorTimeout overrides the bound applied to each mirror upsert.
// Non-positive values keep the default.
func (e *Explorer) WithMirrorTimeout(d time.Duration) *Explorer {
	if d > 0 {
		e.mirrorTimeout = d
	}
	return e
}

// Claims builds the direct-claims result for an item. The graph query and
// the article lookup run concurrently; only the query is required.
func (e *Explorer) Claims(ctx context.Context, itemID, lang string) (*ClaimsResult, error) {
	bindings, info, err := e.fetch(ctx, itemID, lang, e.queries.Claims)
	if err != nil {
		return nil, err
	}

	result := newClaimsResult(itemID, lang)
	e.applyArticleInfo(ctx, result, info, true)

	events := groupBindings(result, bindings, itemID, lang, e.thumbs, true)
	e.applyUpserts(ctx, events)

	return result, nil
}

// RelatedClaims builds the inverse-claims result: entities pointing at the
// item. No graph-mirror upserts are performed for this variant.
func (e *Explorer) RelatedClaims(ctx context.Context, itemID, lang string) (*ClaimsResult, error) {
	bindings, info, err := e.fetch(ctx, itemID, lang, e.queries.RelatedClaims)
	if err != nil {
		return nil, err
	}

	result := newClaimsResult(itemID, lang)
	e.applyArticleInfo(ctx, result, info, false)

	groupBindings(result, bindings, itemID, lang, e.thumbs, false)

	return result, nil
}

// Traverse runs the typed-link traversal and collects discovered items.
func (e *Explorer) Traverse(ctx context.Context, p sparql.TraversalParams) (*TraversalResult, error) {
	bindings, err := e.queries.Traverse(ctx, p)
	if err != nil {
		return nil, err
	}
	return collectTraversal(bindings, p.Lang, e.thumbs), nil
}

// fetch issues the graph query and the locator lookup concurrently. The two
// calls are independent: a locator failure degrades to a nil ArticleInfo
// while a query failure aborts the request.
func (e *Explorer) fetch(ctx context.Context, itemID, lang string,
	query func(context.Context, string, string) ([]sparql.Binding, error)) ([]sparql.Binding, *locator.ArticleInfo, error) {

	var (
		bindings []sparql.Binding
		info     *locator.ArticleInfo
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := query(gctx, itemID, lang)
		if err != nil {
			return err
		}
		bindings = rows
		return nil
	})

	if e.locator != nil {
		g.Go(func() error {
			found, err := e.locator.Lookup(gctx, itemID, lang)
			if err != nil {
				slog.Warn("article lookup failed, header fields omitted",
					"item", itemID, "lang", lang, "error", err)
				if e.metrics != nil {
					e.metrics.LocatorFailures.Inc()
				}
				return nil
			}
			info = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return bindings, info, nil
}

// applyArticleInfo copies locator enrichment onto the result header. For the
// direct variant the enriched subject is also seeded into the graph mirror.
func (e *Explorer) applyArticleInfo(ctx context.Context, result *ClaimsResult, info *locator.ArticleInfo, seedMirror bool) {
	if info == nil {
		return
	}
	result.ArticleTitle = info.ArticleTitle
	result.ArticleID = info.ItemID

	if seedMirror && info.ItemID != "" && info.ArticleTitle != "" {
		mctx, cancel := e.mirrorContext(ctx)
		defer cancel()
		e.upsertItem(mctx, info.ItemID, info.ArticleTitle)
	}
}

// applyUpserts replays aggregation events against the graph mirror under one
// deadline shared by the whole batch. Best-effort: failures are counted and
// logged, never returned. Once the deadline passes the rest of the batch is
// abandoned rather than waited out call by call.
func (e *Explorer) applyUpserts(ctx context.Context, events []upsertEvent) {
	if len(events) == 0 {
		return
	}

	mctx, cancel := e.mirrorContext(ctx)
	defer cancel()

	for i, ev := range events {
		if mctx.Err() != nil {
			slog.Warn("graph mirror replay abandoned",
				"applied", i, "remaining", len(events)-i, "error", mctx.Err())
			return
		}
		if ev.propID == "" {
			e.upsertItem(mctx, ev.itemID, ev.itemLabel)
			continue
		}
		e.upsertRelationship(mctx, ev.fromID, ev.itemID, ev.propID, ev.propLabel)
	}
}

// mirrorContext detaches from request cancellation and applies the upsert
// deadline.
func (e *Explorer) mirrorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.mirrorTimeout)
}

func (e *Explorer) upsertItem(ctx context.Context, itemID, label string) {
	if err := e.mirror.AddItem(ctx, itemID, label); err != nil {
		e.recordMirrorFailure("item", itemID, err)
	}
}

func (e *Explorer) upsertRelationship(ctx context.Context, fromID, toID, propID, propLabel string) {
	if err := e.mirror.AddRelationship(ctx, fromID, toID, propID, propLabel); err != nil {
		e.recordMirrorFailure("relationship", fromID+"->"+toID, err)
	}
}

func (e *Explorer) recordMirrorFailure(kind, key string, err error) {
	slog.Warn("graph mirror upsert failed", "kind", kind, "key", key, "error", err)
	if e.metrics != nil {
		e.metrics.MirrorUpsertFailures.Inc()
	}
}
