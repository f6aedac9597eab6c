// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package claims

import (
	"strings"

	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
	"github.com/douglasArantes/wikibrowser-service/internal/thumbnail"
)

// upsertEvent records a node or edge discovered during aggregation. The
// transform itself stays pure; events are applied to the graph mirror as an
// explicit post-processing step.
type upsertEvent struct {
	itemID    string
	itemLabel string

	// edge fields; empty propID means node-only
	fromID    string
	propID    string
	propLabel string
}

// idFromURL extracts the trailing identifier from an entity or property URL.
// The synthetic identity rows bind plain "N/A" instead of a URL, which comes
// through unchanged.
func idFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// groupBindings walks an ordered binding sequence once and groups contiguous
// rows by property into claims.
//
// Precondition: rows arrive sorted by (propLabel, valLabel), so rows for one
// property are contiguous. This is the remote query's documented contract
// and is not re-validated here.
//
// Rules, per row:
//   - the first row always starts a claim; an unbound property comes
//     through as the empty id and is grouped like any other;
//   - property change starts a new claim and resets the per-property count;
//   - a row repeating the previous row's (property, value) pair is an
//     adjacent duplicate (multiple qualifying picture statements) and its
//     value is not appended again;
//   - once a property holds MaxValuesPerProperty values, further values are
//     silently dropped, though last-seen tracking still advances;
//   - any picture reference is resolved and cached regardless of whether
//     the value was appended.
//
// When mirrorDiscoveries is set (direct-claims variant), every appended
// value whose property id carries the "P" namespace prefix yields node and
// edge upsert events against the subject. The related variant passes false,
// preserving the source asymmetry.
func groupBindings(result *ClaimsResult, bindings []sparql.Binding, subjectID, lang string,
	thumbs *thumbnail.Cache, mirrorDiscoveries bool) []upsertEvent {

	var events []upsertEvent

	lastPropID := ""
	lastValID := ""
	valsForProp := 0
	started := false

	for _, b := range bindings {
		propID := idFromURL(b.PropURL.Value)
		valID := idFromURL(b.ValURL.Value)

		pictureURL := ""
		if b.Picture != nil {
			pictureURL = thumbnail.ResolveURL(b.Picture.Value, thumbnail.DefaultWidth)
			thumbs.Set(valID, lang, pictureURL)
		}

		if !started || propID != lastPropID {
			result.Claims = append(result.Claims, WikidataClaim{
				Prop: WikidataProperty{ID: propID, Label: b.PropLabel.Value},
			})
			valsForProp = 0
		}

		newValue := !started || propID != lastPropID || valID != lastValID
		if newValue && valsForProp < MaxValuesPerProperty {
			valsForProp++
			claim := &result.Claims[len(result.Claims)-1]
			claim.Items = append(claim.Items, WikidataItem{
				ID:      valID,
				Label:   b.ValLabel.Value,
				Picture: pictureURL,
			})

			if mirrorDiscoveries && strings.HasPrefix(strings.ToUpper(propID), "P") {
				events = append(events,
					upsertEvent{itemID: valID, itemLabel: b.ValLabel.Value},
					upsertEvent{itemID: valID, fromID: subjectID, propID: propID, propLabel: b.PropLabel.Value},
				)
			}
		}

		started = true
		lastPropID = propID
		lastValID = valID
	}

	return events
}

// collectTraversal walks an ordered traversal binding sequence, resolving
// and caching pictures, and appends every row as an item. Source rows may
// legitimately repeat an item reached via multiple paths; no dedup or cap
// is applied, and arrival order is preserved.
func collectTraversal(bindings []sparql.TraversalBinding, lang string, thumbs *thumbnail.Cache) *TraversalResult {
	result := &TraversalResult{Items: []WikidataItem{}}

	for _, b := range bindings {
		itemID := idFromURL(b.Item.Value)

		pictureURL := ""
		if b.Picture != nil {
			pictureURL = thumbnail.ResolveURL(b.Picture.Value, thumbnail.DefaultWidth)
			thumbs.Set(itemID, lang, pictureURL)
		}

		result.Items = append(result.Items, WikidataItem{
			ID:      itemID,
			Label:   b.ItemLabel.Value,
			Picture: pictureURL,
		})
	}

	return result
}
