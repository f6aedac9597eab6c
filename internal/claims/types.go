// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package claims turns flat SPARQL binding rows into the nested claim model
// served by the HTTP endpoints, and drives the graph-mirror side effects of
// exploration.
package claims

import (
	"encoding/xml"
	"fmt"
)

// Fixed base URLs echoed in every claims response so clients can build
// entity, property, and article links.
const (
	WikidataItemBase = "http://www.wikidata.org/entity/"
	WikidataPropBase = "http://www.wikidata.org/prop/direct/"

	wikipediaTemplate       = "https://%s.wikipedia.org/wiki/"
	wikipediaMobileTemplate = "https://%s.m.wikipedia.org/wiki/"
)

// MaxValuesPerProperty caps how many values a single claim carries. Excess
// rows are silently truncated during aggregation.
const MaxValuesPerProperty = 25

// WikidataItem is one claim value (or traversal hit). Picture is empty when
// the source row carried no image reference. Immutable once constructed.
type WikidataItem struct {
	ID      string `json:"id" xml:"id"`
	Label   string `json:"label" xml:"label"`
	Picture string `json:"picture" xml:"picture"`
}

// WikidataProperty identifies the property side of a claim.
type WikidataProperty struct {
	ID    string `json:"id" xml:"id"`
	Label string `json:"label" xml:"label"`
}

// WikidataClaim groups all values asserted under one property, in encounter
// order.
type WikidataClaim struct {
	Prop  WikidataProperty `json:"prop" xml:"prop"`
	Items []WikidataItem   `json:"items" xml:"items>item"`
}

// ClaimsResult is the grouped response for the claims and related-claims
// endpoints. ArticleTitle and ArticleID stay empty when the locator lookup
// failed; that is not an error for the request as a whole.
type ClaimsResult struct {
	XMLName      xml.Name        `json:"-" xml:"claimsResponse"`
	Lang         string          `json:"lang" xml:"lang"`
	WdItem       string          `json:"wdItem" xml:"wdItem"`
	ArticleTitle string          `json:"articleTitle,omitempty" xml:"articleTitle,omitempty"`
	ArticleID    string          `json:"articleId,omitempty" xml:"articleId,omitempty"`
	WdItemBase   string          `json:"wdItemBase" xml:"wdItemBase"`
	WdPropBase   string          `json:"wdPropBase" xml:"wdPropBase"`
	WpBase       string          `json:"wpBase" xml:"wpBase"`
	WpMobileBase string          `json:"wpMobileBase" xml:"wpMobileBase"`
	Claims       []WikidataClaim `json:"claims" xml:"claims>claim"`
}

// TraversalResult lists discovered items in arrival order, which encodes
// path/depth ordering for shortest-path rendering.
type TraversalResult struct {
	Items []WikidataItem `json:"items"`
}

func newClaimsResult(itemID, lang string) *ClaimsResult {
	return &ClaimsResult{
		Lang:         lang,
		WdItem:       itemID,
		WdItemBase:   WikidataItemBase,
		WdPropBase:   WikidataPropBase,
		WpBase:       fmt.Sprintf(wikipediaTemplate, lang),
		WpMobileBase: fmt.Sprintf(wikipediaMobileTemplate, lang),
		Claims:       []WikidataClaim{},
	}
}
