// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package sparql builds and executes the Wikidata SPARQL queries behind the
// claims, related-claims, and traversal endpoints.
package sparql

import (
	"fmt"
	"strings"
)

// Transport escaping for query text sent as a URL query parameter. The
// Wikidata query service accepts this minimal set; everything else in the
// query grammar is URL-safe.
const (
	escSpace        = "%20"
	escOpenBrace    = "%7B"
	escCloseBrace   = "%7D"
	escOpenAngle    = "%3C"
	escCloseAngle   = "%3E"
	escHash         = "%23"
	escAt           = "%40"
	escDoubleQuote  = "%22"
)

var queryEscaper = strings.NewReplacer(
	" ", escSpace,
	"{", escOpenBrace,
	"}", escCloseBrace,
	"<", escOpenAngle,
	">", escCloseAngle,
	"#", escHash,
	"@", escAt,
	`"`, escDoubleQuote,
)

// Escape rewrites raw SPARQL text into its transport form.
func Escape(raw string) string {
	return queryEscaper.Replace(raw)
}

// RequestLimit is the row cap requested from the query service. It is
// independent of the per-property value cap applied during aggregation.
const RequestLimit = 500

// Direction selects how a traversal follows typed links.
type Direction string

const (
	Forward    Direction = "Forward"
	Reverse    Direction = "Reverse"
	Undirected Direction = "Undirected"
)

// ParseDirection maps the request vocabulary onto a Direction.
// "r"/"R" is Reverse, "u"/"U" is Undirected, everything else is Forward.
func ParseDirection(arg string) Direction {
	switch strings.ToLower(arg) {
	case "r":
		return Reverse
	case "u":
		return Undirected
	default:
		return Forward
	}
}

// ClaimsQuery renders the direct-claims query for one item, escaped for
// transport. The UNION's first branch binds the subject to itself under the
// sentinel "identity" property so the subject always appears as its own
// first claim target. Both label filters use lang; rows come back sorted by
// (propLabel, valLabel), which the aggregator depends on.
func ClaimsQuery(itemID, lang string) string {
	var b strings.Builder
	b.WriteString("PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#> ")
	b.WriteString("PREFIX wikibase: <http://wikiba.se/ontology#> ")
	b.WriteString("PREFIX entity: <http://www.wikidata.org/entity/> ")
	b.WriteString("PREFIX p: <http://www.wikidata.org/prop/direct/> ")
	b.WriteString("SELECT ?propUrl ?propLabel ?valUrl ?valLabel ?picture ")
	b.WriteString("WHERE { hint:Query hint:optimizer 'None' . ")
	fmt.Fprintf(&b, "{ BIND(entity:%s AS ?valUrl) . BIND('N/A' AS ?propUrl ) . BIND('identity'@%s AS ?propLabel ) . } ", itemID, lang)
	fmt.Fprintf(&b, "UNION { entity:%s ?propUrl ?valUrl . ?property ?ref ?propUrl . ?property a wikibase:Property . ?property rdfs:label ?propLabel } ", itemID)
	fmt.Fprintf(&b, "?valUrl rdfs:label ?valLabel FILTER (lang(?valLabel) = '%s' ) . ", lang)
	b.WriteString("OPTIONAL { ?valUrl p:P18 ?picture . } ")
	fmt.Fprintf(&b, "FILTER (lang(?propLabel) = '%s' ) ", lang)
	fmt.Fprintf(&b, "} ORDER BY ?propLabel ?valLabel LIMIT %d", RequestLimit)

	return Escape(b.String())
}

// RelatedClaimsQuery renders the inverse-claims query: all (value, property)
// pairs where some other entity points at the subject. Same filters, sort
// order, image join, and request cap as ClaimsQuery.
func RelatedClaimsQuery(itemID, lang string) string {
	var b strings.Builder
	b.WriteString("PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#> ")
	b.WriteString("PREFIX wikibase: <http://wikiba.se/ontology#> ")
	b.WriteString("PREFIX entity: <http://www.wikidata.org/entity/> ")
	b.WriteString("PREFIX p: <http://www.wikidata.org/prop/direct/> ")
	b.WriteString("SELECT ?propUrl ?propLabel ?valUrl ?valLabel ?picture ")
	b.WriteString("WHERE { hint:Query hint:optimizer 'None' . ")
	fmt.Fprintf(&b, "?valUrl ?propUrl entity:%s . ", itemID)
	fmt.Fprintf(&b, "?valUrl rdfs:label ?valLabel . FILTER (LANG(?valLabel) = '%s') . ", lang)
	b.WriteString("?property ?ref ?propUrl . ?property a wikibase:Property . ?property rdfs:label ?propLabel ")
	b.WriteString("OPTIONAL { ?valUrl p:P18 ?picture . } ")
	fmt.Fprintf(&b, "FILTER (lang(?propLabel) = '%s' ) ", lang)
	fmt.Fprintf(&b, "} ORDER BY ?propLabel ?valLabel LIMIT %d", RequestLimit)

	return Escape(b.String())
}

// TraversalParams parameterize the graph-analytics traversal query.
type TraversalParams struct {
	ItemID     string
	PropertyID string
	Direction  Direction
	// Depth is the gas:maxIterations bound.
	Depth int
	// TargetID, when non-empty, switches the program into shortest-path
	// mode toward that item.
	TargetID string
	Limit    int
	Lang     string
}

// TraversalQuery renders the SSSP traversal query for the graph-analytics
// service, escaped for transport.
func TraversalQuery(p TraversalParams) string {
	var b strings.Builder
	b.WriteString("PREFIX wd: <http://www.wikidata.org/entity/> ")
	b.WriteString("PREFIX wdt: <http://www.wikidata.org/prop/direct/> ")
	b.WriteString("PREFIX wikibase: <http://wikiba.se/ontology#> ")
	b.WriteString("PREFIX gas: <http://www.bigdata.com/rdf/gas#> ")
	b.WriteString("SELECT ?item ?itemLabel ?picture {")
	b.WriteString("{ SERVICE gas:service {")
	b.WriteString("gas:program gas:gasClass 'com.bigdata.rdf.graph.analytics.SSSP';")
	fmt.Fprintf(&b, "gas:in wd:%s;", p.ItemID)
	if p.TargetID != "" {
		fmt.Fprintf(&b, "gas:target wd:%s;", p.TargetID)
	}
	fmt.Fprintf(&b, "gas:traversalDirection '%s';", p.Direction)
	b.WriteString("gas:out ?item;")
	b.WriteString("gas:out1 ?depth;")
	fmt.Fprintf(&b, "gas:maxIterations %d;", p.Depth)
	fmt.Fprintf(&b, "gas:linkType wdt:%s .", p.PropertyID)
	b.WriteString("} } ")
	b.WriteString("OPTIONAL { ?item wdt:P18 ?picture . } ")
	fmt.Fprintf(&b, `SERVICE wikibase:label {bd:serviceParam wikibase:language "%s" } `, p.Lang)
	fmt.Fprintf(&b, "} LIMIT %d", p.Limit)

	return Escape(b.String())
}
