// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package sparql

// Value is one bound variable in a SPARQL result row. The query service
// wraps every binding as {"type": ..., "value": ...}.
type Value struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Binding is one row of a claims or related-claims result. Rows arrive
// sorted by (propLabel, valLabel); Picture is nil when the value has no
// image statement.
type Binding struct {
	PropURL   Value  `json:"propUrl"`
	PropLabel Value  `json:"propLabel"`
	ValURL    Value  `json:"valUrl"`
	ValLabel  Value  `json:"valLabel"`
	Picture   *Value `json:"picture"`
}

// TraversalBinding is one row of a traversal result.
type TraversalBinding struct {
	Item      Value  `json:"item"`
	ItemLabel Value  `json:"itemLabel"`
	Picture   *Value `json:"picture"`
}

// claimsEnvelope is the query service's JSON response shape for the claims
// query family.
type claimsEnvelope struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// traversalEnvelope is the response shape for the traversal query.
type traversalEnvelope struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []TraversalBinding `json:"bindings"`
	} `json:"results"`
}
