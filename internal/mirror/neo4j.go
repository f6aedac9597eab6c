// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package mirror

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// Neo4jMirror persists items and relationships in a Neo4j graph using MERGE
// so repeated upserts are idempotent.
type Neo4jMirror struct {
	driver neo4j.DriverWithContext
}

var _ GraphMirror = (*Neo4jMirror)(nil)

// NewNeo4jMirror connects to Neo4j with basic auth.
func NewNeo4jMirror(cfg Neo4jConfig) (*Neo4jMirror, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, wberr.Wrap(err, wberr.CodeMirrorConnectFailure, "creating neo4j driver")
	}
	return &Neo4jMirror{driver: driver}, nil
}

// AddItem merges an Item node by id, refreshing its label.
func (m *Neo4jMirror) AddItem(ctx context.Context, itemID, label string) error {
	const cypher = `
		MERGE (i:Item {itemId: $itemId})
		SET i.title = $label`

	err := m.run(ctx, cypher, map[string]any{
		"itemId": itemID,
		"label":  label,
	})
	return wberr.Wrap(err, wberr.CodeMirrorUpsertFailure, "merging item",
		wberr.FieldItemID(itemID))
}

// AddRelationship merges a RELATED_TO edge keyed by property id between two
// item nodes, creating the nodes if they are not present yet.
func (m *Neo4jMirror) AddRelationship(ctx context.Context, fromID, toID, propID, propLabel string) error {
	const cypher = `
		MERGE (a:Item {itemId: $fromId})
		MERGE (b:Item {itemId: $toId})
		MERGE (a)-[r:RELATED_TO {propId: $propId}]->(b)
		SET r.label = $propLabel`

	err := m.run(ctx, cypher, map[string]any{
		"fromId":    fromID,
		"toId":      toID,
		"propId":    propID,
		"propLabel": propLabel,
	})
	return wberr.Wrap(err, wberr.CodeMirrorUpsertFailure, "merging relationship",
		wberr.FieldItemID(fromID), wberr.FieldPropertyID(propID))
}

func (m *Neo4jMirror) run(ctx context.Context, cypher string, params map[string]any) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	return err
}

// Close shuts down the underlying driver.
func (m *Neo4jMirror) Close() error {
	return m.driver.Close(context.Background())
}
