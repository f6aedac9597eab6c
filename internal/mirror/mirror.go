// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package mirror accumulates discovered items and relationships in a
// property-graph store as a side effect of claim exploration. Upserts are
// best-effort: callers log failures and never surface them to HTTP clients.
package mirror

import (
	"context"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// GraphMirror is the append-only upsert interface for nodes and typed edges.
// Both operations are idempotent: repeating a call with identical arguments
// leaves the store's observable state unchanged.
type GraphMirror interface {
	// AddItem upserts an item node.
	AddItem(ctx context.Context, itemID, label string) error
	// AddRelationship upserts a directed edge from one item to another,
	// keyed by property id and labeled for display.
	AddRelationship(ctx context.Context, fromID, toID, propID, propLabel string) error
	Close() error
}

// Config selects and parameterizes the mirror backend.
type Config struct {
	Backend string
	Neo4j   Neo4jConfig
	SQLite  SQLiteConfig
}

// Neo4jConfig holds connection settings for the neo4j backend.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

// SQLiteConfig holds settings for the sqlite backend.
type SQLiteConfig struct {
	Path string
}

// New creates the configured mirror backend. An empty backend name selects
// the no-op mirror.
func New(cfg Config) (GraphMirror, error) {
	switch cfg.Backend {
	case "", "noop":
		return Noop{}, nil
	case "neo4j":
		return NewNeo4jMirror(cfg.Neo4j)
	case "sqlite":
		return NewSQLiteMirror(cfg.SQLite.Path)
	default:
		return nil, wberr.Errorf(wberr.CodeMirrorBackendUnsupported,
			"unsupported mirror backend: %q", cfg.Backend)
	}
}

// Noop discards all upserts. Used when mirroring is disabled.
type Noop struct{}

func (Noop) AddItem(context.Context, string, string) error { return nil }

func (Noop) AddRelationship(context.Context, string, string, string, string) error {
	return nil
}

func (Noop) Close() error { return nil }
