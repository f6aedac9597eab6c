// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package health tracks upstream collaborator failures and exposes
// point-in-time snapshots for the health endpoint.
package health

import (
	"sync"
	"time"
)

// Metrics exposes the current health state of an upstream collaborator for
// monitoring and operator visibility. All fields are point-in-time
// snapshots safe to serialize to JSON.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	Available     bool       `json:"available"`
}

// Tracker records success and failure per named upstream. Safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	upstreams map[string]*upstreamState
}

type upstreamState struct {
	failureCount  int64
	lastFailureAt time.Time
	lastFailed    bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{upstreams: make(map[string]*upstreamState)}
}

// RecordFailure notes a failed call to the named upstream.
func (t *Tracker) RecordFailure(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(name)
	st.failureCount++
	st.lastFailureAt = time.Now()
	st.lastFailed = true
}

// RecordSuccess notes a successful call to the named upstream, marking it
// available again.
func (t *Tracker) RecordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state(name).lastFailed = false
}

func (t *Tracker) state(name string) *upstreamState {
	st, ok := t.upstreams[name]
	if !ok {
		st = &upstreamState{}
		t.upstreams[name] = st
	}
	return st
}

// Snapshot returns the current state of every upstream seen so far. An
// upstream is reported available unless its most recent call failed.
func (t *Tracker) Snapshot() map[string]Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Metrics, len(t.upstreams))
	for name, st := range t.upstreams {
		m := Metrics{
			FailureCount: st.failureCount,
			Available:    !st.lastFailed,
		}
		if !st.lastFailureAt.IsZero() {
			at := st.lastFailureAt
			m.LastFailureAt = &at
		}
		out[name] = m
	}
	return out
}

// Body is the JSON body of the health endpoint response.
type Body struct {
	Status    string             `json:"status" example:"ok" doc:"Health status"`
	Upstreams map[string]Metrics `json:"upstreams,omitempty" doc:"Per-upstream health snapshots"`
}

// Response wraps the health check response.
type Response struct {
	Body Body
}

// OK builds a healthy response with no upstream detail.
func OK() *Response {
	return &Response{Body: Body{Status: "ok"}}
}

// FromTracker builds a response carrying the tracker's snapshot.
func FromTracker(t *Tracker) *Response {
	if t == nil {
		return OK()
	}
	return &Response{Body: Body{Status: "ok", Upstreams: t.Snapshot()}}
}
