//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package breakpoint tracks per-node debug breakpoints for compiled
// workflows. Node callables consult the manager before running; an armed
// breakpoint suspends the graph until the author resumes it.
package breakpoint

import (
	"sync"
	"time"
)

// Hit records one arrival at an armed breakpoint.
type Hit struct {
	NodeID string
	At     time.Time
}

// Manager is a concurrency-safe set of armed breakpoints keyed by the
// node's emitted id. The zero value is not usable; call New.
type Manager struct {
	mu     sync.RWMutex
	armed  map[string]bool
	hits   []Hit
	paused bool
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{armed: make(map[string]bool)}
}

// Set arms a breakpoint on the given node id.
func (m *Manager) Set(nodeID string) {
	if m == nil || nodeID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed[nodeID] = true
}

// Clear disarms the breakpoint on the given node id.
func (m *Manager) Clear(nodeID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.armed, nodeID)
}

// ClearAll disarms every breakpoint.
func (m *Manager) ClearAll() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = make(map[string]bool)
}

// PauseAll arms an implicit breakpoint on every node (single-step mode).
func (m *Manager) PauseAll(on bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = on
}

// ShouldBreak reports whether execution must suspend before nodeID, and
// records the hit when it does.
func (m *Manager) ShouldBreak(nodeID string) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused && !m.armed[nodeID] {
		return false
	}
	m.hits = append(m.hits, Hit{NodeID: nodeID, At: time.Now()})
	return true
}

// Armed returns the ids of all armed breakpoints.
func (m *Manager) Armed() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.armed))
	for id := range m.armed {
		out = append(out, id)
	}
	return out
}

// Hits returns a copy of the recorded breakpoint hits.
func (m *Manager) Hits() []Hit {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Hit(nil), m.hits...)
}
