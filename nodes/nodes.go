//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package nodes turns the declarative data of a residual workflow node
// into an executable callable over graph state. Builders are keyed by node
// kind; kinds without a builder fall back to a logged no-op so a document
// with unknown nodes still compiles.
package nodes

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"trpc.group/trpc-go/trpc-agent-go/graph"
	"trpc.group/trpc-go/trpc-agent-go/log"

	"trpc.group/trpc-go/trpc-agent-go/flowgram/breakpoint"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/registry"
)

// Browser drives an embedded or headless browser session.
type Browser interface {
	Run(ctx context.Context, script string, actions []map[string]any) (map[string]any, error)
}

// ChatPeer delivers a chat message to a peer agent and returns its
// acknowledgement.
type ChatPeer interface {
	Send(ctx context.Context, target, content string) (string, error)
}

// Retriever queries a retrieval store.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]map[string]any, error)
}

// Services bundles the external collaborators node callables may need.
// Nil fields are allowed; builders that need a missing collaborator fail
// at run time with a tagged error.
type Services struct {
	HTTPClient *http.Client
	Browser    Browser
	ChatPeer   ChatPeer
	Retriever  Retriever
}

func (s *Services) httpClient() *http.Client {
	if s != nil && s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

// BuildContext carries compile-time surroundings into every builder.
type BuildContext struct {
	SkillName   string
	Owner       string
	Models      *registry.ModelRegistry
	Tools       *registry.ToolRegistry
	Breakpoints *breakpoint.Manager
	Services    *Services
}

// Builder produces a callable for one node from its declarative data.
type Builder func(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error)

var (
	buildersMu sync.RWMutex
	builders   = map[string]Builder{}
)

// RegisterBuilder binds a builder to a node kind. Later registrations for
// the same kind win, which lets applications override the built-ins.
func RegisterBuilder(kind string, b Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[kind] = b
}

func lookupBuilder(kind string) (Builder, bool) {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	b, ok := builders[kind]
	return b, ok
}

// Build dispatches on kind, wraps the result in the common decorator and
// returns the final callable. Unknown kinds compile to a no-op.
func Build(kind string, data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	b, ok := lookupBuilder(kind)
	if !ok {
		log.Warnf("nodes: no builder for kind %q, node %s compiles to a no-op", kind, nodeID)
		b = buildNoop
	}
	fn, err := b(data, nodeID, bctx)
	if err != nil {
		return nil, fmt.Errorf("build node %s (kind %s): %w", nodeID, kind, err)
	}
	return decorate(nodeID, bctx, fn), nil
}

// decorate wraps a callable with the shared behavior every node gets: a
// breakpoint check before the body runs, and error tagging with the node
// id afterwards. Armed breakpoints suspend the graph via interrupt; the
// resume value is discarded.
func decorate(nodeID string, bctx *BuildContext, fn graph.NodeFunc) graph.NodeFunc {
	var bp *breakpoint.Manager
	if bctx != nil {
		bp = bctx.Breakpoints
	}
	return func(ctx context.Context, state graph.State) (any, error) {
		if bp.ShouldBreak(nodeID) {
			if _, err := graph.Interrupt(ctx, state, "breakpoint:"+nodeID, map[string]any{
				"node": nodeID,
			}); err != nil {
				return nil, err
			}
		}
		out, err := fn(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", nodeID, err)
		}
		if out == nil {
			return graph.State{}, nil
		}
		return out, nil
	}
}

// buildNoop compiles to a callable that leaves state untouched. Used for
// event and comment markers, residual sheet-call shells, and any kind the
// dispatcher does not recognize.
func buildNoop(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	return func(ctx context.Context, state graph.State) (any, error) {
		return graph.State{}, nil
	}, nil
}

// resultDelta packages a node's output under the shared result key.
func resultDelta(kv map[string]any) graph.State {
	return graph.State{"result": kv}
}

func init() {
	RegisterBuilder("event", buildNoop)
	RegisterBuilder("comment", buildNoop)
	RegisterBuilder("sheet-call", buildNoop)
}
