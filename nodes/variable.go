//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package nodes

import (
	"context"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/graph"
	"trpc.group/trpc-go/trpc-agent-go/log"
)

func init() {
	RegisterBuilder("variable", buildVariable)
}

type assignment struct {
	target string
	value  any
}

// buildVariable compiles an assignment node. Each assignment writes a value
// at a dotted path rooted at a top-level state key (by convention one of
// attributes, metadata, tool_input), creating intermediate maps as needed.
// Assignments are diagnostic conveniences: any failure is logged and
// skipped, and the node always succeeds.
func buildVariable(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	var assigns []assignment
	for _, raw := range getList(data, "assignments") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		target, _ := m["target"].(string)
		assigns = append(assigns, assignment{target: target, value: m["value"]})
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		delta := graph.State{}
		for _, a := range assigns {
			if !applyAssignment(state, delta, a) {
				log.Warnf("nodes: variable %s skipped assignment to %q", nodeID, a.target)
			}
		}
		return delta, nil
	}, nil
}

// applyAssignment writes a.value at a.target. The top-level map is copied
// from current state into the delta so the write reaches the runtime as a
// mergeable update rather than an in-place mutation.
func applyAssignment(state graph.State, delta graph.State, a assignment) bool {
	path := strings.Split(a.target, ".")
	if a.target == "" || len(path) == 0 || path[0] == "" {
		return false
	}
	topKey := path[0]
	rest := path[1:]

	if len(rest) == 0 {
		delta[topKey] = a.value
		return true
	}

	top, ok := delta[topKey].(map[string]any)
	if !ok {
		top = map[string]any{}
		if existing, ok := state[topKey].(map[string]any); ok {
			for k, v := range existing {
				top[k] = v
			}
		}
	}

	cur := top
	for _, key := range rest[:len(rest)-1] {
		next, ok := cur[key]
		if !ok || next == nil {
			child := map[string]any{}
			cur[key] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return false
		}
		cur = child
	}
	cur[rest[len(rest)-1]] = a.value
	delta[topKey] = top
	return true
}
