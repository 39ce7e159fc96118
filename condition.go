//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"context"
	"sort"

	"trpc.group/trpc-go/trpc-agent-go/graph"
	"trpc.group/trpc-go/trpc-agent-go/log"

	"trpc.group/trpc-go/trpc-agent-go/flowgram/cel"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/condition"
)

// Branch is one outcome of a condition node. Key names the out-port
// (if_*/elif_*/else_*); Value selects the evaluation mode. A map value with
// a custom type evaluates an expression, a map with an operator (or a list
// of such maps, checked conjunctively) uses the structured legacy form, and
// anything else falls back to the truthy state.condition flag.
type Branch struct {
	Key   string
	Value any
}

func branchClass(key string) int {
	switch {
	case len(key) >= 3 && key[:3] == "if_":
		return 0
	case len(key) >= 5 && key[:5] == "elif_":
		return 1
	case len(key) >= 5 && key[:5] == "else_":
		return 2
	default:
		return 1
	}
}

func (b Branch) isElse() bool { return branchClass(b.Key) == 2 }

// parseBranches reads the ordered branch list from a condition node's data.
// Branch order within a class is preserved; classes sort if/elif/else.
func parseBranches(data map[string]any) []Branch {
	raw, ok := data["conditions"].([]any)
	if !ok {
		return nil
	}
	branches := make([]Branch, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["key"].(string)
		if key == "" {
			continue
		}
		branches = append(branches, Branch{Key: key, Value: m["value"]})
	}
	sort.SliceStable(branches, func(i, j int) bool {
		return branchClass(branches[i].Key) < branchClass(branches[j].Key)
	})
	return branches
}

// evalBranch decides whether a non-else branch fires.
func evalBranch(b Branch, state map[string]any) bool {
	switch v := b.Value.(type) {
	case []any:
		rules := make([]condition.Rule, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rules = append(rules, condition.RuleFromMap(m))
			}
		}
		return condition.EvaluateAll(rules, state)
	case map[string]any:
		if t, _ := v["type"].(string); t == "custom" {
			expr, _ := v["expr"].(string)
			return cel.EvalBool(expr, state)
		}
		if _, ok := v["operator"]; ok {
			return condition.Evaluate(condition.RuleFromMap(v), state)
		}
		if left, ok := v["left"].(map[string]any); ok {
			op := condition.RuleFromMap(map[string]any{"left": left}).Left
			return cel.Truthy(condition.Resolve(op, state))
		}
		return defaultConditionFlag(state)
	default:
		return defaultConditionFlag(state)
	}
}

// defaultConditionFlag reads the well-known condition flag, preferring the
// top-level key and falling back under attributes.
func defaultConditionFlag(state map[string]any) bool {
	if v, ok := state["condition"]; ok {
		return cel.Truthy(v)
	}
	if attrs, ok := state["attributes"].(map[string]any); ok {
		if v, ok := attrs["condition"]; ok {
			return cel.Truthy(v)
		}
	}
	return false
}

// buildSelector compiles a condition node into a port-choosing function.
// ports is the ordered list of out-ports that actually have edges; the
// returned selector always answers with one of them (the first port when a
// matching branch names an unknown port, positional fallbacks when nothing
// matches).
func buildSelector(nodeID string, branches []Branch, ports []string) graph.ConditionalFunc {
	known := make(map[string]bool, len(ports))
	for _, p := range ports {
		known[p] = true
	}
	return func(ctx context.Context, state graph.State) (string, error) {
		s := map[string]any(state)
		for _, b := range branches {
			if b.isElse() {
				continue
			}
			if evalBranch(b, s) {
				if known[b.Key] {
					return b.Key, nil
				}
				if len(ports) > 0 {
					log.Warnf("flowgram: condition %s matched branch %q with no edge, taking port %q", nodeID, b.Key, ports[0])
					return ports[0], nil
				}
				return "", nil
			}
		}
		for _, b := range branches {
			if b.isElse() && known[b.Key] {
				return b.Key, nil
			}
		}
		switch {
		case len(ports) > 1:
			return ports[1], nil
		case len(ports) == 1:
			return ports[0], nil
		default:
			log.Warnf("flowgram: condition %s has no outgoing ports", nodeID)
			return "", nil
		}
	}
}
