//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"trpc.group/trpc-go/trpc-agent-go/log"
)

// maxLoopPasses caps the fixed-point iteration over nested loops.
const maxLoopPasses = 10

// dataLoopSynthetic marks the injected update node so the code builder
// knows to run the built-in counter seeder instead of a user script.
const dataLoopSynthetic = "loopSynthetic"

// loopUpdateID and loopCheckID name the synthetic nodes injected for a loop.
func loopUpdateID(loopID string) string { return "update_" + loopID + "_condition" }
func loopCheckID(loopID string) string  { return "check_" + loopID + "_condition" }

// lowerLoops replaces every loop container with the pattern
//
//	preds -> update -> check --if_out--> body ... -> update
//	                        \--else_out--> successors
//
// iterating until no loop nodes remain. Nested loops resolve across passes:
// an inner loop reached from an outer loop's exit is targeted through its
// own update node, and edges from a loop container into another loop are
// left for the container's own lowering to rewire.
func lowerLoops(w Workflow) Workflow {
	out := w
	for i := 0; i < maxLoopPasses; i++ {
		if !hasLoops(out) {
			return out
		}
		out = lowerLoopsOnce(out)
	}
	if hasLoops(out) {
		log.Warnf("flowgram: loop lowering did not converge after %d passes", maxLoopPasses)
	}
	return out
}

func hasLoops(w Workflow) bool {
	for _, n := range w.Nodes {
		if n.Kind() == KindLoop {
			return true
		}
	}
	return false
}

type edgeKey struct {
	src, tgt, port string
}

func keyOf(e Edge) edgeKey {
	return edgeKey{src: e.SourceNodeID, tgt: e.TargetNodeID, port: e.SourcePortID}
}

func lowerLoopsOnce(w Workflow) Workflow {
	idx := nodeIndex(w)

	loopSet := make(map[string]bool)
	var loopIDs []string
	for _, n := range w.Nodes {
		if n.Kind() == KindLoop {
			loopSet[n.ID] = true
			loopIDs = append(loopIDs, n.ID)
		}
	}

	var newNodes []Node
	var newEdges []Edge
	removeNodes := make(map[string]bool)
	removeEdges := make(map[edgeKey]bool)

	for _, lid := range loopIDs {
		lnode := idx[lid]
		firsts, lasts := loopBoundary(lnode)
		updateID, checkID := loopUpdateID(lid), loopCheckID(lid)

		newNodes = append(newNodes,
			Node{
				ID:   updateID,
				Type: KindCode,
				Data: map[string]any{
					"title":           updateID,
					dataLoopSynthetic: true,
				},
			},
			Node{
				ID:   checkID,
				Type: KindCondition,
				Data: map[string]any{
					"title":      checkID,
					"conditions": loopCheckBranches(lnode),
				},
			},
		)

		// External predecessors feed the update node. An edge from another
		// loop container is not rewired here: when that container is
		// lowered, its exit edge targets this update node directly.
		for _, e := range w.Edges {
			if e.TargetNodeID != lid {
				continue
			}
			removeEdges[keyOf(e)] = true
			if loopSet[e.SourceNodeID] {
				continue
			}
			ee := e
			ee.TargetNodeID = updateID
			newEdges = append(newEdges, ee)
		}

		newEdges = append(newEdges, Edge{SourceNodeID: updateID, TargetNodeID: checkID})

		for _, f := range firsts {
			newEdges = append(newEdges, Edge{SourceNodeID: checkID, TargetNodeID: f, SourcePortID: "if_out"})
		}

		// External successors hang off the else branch; a loop successor is
		// entered through its own update node.
		for _, e := range w.Edges {
			if e.SourceNodeID != lid {
				continue
			}
			removeEdges[keyOf(e)] = true
			target := e.TargetNodeID
			if loopSet[target] {
				target = loopUpdateID(target)
			}
			newEdges = append(newEdges, Edge{
				SourceNodeID: checkID,
				TargetNodeID: target,
				SourcePortID: "else_out",
				TargetPortID: e.TargetPortID,
			})
		}

		for _, l := range lasts {
			newEdges = append(newEdges, Edge{SourceNodeID: l, TargetNodeID: updateID})
		}

		// Inline the body.
		passthrough := make(map[string]bool)
		for _, b := range lnode.Blocks {
			if b.IsPassthrough() {
				passthrough[b.ID] = true
				removeNodes[b.ID] = true
				continue
			}
			newNodes = append(newNodes, b.clone())
		}
		for _, ie := range lnode.Edges {
			if passthrough[ie.SourceNodeID] || passthrough[ie.TargetNodeID] {
				continue
			}
			newEdges = append(newEdges, ie)
		}

		removeNodes[lid] = true
	}

	out := Workflow{}
	seen := make(map[string]bool)
	for _, n := range w.Nodes {
		if removeNodes[n.ID] {
			continue
		}
		out.Nodes = append(out.Nodes, n)
		seen[n.ID] = true
	}
	for _, n := range newNodes {
		if seen[n.ID] {
			continue
		}
		out.Nodes = append(out.Nodes, n)
		seen[n.ID] = true
	}

	for _, e := range w.Edges {
		if removeEdges[keyOf(e)] || removeNodes[e.SourceNodeID] || removeNodes[e.TargetNodeID] {
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	out.Edges = append(out.Edges, newEdges...)

	// Defensive sweep: removed containers may still be referenced by edges
	// created in this pass.
	valid := make(map[string]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		valid[n.ID] = true
	}
	swept := out.Edges[:0]
	for _, e := range out.Edges {
		if !valid[e.SourceNodeID] || !valid[e.TargetNodeID] {
			log.Debugf("flowgram: sweep dangling edge %s -> %s", e.SourceNodeID, e.TargetNodeID)
			continue
		}
		swept = append(swept, e)
	}
	out.Edges = swept
	return out
}

// loopBoundary computes the body's entry and exit node sets over the loop's
// internal edge relation, ignoring passthrough markers. Either set falls
// back to all non-passthrough blocks when empty.
func loopBoundary(lnode Node) (firsts, lasts []string) {
	passthrough := make(map[string]bool)
	var candidates []string
	for _, b := range lnode.Blocks {
		if b.IsPassthrough() {
			passthrough[b.ID] = true
			continue
		}
		candidates = append(candidates, b.ID)
	}

	preds := make(map[string]int)
	succs := make(map[string]int)
	for _, e := range lnode.Edges {
		if !passthrough[e.SourceNodeID] {
			preds[e.TargetNodeID]++
		}
		if !passthrough[e.TargetNodeID] {
			succs[e.SourceNodeID]++
		}
	}

	for _, id := range candidates {
		if preds[id] == 0 {
			firsts = append(firsts, id)
		}
		if succs[id] == 0 {
			lasts = append(lasts, id)
		}
	}
	if len(firsts) == 0 {
		firsts = candidates
	}
	if len(lasts) == 0 {
		lasts = candidates
	}
	return firsts, lasts
}

// loopCheckBranches builds the condition branches for a loop's check node.
// A loopWhileExpr on the loop node compiles to a custom-expression branch;
// otherwise the check falls back to the truthy state.condition flag. The
// empty else_out value makes it the default exit.
func loopCheckBranches(lnode Node) []any {
	ifValue := map[string]any{}
	if expr := loopWhileExpr(lnode.Data); expr != "" {
		ifValue = map[string]any{"type": "custom", "expr": expr}
	}
	return []any{
		map[string]any{"key": "if_out", "value": ifValue},
		map[string]any{"key": "else_out", "value": map[string]any{}},
	}
}

func loopWhileExpr(data map[string]any) string {
	scopes := []map[string]any{data}
	if inner, ok := data["data"].(map[string]any); ok {
		scopes = append(scopes, inner)
	}
	for _, scope := range scopes {
		if s, ok := scope["loopWhileExpr"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
