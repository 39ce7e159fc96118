//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEdge(t *testing.T, w Workflow, src, tgt string) Edge {
	t.Helper()
	for _, e := range w.Edges {
		if e.SourceNodeID == src && e.TargetNodeID == tgt {
			return e
		}
	}
	t.Fatalf("edge %s -> %s not found", src, tgt)
	return Edge{}
}

func hasEdge(w Workflow, src, tgt string) bool {
	for _, e := range w.Edges {
		if e.SourceNodeID == src && e.TargetNodeID == tgt {
			return true
		}
	}
	return false
}

func TestLowerSingleLoop(t *testing.T) {
	w := Workflow{
		Nodes: []Node{
			{ID: "pre", Type: KindCode},
			{
				ID:   "L",
				Type: KindLoop,
				Blocks: []Node{
					{ID: "bs", Type: KindBlockStart},
					{ID: "b", Type: KindCode},
					{ID: "be", Type: KindBlockEnd},
				},
				Edges: []Edge{
					{SourceNodeID: "bs", TargetNodeID: "b"},
					{SourceNodeID: "b", TargetNodeID: "be"},
				},
			},
			{ID: "post", Type: KindEnd},
		},
		Edges: []Edge{
			{SourceNodeID: "pre", TargetNodeID: "L"},
			{SourceNodeID: "L", TargetNodeID: "post"},
		},
	}

	out := lowerLoops(w)

	assert.False(t, hasLoops(out))
	assert.ElementsMatch(t,
		[]string{"pre", "post", "b", "update_L_condition", "check_L_condition"},
		nodeIDs(out))

	assert.True(t, hasEdge(out, "pre", "update_L_condition"))
	assert.True(t, hasEdge(out, "update_L_condition", "check_L_condition"))
	assert.Equal(t, "if_out", findEdge(t, out, "check_L_condition", "b").SourcePortID)
	assert.Equal(t, "else_out", findEdge(t, out, "check_L_condition", "post").SourcePortID)
	assert.True(t, hasEdge(out, "b", "update_L_condition"), "body exit must loop back to update")
}

func TestLowerNestedLoops(t *testing.T) {
	inner := Node{
		ID:   "I",
		Type: KindLoop,
		Blocks: []Node{
			{ID: "b", Type: KindCode},
		},
	}
	w := Workflow{
		Nodes: []Node{
			{ID: "pre", Type: KindCode},
			{
				ID:     "O",
				Type:   KindLoop,
				Blocks: []Node{inner},
			},
			{ID: "post", Type: KindEnd},
		},
		Edges: []Edge{
			{SourceNodeID: "pre", TargetNodeID: "O"},
			{SourceNodeID: "O", TargetNodeID: "post"},
		},
	}

	out := lowerLoops(w)
	require.False(t, hasLoops(out))

	assert.True(t, hasEdge(out, "update_O_condition", "check_O_condition"))
	assert.Equal(t, "if_out", findEdge(t, out, "check_O_condition", "update_I_condition").SourcePortID)
	assert.True(t, hasEdge(out, "update_I_condition", "check_I_condition"))
	assert.Equal(t, "if_out", findEdge(t, out, "check_I_condition", "b").SourcePortID)
	assert.True(t, hasEdge(out, "b", "update_I_condition"))
	assert.Equal(t, "else_out", findEdge(t, out, "check_I_condition", "update_O_condition").SourcePortID)
	assert.Equal(t, "else_out", findEdge(t, out, "check_O_condition", "post").SourcePortID)
}

func TestLoopCheckBranches(t *testing.T) {
	t.Run("custom expression", func(t *testing.T) {
		lnode := Node{ID: "L", Type: KindLoop, Data: map[string]any{"loopWhileExpr": "counter < 3"}}
		branches := loopCheckBranches(lnode)
		require.Len(t, branches, 2)
		ifBranch := branches[0].(map[string]any)
		assert.Equal(t, "if_out", ifBranch["key"])
		assert.Equal(t,
			map[string]any{"type": "custom", "expr": "counter < 3"},
			ifBranch["value"])
	})
	t.Run("fallback to condition flag", func(t *testing.T) {
		branches := loopCheckBranches(Node{ID: "L", Type: KindLoop})
		require.Len(t, branches, 2)
		ifBranch := branches[0].(map[string]any)
		assert.Empty(t, ifBranch["value"])
	})
}

func TestLowerLoopsIdempotentOnLoopFree(t *testing.T) {
	w := Workflow{
		Nodes: []Node{{ID: "a", Type: KindCode}, {ID: "b", Type: KindCode}},
		Edges: []Edge{{SourceNodeID: "a", TargetNodeID: "b"}},
	}
	out := lowerLoops(w)
	assert.Equal(t, w.Nodes, out.Nodes)
	assert.Equal(t, w.Edges, out.Edges)
}
