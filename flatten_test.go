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

func edgeSet(w Workflow) map[string]Edge {
	out := make(map[string]Edge, len(w.Edges))
	for _, e := range w.Edges {
		out[e.SourceNodeID+"->"+e.TargetNodeID] = e
	}
	return out
}

func nodeIDs(w Workflow) []string {
	out := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestFlattenTwoSheetJump(t *testing.T) {
	main := Workflow{
		Nodes: []Node{
			{ID: "start_0", Type: KindStart},
			{ID: "a", Type: KindCode},
			{ID: "call_0", Type: KindSheetCall, Data: map[string]any{"nextSheet": "sub"}},
		},
		Edges: []Edge{
			{SourceNodeID: "start_0", TargetNodeID: "a"},
			{SourceNodeID: "a", TargetNodeID: "call_0"},
		},
	}
	sub := Workflow{
		Nodes: []Node{
			{ID: "start_0", Type: KindStart},
			{ID: "z", Type: KindCode},
		},
		Edges: []Edge{
			{SourceNodeID: "start_0", TargetNodeID: "z"},
		},
	}

	flat, redirect, entry := flattenSheets([]Sheet{
		{Name: "main", Workflow: main},
		{Name: "sub", Workflow: sub},
	})

	assert.Equal(t, "a", entry)
	assert.Equal(t, "sub__z", redirect["call_0"])
	assert.ElementsMatch(t, []string{"a", "sub__z"}, nodeIDs(flat))

	edges := edgeSet(flat)
	_, ok := edges["a->sub__z"]
	assert.True(t, ok, "edge into the jump must be redirected to the sub-sheet entry")
}

func TestFlattenKeyVariantsAndScan(t *testing.T) {
	sheetMap := map[string]Workflow{"sub": {}, "other": {}}

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{name: "camelCase key", data: map[string]any{"nextSheet": "sub"}, want: "sub"},
		{name: "snake_case key", data: map[string]any{"next_sheet": "sub"}, want: "sub"},
		{name: "nested under data", data: map[string]any{"data": map[string]any{"sheetName": "other"}}, want: "other"},
		{name: "recursive scalar scan", data: map[string]any{"meta": []any{map[string]any{"deep": "sub"}}}, want: "sub"},
		{name: "unknown sheet ignored", data: map[string]any{"nextSheet": "missing"}, want: ""},
		{name: "nil data", data: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractNextSheet(tt.data, sheetMap))
		})
	}
}

func TestFlattenUnresolvedTargetDropsEdge(t *testing.T) {
	main := Workflow{
		Nodes: []Node{
			{ID: "start_0", Type: KindStart},
			{ID: "a", Type: KindCode},
			{ID: "call_0", Type: KindSheetCall, Data: map[string]any{"nextSheet": "missing"}},
		},
		Edges: []Edge{
			{SourceNodeID: "start_0", TargetNodeID: "a"},
			{SourceNodeID: "a", TargetNodeID: "call_0"},
		},
	}

	flat, redirect, _ := flattenSheets([]Sheet{{Name: "main", Workflow: main}})
	flat = resolveResidualStructurals(flat, redirect, nil)

	assert.ElementsMatch(t, []string{"a"}, nodeIDs(flat))
	_, ok := edgeSet(flat)["a->call_0"]
	assert.False(t, ok, "edge into an unresolvable jump must be dropped")
}

func TestFlattenPreservesPorts(t *testing.T) {
	main := Workflow{
		Nodes: []Node{
			{ID: "start_0", Type: KindStart},
			{ID: "c", Type: KindCondition},
			{ID: "out_0", Type: KindSheetOutput, Data: map[string]any{"nextSheet": "sub"}},
		},
		Edges: []Edge{
			{SourceNodeID: "start_0", TargetNodeID: "c"},
			{SourceNodeID: "c", TargetNodeID: "out_0", SourcePortID: "if_0"},
		},
	}
	sub := Workflow{
		Nodes: []Node{
			{ID: "start_0", Type: KindStart},
			{ID: "z", Type: KindCode},
		},
		Edges: []Edge{
			{SourceNodeID: "start_0", TargetNodeID: "z"},
		},
	}

	flat, _, _ := flattenSheets([]Sheet{
		{Name: "main", Workflow: main},
		{Name: "sub", Workflow: sub},
	})

	edges := edgeSet(flat)
	e, ok := edges["c->sub__z"]
	require.True(t, ok)
	assert.Equal(t, "if_0", e.SourcePortID)
}

func TestFlattenSoleSecondaryEntryHeuristic(t *testing.T) {
	w := Workflow{
		Nodes: []Node{
			{ID: "a", Type: KindCode},
			{ID: "sub__z", Type: KindCode},
		},
		Edges: []Edge{
			{SourceNodeID: "a", TargetNodeID: "sheet-call_99"},
		},
	}

	out := resolveResidualStructurals(w, nil, map[string]string{"sub": "sub__z"})
	e, ok := edgeSet(out)["a->sub__z"]
	require.True(t, ok, "structural-looking target must be rewired to the sole secondary entry")
	assert.Equal(t, "", e.SourcePortID)
}
