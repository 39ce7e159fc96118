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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-go/graph"
)

func conditionData(branches ...map[string]any) map[string]any {
	raw := make([]any, len(branches))
	for i, b := range branches {
		raw[i] = b
	}
	return map[string]any{"conditions": raw}
}

func TestParseBranchesSortOrder(t *testing.T) {
	data := conditionData(
		map[string]any{"key": "else_2", "value": map[string]any{}},
		map[string]any{"key": "elif_1", "value": map[string]any{}},
		map[string]any{"key": "if_0", "value": map[string]any{}},
		map[string]any{"key": "if_3", "value": map[string]any{}},
	)
	branches := parseBranches(data)
	require.Len(t, branches, 4)

	keys := make([]string, len(branches))
	for i, b := range branches {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"if_0", "if_3", "elif_1", "else_2"}, keys)
}

func TestSelectorThreeBranches(t *testing.T) {
	branches := parseBranches(conditionData(
		map[string]any{"key": "if_0", "value": map[string]any{"type": "custom", "expr": "x > 0"}},
		map[string]any{"key": "elif_1", "value": map[string]any{"type": "custom", "expr": "x < 0"}},
		map[string]any{"key": "else_2", "value": map[string]any{}},
	))
	selector := buildSelector("c", branches, []string{"if_0", "elif_1", "else_2"})

	tests := []struct {
		name string
		x    int
		want string
	}{
		{name: "positive selects if", x: 5, want: "if_0"},
		{name: "negative selects elif", x: -3, want: "elif_1"},
		{name: "zero selects else", x: 0, want: "else_2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := graph.State{"attributes": map[string]any{"x": tt.x}}
			got, err := selector(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectorDefaultConditionFlag(t *testing.T) {
	branches := parseBranches(conditionData(
		map[string]any{"key": "if_out", "value": map[string]any{}},
		map[string]any{"key": "else_out", "value": map[string]any{}},
	))
	selector := buildSelector("check", branches, []string{"if_out", "else_out"})

	got, err := selector(context.Background(), graph.State{"condition": true})
	require.NoError(t, err)
	assert.Equal(t, "if_out", got)

	got, err = selector(context.Background(), graph.State{"condition": false})
	require.NoError(t, err)
	assert.Equal(t, "else_out", got)

	// Fallback to attributes.condition when the top-level flag is absent.
	got, err = selector(context.Background(), graph.State{
		"attributes": map[string]any{"condition": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "if_out", got)
}

func TestSelectorLegacyRuleList(t *testing.T) {
	branches := parseBranches(conditionData(
		map[string]any{"key": "if_0", "value": []any{
			map[string]any{
				"left":     map[string]any{"type": "ref", "content": []any{"attributes", "count"}},
				"operator": "Larger Than",
				"right":    map[string]any{"type": "constant", "content": 3},
			},
		}},
		map[string]any{"key": "else_1", "value": map[string]any{}},
	))
	selector := buildSelector("c", branches, []string{"if_0", "else_1"})

	got, err := selector(context.Background(), graph.State{
		"attributes": map[string]any{"count": 10},
	})
	require.NoError(t, err)
	assert.Equal(t, "if_0", got)

	got, err = selector(context.Background(), graph.State{
		"attributes": map[string]any{"count": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "else_1", got)
}

func TestSelectorNoElseFallsBackToSecondPort(t *testing.T) {
	branches := parseBranches(conditionData(
		map[string]any{"key": "if_0", "value": map[string]any{"type": "custom", "expr": "false"}},
	))
	selector := buildSelector("c", branches, []string{"if_0", "other"})

	got, err := selector(context.Background(), graph.State{})
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestSelectorLeftRefTruthiness(t *testing.T) {
	branches := parseBranches(conditionData(
		map[string]any{"key": "if_0", "value": map[string]any{
			"left": map[string]any{"type": "ref", "content": []any{"start_0", "condition"}},
		}},
		map[string]any{"key": "else_1", "value": map[string]any{}},
	))
	selector := buildSelector("c", branches, []string{"if_0", "else_1"})

	got, err := selector(context.Background(), graph.State{"condition": "yes"})
	require.NoError(t, err)
	assert.Equal(t, "if_0", got, "node-id prefixed refs must fall through to the bare key")
}
