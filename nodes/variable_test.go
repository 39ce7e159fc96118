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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-go/graph"
)

func variableData(assigns ...map[string]any) map[string]any {
	raw := make([]any, 0, len(assigns))
	for _, a := range assigns {
		raw = append(raw, a)
	}
	return map[string]any{"assignments": raw}
}

func TestVariableNodeAssignments(t *testing.T) {
	fn, err := Build("variable", variableData(
		map[string]any{"target": "attributes.city", "value": "Shenzhen"},
		map[string]any{"target": "attributes.geo.lat", "value": 22.5},
	), "var_0", nil)
	require.NoError(t, err)

	state := graph.State{"attributes": map[string]any{"city": "old", "keep": true}}
	out, err := fn(context.Background(), state)
	require.NoError(t, err)

	delta, ok := out.(graph.State)
	require.True(t, ok)
	attrs, ok := delta["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Shenzhen", attrs["city"])
	assert.Equal(t, true, attrs["keep"], "existing keys are carried into the delta")
	geo, ok := attrs["geo"].(map[string]any)
	require.True(t, ok, "intermediate maps are created on demand")
	assert.Equal(t, 22.5, geo["lat"])

	// The input state itself is not mutated.
	assert.Equal(t, "old", state["attributes"].(map[string]any)["city"])
}

func TestVariableNodeTopLevelTarget(t *testing.T) {
	fn, err := Build("variable", variableData(
		map[string]any{"target": "condition", "value": false},
	), "var_0", nil)
	require.NoError(t, err)

	out, err := fn(context.Background(), graph.State{})
	require.NoError(t, err)
	delta := out.(graph.State)
	assert.Equal(t, false, delta["condition"])
}

func TestVariableNodeBadAssignmentsAreSkipped(t *testing.T) {
	fn, err := Build("variable", variableData(
		map[string]any{"target": "", "value": 1},
		map[string]any{"target": "attributes.scalar.sub", "value": 2},
		map[string]any{"target": "attributes.ok", "value": 3},
	), "var_0", nil)
	require.NoError(t, err)

	state := graph.State{"attributes": map[string]any{"scalar": "not a map"}}
	out, err := fn(context.Background(), state)
	require.NoError(t, err, "variable nodes always succeed")

	delta := out.(graph.State)
	attrs, ok := delta["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, attrs["ok"])
	_, hasEmpty := delta[""]
	assert.False(t, hasEmpty)
}
