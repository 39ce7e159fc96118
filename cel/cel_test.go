//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBoolNeverPanics(t *testing.T) {
	// Any expression against a frozen empty state must yield a boolean
	// without raising, malformed ones included.
	exprs := []string{
		"",
		"true",
		"1 +",
		"nonsense_name",
		"state.missing.deep",
		"attributes['x'] > 3",
		"import os",
		"))((",
	}
	for _, expr := range exprs {
		assert.NotPanics(t, func() {
			EvalBool(expr, map[string]any{})
		}, "expr %q", expr)
	}
	assert.False(t, EvalBool("1 +", map[string]any{}))
	assert.True(t, EvalBool("true", nil))
}

func TestEvalBareAttributeNames(t *testing.T) {
	state := map[string]any{
		"attributes": map[string]any{
			"data_ready": true,
			"x":          5,
			"not-an-ident": "ignored",
		},
	}
	assert.True(t, EvalBool("data_ready", state))
	assert.True(t, EvalBool("x > 3", state))
	assert.False(t, EvalBool("x > 10", state))
	// Hyphenated keys stay reachable through the attributes map.
	assert.True(t, EvalBool(`attributes["not-an-ident"] == "ignored"`, state))
}

func TestEvalReservedNamesNotShadowed(t *testing.T) {
	state := map[string]any{
		"condition": true,
		"attributes": map[string]any{
			"state":      "shadow attempt",
			"attributes": "shadow attempt",
		},
	}
	assert.True(t, EvalBool("state.condition == true", state))
}

func TestEvalValue(t *testing.T) {
	v, err := Eval("1 + 2", map[string]any{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{name: "nil", in: nil, want: false},
		{name: "false", in: false, want: false},
		{name: "empty string", in: "", want: false},
		{name: "string", in: "x", want: true},
		{name: "zero", in: int64(0), want: false},
		{name: "number", in: 3.5, want: true},
		{name: "empty list", in: []any{}, want: false},
		{name: "list", in: []any{1}, want: true},
		{name: "empty map", in: map[string]any{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.in))
		})
	}
}
