//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package cel evaluates authoring-time boolean expressions against workflow
// state using CEL. Expressions must never abort a workflow: any parse,
// check, or runtime failure yields false.
package cel

import (
	"fmt"
	"regexp"

	celgo "github.com/google/cel-go/cel"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Eval compiles and runs expr with `state` and `attributes` bound as
// dynamic variables. Every key of state["attributes"] whose name is a
// valid identifier is additionally bound as a bare name, so authors can
// write `data_ready` instead of `attributes["data_ready"]`. The reserved
// names are never shadowed.
func Eval(expr string, state map[string]any) (any, error) {
	if state == nil {
		state = map[string]any{}
	}
	attributes, _ := state["attributes"].(map[string]any)
	if attributes == nil {
		attributes = map[string]any{}
	}

	opts := []celgo.EnvOption{
		celgo.Variable("state", celgo.DynType),
		celgo.Variable("attributes", celgo.DynType),
	}
	input := map[string]any{
		"state":      state,
		"attributes": attributes,
	}
	for k, v := range attributes {
		if k == "state" || k == "attributes" || !identPattern.MatchString(k) {
			continue
		}
		opts = append(opts, celgo.Variable(k, celgo.DynType))
		input[k] = v
	}

	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build program for %q: %w", expr, err)
	}
	out, _, err := prg.Eval(input)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expr, err)
	}
	return out.Value(), nil
}

// EvalBool evaluates expr and folds the result to a boolean. Non-boolean
// results use truthiness (non-zero, non-empty). Failures log at debug
// level and report false.
func EvalBool(expr string, state map[string]any) bool {
	v, err := Eval(expr, state)
	if err != nil {
		log.Debugf("flowgram/cel: expression %q failed: %v", expr, err)
		return false
	}
	return Truthy(v)
}

// Truthy applies Python-style truthiness to an evaluation result.
func Truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int:
		return vv != 0
	case int64:
		return vv != 0
	case uint64:
		return vv != 0
	case float64:
		return vv != 0
	case []any:
		return len(vv) > 0
	case map[string]any:
		return len(vv) > 0
	case map[any]any:
		return len(vv) > 0
	default:
		return true
	}
}
