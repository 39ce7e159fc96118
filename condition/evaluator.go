//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package condition evaluates the structured operator records carried by
// legacy condition-node branches: conjunctive lists of
// {left, operator, right} over constant and state-reference operands.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

// Operand is one side of a comparison. Type "constant" carries a literal
// in Content; type "ref" carries a path into state as a list of keys.
type Operand struct {
	Type    string `json:"type" mapstructure:"type"`
	Content any    `json:"content" mapstructure:"content"`
}

// Rule is a single comparison. Right is ignored by the unary operators.
type Rule struct {
	Left     Operand `json:"left" mapstructure:"left"`
	Operator string  `json:"operator" mapstructure:"operator"`
	Right    Operand `json:"right" mapstructure:"right"`
}

// Canonical operator names. Authors' documents also carry snake_case
// variants; normalizeOperator folds both spellings.
const (
	OpEqual              = "equal"
	OpNotEqual           = "not equal"
	OpIsTrue             = "is true"
	OpIsFalse            = "is false"
	OpIn                 = "in"
	OpNotIn              = "not in"
	OpIsEmpty            = "is empty"
	OpIsNotEmpty         = "is not empty"
	OpLargerThan         = "larger than"
	OpSmallerThan        = "smaller than"
	OpLargerOrEqualThan  = "larger or equal than"
	OpSmallerOrEqualThan = "smaller or equal than"
)

func normalizeOperator(op string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(op), "_", " "))
}

// RuleFromMap decodes a raw branch value (or one element of a branch value
// list) into a Rule.
func RuleFromMap(m map[string]any) Rule {
	var r Rule
	if left, ok := m["left"].(map[string]any); ok {
		r.Left = operandFromMap(left)
	}
	if right, ok := m["right"].(map[string]any); ok {
		r.Right = operandFromMap(right)
	}
	if op, ok := m["operator"].(string); ok {
		r.Operator = op
	}
	return r
}

func operandFromMap(m map[string]any) Operand {
	o := Operand{Content: m["content"]}
	if t, ok := m["type"].(string); ok {
		o.Type = t
	}
	return o
}

// EvaluateAll reports whether every rule holds. An empty list holds
// vacuously.
func EvaluateAll(rules []Rule, state map[string]any) bool {
	for _, r := range rules {
		if !Evaluate(r, state) {
			return false
		}
	}
	return true
}

// Evaluate applies a single rule against state. Unknown operators and
// resolution failures report false; a condition branch must never abort
// the workflow.
func Evaluate(r Rule, state map[string]any) bool {
	left := Resolve(r.Left, state)
	right := Resolve(r.Right, state)

	switch normalizeOperator(r.Operator) {
	case OpEqual:
		return looseEqual(left, right)
	case OpNotEqual:
		return !looseEqual(left, right)
	case OpIsTrue:
		return truthy(left)
	case OpIsFalse:
		return !truthy(left)
	case OpIn:
		return contains(right, left)
	case OpNotIn:
		return !contains(right, left)
	case OpIsEmpty:
		return isEmpty(left)
	case OpIsNotEmpty:
		return !isEmpty(left)
	case OpLargerThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a > b })
	case OpSmallerThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a < b })
	case OpLargerOrEqualThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a >= b })
	case OpSmallerOrEqualThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a <= b })
	default:
		log.Warnf("flowgram/condition: unknown operator %q", r.Operator)
		return false
	}
}

// Resolve materializes an operand value. Constants pass through; refs walk
// their path into state via ExtractRef.
func Resolve(o Operand, state map[string]any) any {
	if o.Type == "ref" {
		path := toPath(o.Content)
		return ExtractRef(state, path)
	}
	return o.Content
}

func toPath(content any) []string {
	switch c := content.(type) {
	case []string:
		return c
	case []any:
		out := make([]string, 0, len(c))
		for _, v := range c {
			out = append(out, fmt.Sprint(v))
		}
		return out
	case string:
		return []string{c}
	default:
		return nil
	}
}

// ExtractRef walks a key path into state. Editor refs are often prefixed
// with the producing node's id (e.g. ["start_0", "condition"]); when the
// first key is absent at the top level the walk retries without it, and
// then under state["attributes"].
func ExtractRef(state map[string]any, path []string) any {
	if len(path) == 0 {
		return nil
	}
	if v, ok := walk(state, path); ok {
		return v
	}
	if len(path) > 1 {
		if v, ok := walk(state, path[1:]); ok {
			return v
		}
	}
	if attrs, ok := state["attributes"].(map[string]any); ok {
		if v, ok := walk(attrs, path); ok {
			return v
		}
		if len(path) > 1 {
			if v, ok := walk(attrs, path[1:]); ok {
				return v
			}
		}
	}
	return nil
}

func walk(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, key := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func looseEqual(a, b any) bool {
	if fa, oka := toFloat(a); oka {
		if fb, okb := toFloat(b); okb {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != "" && !strings.EqualFold(vv, "false")
	case []any:
		return len(vv) > 0
	case map[string]any:
		return len(vv) > 0
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func isEmpty(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case []any:
		return len(vv) == 0
	case map[string]any:
		return len(vv) == 0
	default:
		return false
	}
}

func contains(container, item any) bool {
	switch c := container.(type) {
	case string:
		return strings.Contains(c, fmt.Sprint(item))
	case []any:
		for _, v := range c {
			if looseEqual(v, item) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := c[fmt.Sprint(item)]
		return ok
	default:
		return false
	}
}

func compareNumeric(a, b any, cmp func(float64, float64) bool) bool {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if !oka || !okb {
		return false
	}
	return cmp(fa, fb)
}

func toFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case float32:
		return float64(vv), true
	case float64:
		return vv, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		return f, err == nil
	case bool:
		if vv {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
