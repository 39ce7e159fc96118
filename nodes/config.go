//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package nodes

// Node data as authored has drifted across editor versions: config may sit
// at the top level of data or nested one deep under data.data, and keys
// come in camelCase and snake_case flavors. The helpers below search both
// scopes with a caller-supplied key priority list.

func scopes(data map[string]any) []map[string]any {
	if data == nil {
		return nil
	}
	out := []map[string]any{data}
	if inner, ok := data["data"].(map[string]any); ok {
		out = append(out, inner)
	}
	return out
}

func getAny(data map[string]any, keys ...string) (any, bool) {
	for _, scope := range scopes(data) {
		for _, k := range keys {
			if v, ok := scope[k]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func getString(data map[string]any, keys ...string) string {
	if v, ok := getAny(data, keys...); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(data map[string]any, keys ...string) (int, bool) {
	if v, ok := getAny(data, keys...); ok {
		switch vv := v.(type) {
		case int:
			return vv, true
		case int64:
			return int(vv), true
		case float64:
			return int(vv), true
		}
	}
	return 0, false
}

func getMap(data map[string]any, keys ...string) map[string]any {
	if v, ok := getAny(data, keys...); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func getList(data map[string]any, keys ...string) []any {
	if v, ok := getAny(data, keys...); ok {
		if l, ok := v.([]any); ok {
			return l
		}
	}
	return nil
}
