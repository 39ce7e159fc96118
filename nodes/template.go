//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package nodes

import (
	"fmt"
	"regexp"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/graph"
)

var templateVarPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render interpolates {{...}} variables in tmpl against state. Supported
// forms are {{state.key.sub}}, {{attributes.key}}, {{nodes.id.key}} and a
// bare {{key}} which resolves against the top level and then attributes.
// Templates are best effort: unresolved variables render as empty strings.
func Render(tmpl string, state graph.State) string {
	if tmpl == "" || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return templateVarPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		matches := templateVarPattern.FindStringSubmatch(m)
		if len(matches) != 2 {
			return ""
		}
		expr := matches[1]
		parts := strings.Split(expr, ".")

		switch parts[0] {
		case "state":
			if v, ok := lookupNested(map[string]any(state), parts[1:]); ok {
				return fmt.Sprint(v)
			}
			return ""
		case "attributes":
			if attrs, ok := state["attributes"].(map[string]any); ok {
				if v, ok := lookupNested(attrs, parts[1:]); ok {
					return fmt.Sprint(v)
				}
			}
			return ""
		case "nodes":
			if len(parts) < 3 {
				return ""
			}
			if raw, ok := state[graph.StateKeyNodeResponses].(map[string]any); ok {
				if out, ok := raw[parts[1]]; ok {
					if len(parts) == 3 && parts[2] == "output" {
						return fmt.Sprint(out)
					}
					if v, ok := lookupNested(out, parts[2:]); ok {
						return fmt.Sprint(v)
					}
				}
			}
			return ""
		default:
			if v, ok := lookupNested(map[string]any(state), parts); ok {
				return fmt.Sprint(v)
			}
			if attrs, ok := state["attributes"].(map[string]any); ok {
				if v, ok := lookupNested(attrs, parts); ok {
					return fmt.Sprint(v)
				}
			}
			return ""
		}
	})
}

// lookupNested walks a map path. Only map[string]any nesting is supported;
// that covers JSON-decoded documents.
func lookupNested(root any, path []string) (any, bool) {
	if len(path) == 0 {
		return root, root != nil
	}
	current := root
	for _, part := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
