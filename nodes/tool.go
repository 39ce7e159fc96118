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
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-go/graph"
	"trpc.group/trpc-go/trpc-agent-go/tool"
)

func init() {
	RegisterBuilder("mcp-tool", buildTool)
	RegisterBuilder("tool", buildTool)
}

// buildTool compiles a tool invocation node. The tool is resolved by name
// from the registry at build time; arguments are a map whose string values
// are templates rendered against state per call.
func buildTool(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	toolName := getString(data, "tool", "toolName", "tool_name", "toolId", "tool_id")
	if toolName == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if bctx == nil || bctx.Tools == nil {
		return nil, fmt.Errorf("no tool registry configured")
	}
	t, err := bctx.Tools.Get(toolName)
	if err != nil {
		return nil, err
	}
	callable, ok := t.(tool.CallableTool)
	if !ok {
		return nil, fmt.Errorf("tool %q is not callable", toolName)
	}

	argTemplates := getMap(data, "args", "arguments", "params")

	return func(ctx context.Context, state graph.State) (any, error) {
		args := make(map[string]any, len(argTemplates))
		for name, raw := range argTemplates {
			if s, ok := raw.(string); ok {
				args[name] = Render(s, state)
				continue
			}
			args[name] = raw
		}
		payload, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal tool arguments: %w", err)
		}
		result, err := callable.Call(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("tool %q call failed: %w", toolName, err)
		}
		return resultDelta(map[string]any{"tool_output": result}), nil
	}, nil
}
