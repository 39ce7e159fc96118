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
	"fmt"

	"trpc.group/trpc-go/trpc-agent-go/graph"
)

func init() {
	RegisterBuilder("browser-automation", buildBrowser)
}

// buildBrowser compiles a browser-automation node against the injected
// Browser collaborator. The node carries either a script or an action
// list; both are forwarded as-is.
func buildBrowser(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	script := getString(data, "script", "content")
	rawActions := getList(data, "actions", "steps")
	actions := make([]map[string]any, 0, len(rawActions))
	for _, a := range rawActions {
		if m, ok := a.(map[string]any); ok {
			actions = append(actions, m)
		}
	}
	if script == "" && len(actions) == 0 {
		return nil, fmt.Errorf("browser node needs a script or an action list")
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		if bctx == nil || bctx.Services == nil || bctx.Services.Browser == nil {
			return nil, fmt.Errorf("no browser service configured")
		}
		artifacts, err := bctx.Services.Browser.Run(ctx, Render(script, state), actions)
		if err != nil {
			return nil, fmt.Errorf("browser run failed: %w", err)
		}
		return resultDelta(map[string]any{"browser": artifacts}), nil
	}, nil
}
