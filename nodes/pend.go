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
	RegisterBuilder("pend-event", buildPendEvent)
}

// buildPendEvent compiles a node that suspends the graph until an external
// event arrives. The interrupt carries the event name and timeout so the
// host application knows what it is waiting for; the resume value is the
// event payload and lands under result.event.
func buildPendEvent(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	eventName := getString(data, "event", "eventName", "event_name")
	if eventName == "" {
		return nil, fmt.Errorf("event name is required")
	}
	timeoutSecs, _ := getInt(data, "timeout")

	return func(ctx context.Context, state graph.State) (any, error) {
		payload, err := graph.Interrupt(ctx, state, "event:"+eventName, map[string]any{
			"node":    nodeID,
			"event":   eventName,
			"timeout": timeoutSecs,
		})
		if err != nil {
			return nil, err
		}
		return resultDelta(map[string]any{"event": payload}), nil
	}, nil
}
