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
	RegisterBuilder("chat", buildChat)
}

// buildChat compiles a chat-message node against the injected ChatPeer.
func buildChat(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	target := getString(data, "target", "peer", "to")
	contentTmpl := getString(data, "content", "message", "contentTemplate", "content_template")
	if contentTmpl == "" {
		return nil, fmt.Errorf("message content is required")
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		if bctx == nil || bctx.Services == nil || bctx.Services.ChatPeer == nil {
			return nil, fmt.Errorf("no chat peer service configured")
		}
		ack, err := bctx.Services.ChatPeer.Send(ctx, target, Render(contentTmpl, state))
		if err != nil {
			return nil, fmt.Errorf("chat send failed: %w", err)
		}
		return resultDelta(map[string]any{"ack": ack}), nil
	}, nil
}
