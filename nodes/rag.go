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

const defaultRAGTopK = 5

func init() {
	RegisterBuilder("rag", buildRAG)
}

// buildRAG compiles a retrieval node against the injected Retriever.
func buildRAG(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	queryTmpl := getString(data, "query", "queryTemplate", "query_template")
	if queryTmpl == "" {
		return nil, fmt.Errorf("query is required")
	}
	topK := defaultRAGTopK
	if k, ok := getInt(data, "topK", "top_k"); ok && k > 0 {
		topK = k
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		if bctx == nil || bctx.Services == nil || bctx.Services.Retriever == nil {
			return nil, fmt.Errorf("no retriever service configured")
		}
		chunks, err := bctx.Services.Retriever.Retrieve(ctx, Render(queryTmpl, state), topK)
		if err != nil {
			return nil, fmt.Errorf("retrieval failed: %w", err)
		}
		return resultDelta(map[string]any{"chunks": chunks}), nil
	}, nil
}
