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
	"time"

	"trpc.group/trpc-go/trpc-agent-go/codeexecutor"
	"trpc.group/trpc-go/trpc-agent-go/codeexecutor/local"
	"trpc.group/trpc-go/trpc-agent-go/graph"
)

const defaultCodeTimeout = 30 * time.Second

func init() {
	RegisterBuilder("code", buildCode)
	RegisterBuilder("basic", buildCode)
}

// buildCode compiles a script node. The synthetic loop-control node
// injected by loop lowering carries no user script and runs the built-in
// counter updater instead.
func buildCode(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	if synthetic, _ := getAny(data, "loopSynthetic"); synthetic == true {
		return loopCounterFunc(), nil
	}

	script := getMap(data, "script")
	code := ""
	language := "python"
	if script != nil {
		if s, ok := script["content"].(string); ok {
			code = s
		}
		if l, ok := script["language"].(string); ok && l != "" {
			language = l
		}
	}
	if code == "" {
		code = getString(data, "code", "content")
	}
	if code == "" {
		return nil, fmt.Errorf("script content is empty")
	}

	timeout := defaultCodeTimeout
	if secs, ok := getInt(data, "timeout"); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	executor := local.New(
		local.WithTimeout(timeout),
		local.WithCleanTempFiles(true),
	)

	return func(ctx context.Context, state graph.State) (any, error) {
		input := codeexecutor.CodeExecutionInput{
			CodeBlocks: []codeexecutor.CodeBlock{
				{Code: code, Language: language},
			},
			ExecutionID: fmt.Sprintf("%s-%d", nodeID, time.Now().UnixNano()),
		}
		result, err := executor.ExecuteCode(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("code execution failed: %w", err)
		}
		return resultDelta(map[string]any{
			"output":       result.Output,
			"output_files": result.OutputFiles,
		}), nil
	}, nil
}

// loopCounterFunc seeds result.counter on first entry and advances it on
// every revisit, so loop conditions have an iteration count to look at.
func loopCounterFunc() graph.NodeFunc {
	return func(ctx context.Context, state graph.State) (any, error) {
		counter := 0
		if res, ok := state["result"].(map[string]any); ok {
			switch c := res["counter"].(type) {
			case int:
				counter = c + 1
			case float64:
				counter = int(c) + 1
			}
		}
		return resultDelta(map[string]any{"counter": counter}), nil
	}
}
