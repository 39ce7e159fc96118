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
	"trpc.group/trpc-go/trpc-agent-go/model"
)

func init() {
	RegisterBuilder("llm", buildLLM)
}

// buildLLM compiles an LLM invocation node. The prompt is a template
// rendered against state at run time; the model is resolved by name from
// the registry at build time so a missing model fails the compile, not the
// run.
func buildLLM(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	modelName := getString(data, "model", "modelName", "model_name", "modelId", "model_id")
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if bctx == nil || bctx.Models == nil {
		return nil, fmt.Errorf("no model registry configured")
	}
	llm, err := bctx.Models.Get(modelName)
	if err != nil {
		return nil, err
	}

	promptTmpl := getString(data, "prompt", "promptTemplate", "prompt_template", "userPrompt", "user_prompt")
	systemTmpl := getString(data, "systemPrompt", "system_prompt", "instruction")

	var temperature *float64
	if v, ok := getAny(data, "temperature"); ok {
		if f, ok := v.(float64); ok && f > 0 {
			temperature = &f
		}
	}
	var maxTokens *int
	if n, ok := getInt(data, "maxTokens", "max_tokens"); ok && n > 0 {
		maxTokens = &n
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		prompt := Render(promptTmpl, state)
		if prompt == "" {
			if input, ok := state[graph.StateKeyUserInput].(string); ok {
				prompt = input
			}
		}

		var messages []model.Message
		if systemTmpl != "" {
			messages = append(messages, model.NewSystemMessage(Render(systemTmpl, state)))
		}
		messages = append(messages, model.NewUserMessage(prompt))

		request := &model.Request{Messages: messages}
		request.Temperature = temperature
		request.MaxTokens = maxTokens

		responseChan, err := llm.GenerateContent(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}
		var final *model.Response
		for response := range responseChan {
			final = response
			if response.Done {
				break
			}
		}
		if final == nil {
			return nil, fmt.Errorf("no response from model %q", modelName)
		}
		if final.Error != nil {
			return nil, fmt.Errorf("model %q returned error: %v", modelName, final.Error)
		}
		if len(final.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response from model %q", modelName)
		}

		content := final.Choices[0].Message.Content
		delta := resultDelta(map[string]any{"output": content})
		delta[graph.StateKeyLastResponse] = content
		delta[graph.StateKeyNodeResponses] = map[string]any{nodeID: content}
		delta[graph.StateKeyMessages] = []model.Message{final.Choices[0].Message}
		return delta, nil
	}, nil
}
