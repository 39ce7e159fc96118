//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package registry

import (
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-agent-go/tool"
	"trpc.group/trpc-go/trpc-agent-go/tool/mcp"
)

// CreateMCPToolSet constructs an MCP ToolSet from the connection block of a
// workflow configuration. Supported transports are stdio, streamable_http
// and sse. An optional tool_filter list restricts the exposed tools.
func CreateMCPToolSet(config map[string]any) (tool.ToolSet, error) {
	transport, ok := config["transport"].(string)
	if !ok || transport == "" {
		return nil, fmt.Errorf("transport is required in MCP tool config")
	}

	connConfig := mcp.ConnectionConfig{
		Transport: transport,
	}

	timeout := 10 * time.Second
	if timeoutVal, ok := config["timeout"]; ok {
		switch v := timeoutVal.(type) {
		case float64:
			timeout = time.Duration(v) * time.Second
		case int:
			timeout = time.Duration(v) * time.Second
		}
	}
	connConfig.Timeout = timeout

	switch transport {
	case "stdio":
		command, ok := config["command"].(string)
		if !ok || command == "" {
			return nil, fmt.Errorf("command is required for stdio transport")
		}
		connConfig.Command = command
		if argsVal, ok := config["args"].([]any); ok {
			args := make([]string, 0, len(argsVal))
			for _, arg := range argsVal {
				if s, ok := arg.(string); ok {
					args = append(args, s)
				}
			}
			connConfig.Args = args
		}
	case "streamable_http", "sse":
		serverURL, ok := config["server_url"].(string)
		if !ok || serverURL == "" {
			return nil, fmt.Errorf("server_url is required for %s transport", transport)
		}
		connConfig.ServerURL = serverURL
		if headersVal, ok := config["headers"].(map[string]any); ok {
			headers := make(map[string]string)
			for k, v := range headersVal {
				if s, ok := v.(string); ok {
					headers[k] = s
				}
			}
			connConfig.Headers = headers
		}
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transport)
	}

	var opts []mcp.ToolSetOption
	if filterVal, ok := config["tool_filter"].([]any); ok {
		names := make([]string, 0, len(filterVal))
		for _, name := range filterVal {
			if s, ok := name.(string); ok {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			opts = append(opts, mcp.WithToolFilterFunc(tool.NewIncludeToolNamesFilter(names...)))
		}
	}

	return mcp.NewMCPToolSet(connConfig, opts...), nil
}
