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
	"io"
	"net/http"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/graph"
)

func init() {
	RegisterBuilder("http", buildHTTP)
	RegisterBuilder("http-api", buildHTTP)
}

// buildHTTP compiles an outbound HTTP call. URL, body and header values are
// templates rendered against state at run time.
func buildHTTP(data map[string]any, nodeID string, bctx *BuildContext) (graph.NodeFunc, error) {
	urlTmpl := getString(data, "url", "urlTemplate", "url_template")
	if urlTmpl == "" {
		return nil, fmt.Errorf("url is required")
	}
	method := strings.ToUpper(getString(data, "method"))
	if method == "" {
		method = http.MethodGet
	}
	bodyTmpl := getString(data, "body", "bodyTemplate", "body_template")
	headers := getMap(data, "headers")

	var services *Services
	if bctx != nil {
		services = bctx.Services
	}

	return func(ctx context.Context, state graph.State) (any, error) {
		var bodyReader io.Reader
		if bodyTmpl != "" {
			bodyReader = strings.NewReader(Render(bodyTmpl, state))
		}
		req, err := http.NewRequestWithContext(ctx, method, Render(urlTmpl, state), bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create HTTP request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, Render(fmt.Sprint(v), state))
		}

		resp, err := services.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read HTTP response body: %w", err)
		}

		respHeaders := make(map[string]any, len(resp.Header))
		for k, values := range resp.Header {
			if len(values) == 1 {
				respHeaders[k] = values[0]
			} else {
				respHeaders[k] = values
			}
		}

		return resultDelta(map[string]any{
			"status_code":      resp.StatusCode,
			"response_body":    string(respBytes),
			"response_headers": respHeaders,
		}), nil
	}, nil
}
