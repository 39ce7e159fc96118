//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import "errors"

// ErrMalformedDocument is returned when the top-level document shape is not
// usable at all. Everything past this point is best-effort: unknown node
// kinds, unresolved sheet targets and dangling edges are logged and skipped
// so that a single malformed branch never prevents the rest of the graph
// from compiling.
var ErrMalformedDocument = errors.New("flowgram: malformed document")
