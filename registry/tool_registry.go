//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package registry

import (
	"context"
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/tool"
)

// ToolRegistry is a thread-safe registry of tool instances referenced by
// name from mcp-tool and tool nodes.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]tool.Tool
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]tool.Tool)}
}

// Register registers a tool under name. Registering the same name twice is
// an error.
func (r *ToolRegistry) Register(name string, t tool.Tool) error {
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// MustRegister registers a tool and panics on failure.
func (r *ToolRegistry) MustRegister(name string, t tool.Tool) {
	if err := r.Register(name, t); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (tool.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// List returns all registered tool names.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// RegisterToolSet resolves every tool a toolset exposes and registers each
// under its declared name. Name clashes are logged and skipped so a partial
// toolset still loads.
func (r *ToolRegistry) RegisterToolSet(ctx context.Context, ts tool.ToolSet) {
	if ts == nil {
		return
	}
	for _, t := range ts.Tools(ctx) {
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			log.Warnf("registry: skipping tool with empty declaration")
			continue
		}
		if err := r.Register(decl.Name, t); err != nil {
			log.Warnf("registry: %v", err)
		}
	}
}
