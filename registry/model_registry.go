//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package registry holds the model and tool instances that workflow nodes
// reference by name. Instances are registered at application startup;
// documents only ever carry names.
package registry

import (
	"fmt"
	"sync"

	"trpc.group/trpc-go/trpc-agent-go/model"
)

// ModelRegistry manages LLM model instances keyed by the name workflow
// authors use in node data.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]model.Model
}

// NewModelRegistry creates an empty model registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{models: make(map[string]model.Model)}
}

// Register registers a model instance under name.
//
// Example:
//
//	registry.Register("gpt-4o-mini", openai.New("gpt-4o-mini"))
func (r *ModelRegistry) Register(name string, m model.Model) error {
	if name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if m == nil {
		return fmt.Errorf("model instance cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model %q already registered", name)
	}
	r.models[name] = m
	return nil
}

// MustRegister registers a model and panics on failure. For init code
// where a missing model is fatal.
func (r *ModelRegistry) MustRegister(name string, m model.Model) {
	if err := r.Register(name, m); err != nil {
		panic(err)
	}
}

// Get retrieves a model by name.
func (r *ModelRegistry) Get(name string) (model.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, exists := r.models[name]
	if !exists {
		return nil, fmt.Errorf("model %q not found in registry", name)
	}
	return m, nil
}

// Has reports whether name is registered.
func (r *ModelRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.models[name]
	return exists
}

// List returns all registered model names.
func (r *ModelRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}
