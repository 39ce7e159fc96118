//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

// stripGroups erases group containers from the workflow. Groups are purely
// visual: any blocks a group still carries are promoted to peers and its
// internal edges are inlined unchanged, then the shell is removed. Edges
// crossing the group boundary already reference the inner nodes directly,
// so they survive as-is.
func stripGroups(w Workflow) Workflow {
	out := Workflow{
		Nodes: make([]Node, 0, len(w.Nodes)),
		Edges: append([]Edge(nil), w.Edges...),
	}
	for _, n := range w.Nodes {
		if n.Kind() != KindGroup {
			out.Nodes = append(out.Nodes, n)
			continue
		}
		for _, b := range n.Blocks {
			out.Nodes = append(out.Nodes, b.clone())
		}
		out.Edges = append(out.Edges, n.Edges...)
	}
	return out
}
