//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// Package flowgram compiles visual workflow documents ("flowgrams") authored
// in a drag-and-drop editor into executable trpc-agent-go StateGraphs. A
// flowgram is a bundle of one or more sheets whose nodes may nest composite
// blocks (loops, groups) and jump across sheets; the compiler flattens the
// whole document into a single flat graph and lowers each residual node into
// a graph.NodeFunc.
package flowgram

// Node kinds understood by the compiler. The set is closed; anything else
// falls back to a no-op builder with a warning.
const (
	KindStart       = "start"
	KindEnd         = "end"
	KindCode        = "code"
	KindBasic       = "basic"
	KindLLM         = "llm"
	KindHTTP        = "http"
	KindHTTPAPI     = "http-api"
	KindMCPTool     = "mcp-tool"
	KindTool        = "tool"
	KindBrowser     = "browser-automation"
	KindRAG         = "rag"
	KindChat        = "chat"
	KindPendEvent   = "pend-event"
	KindLoop        = "loop"
	KindGroup       = "group"
	KindCondition   = "condition"
	KindVariable    = "variable"
	KindEvent       = "event"
	KindComment     = "comment"
	KindSheetInputs = "sheet-inputs"
	KindSheetOutput = "sheet-outputs"
	KindSheetCall   = "sheet-call"
	KindDummy       = "dummy"
	KindBlockStart  = "block-start"
	KindBlockEnd    = "block-end"
)

// Document is a parsed flowgram: one or more sheets plus skill metadata.
// It is built once per compile call from persisted JSON and never mutated.
type Document struct {
	// SkillName is the human-facing skill name; it seeds debug file names.
	SkillName string `json:"skillName"`

	// Owner identifies the authoring user.
	Owner string `json:"owner,omitempty"`

	// Sheets holds all workflow sheets. The first sheet is the main sheet
	// and contains the entry point; other sheets are reachable only via
	// sheet-call jumps.
	Sheets []Sheet `json:"sheets"`
}

// Sheet is a named workflow inside a document bundle.
type Sheet struct {
	// Name is the sheet name used to qualify imported node ids.
	Name string `json:"name"`

	// ID is an optional editor-assigned sheet id; jump targets may reference
	// either the name or the id.
	ID string `json:"id,omitempty"`

	// Workflow is the sheet's node/edge graph.
	Workflow Workflow `json:"workFlow"`
}

// Workflow is a flat view over a single sheet (or, after flattening, the
// whole document): a node list and an edge list.
type Workflow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a single flowgram node. Composite kinds (loop, group) carry nested
// Blocks and internal Edges; Data is an opaque per-kind record (script
// source, prompt template, HTTP parameters, condition list, ...).
type Node struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`

	// Blocks are the nested child nodes of a composite node.
	Blocks []Node `json:"blocks,omitempty"`

	// Edges are the internal edges between Blocks of a composite node.
	Edges []Edge `json:"edges,omitempty"`
}

// Edge connects two nodes. Ports are string labels on condition outputs;
// when SourcePortID is empty the edge is unconditional.
type Edge struct {
	SourceNodeID string `json:"sourceNodeID"`
	TargetNodeID string `json:"targetNodeID"`
	SourcePortID string `json:"sourcePortID,omitempty"`
	TargetPortID string `json:"targetPortID,omitempty"`
}

// structuralSheetKinds are the per-sheet scaffolding kinds erased by the
// sheet flattener. The editor has historically emitted both hyphenated and
// snake_case spellings, so membership checks go through normalizeKind.
var structuralSheetKinds = map[string]bool{
	KindSheetInputs: true,
	KindSheetOutput: true,
	KindSheetCall:   true,
}

// normalizeKind folds legacy snake_case type spellings onto the canonical
// hyphenated kinds (sheet_inputs -> sheet-inputs, block_start -> block-start).
func normalizeKind(kind string) string {
	switch kind {
	case "sheet_inputs":
		return KindSheetInputs
	case "sheet_outputs":
		return KindSheetOutput
	case "sheet_call":
		return KindSheetCall
	case "block_start":
		return KindBlockStart
	case "block_end":
		return KindBlockEnd
	case "http_api":
		return KindHTTPAPI
	case "mcp_tool":
		return KindMCPTool
	case "browser_automation":
		return KindBrowser
	case "pend_event", "pend_event_node":
		return KindPendEvent
	case "rag_node":
		return KindRAG
	case "chat_node":
		return KindChat
	default:
		return kind
	}
}

// Kind returns the node's normalized kind.
func (n Node) Kind() string { return normalizeKind(n.Type) }

// IsStructural reports whether the node is per-sheet scaffolding that never
// survives flattening (sheet-inputs, sheet-outputs, sheet-call, start).
func (n Node) IsStructural() bool {
	k := n.Kind()
	return structuralSheetKinds[k] || k == KindStart
}

// IsPassthrough reports whether the node is a layout marker inside a
// composite block (block-start / block-end). Passthroughs are never executed.
func (n Node) IsPassthrough() bool {
	k := n.Kind()
	return k == KindBlockStart || k == KindBlockEnd
}

// clone returns a deep copy of the workflow. Pipeline stages are
// non-destructive on their inputs; each stage works on its own copy.
func (w Workflow) clone() Workflow {
	out := Workflow{
		Nodes: make([]Node, len(w.Nodes)),
		Edges: make([]Edge, len(w.Edges)),
	}
	copy(out.Edges, w.Edges)
	for i, n := range w.Nodes {
		out.Nodes[i] = n.clone()
	}
	return out
}

func (n Node) clone() Node {
	out := n
	out.Data = cloneMap(n.Data)
	if len(n.Blocks) > 0 {
		out.Blocks = make([]Node, len(n.Blocks))
		for i, b := range n.Blocks {
			out.Blocks[i] = b.clone()
		}
	}
	if len(n.Edges) > 0 {
		out.Edges = append([]Edge(nil), n.Edges...)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(vv)
		case []any:
			out[k] = cloneSlice(vv)
		default:
			out[k] = v
		}
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		switch vv := v.(type) {
		case map[string]any:
			out[i] = cloneMap(vv)
		case []any:
			out[i] = cloneSlice(vv)
		default:
			out[i] = v
		}
	}
	return out
}

// nodeIndex builds an id -> node lookup for a workflow.
func nodeIndex(w Workflow) map[string]Node {
	idx := make(map[string]Node, len(w.Nodes))
	for _, n := range w.Nodes {
		idx[n.ID] = n
	}
	return idx
}
