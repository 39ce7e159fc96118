//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"fmt"
	"reflect"

	"trpc.group/trpc-go/trpc-agent-go/graph"
	"trpc.group/trpc-go/trpc-agent-go/log"

	"trpc.group/trpc-go/trpc-agent-go/flowgram/breakpoint"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/nodes"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/registry"
)

// Compiler flattens a flowgram document and registers the result with the
// graph runtime builder. The same Compiler can compile any number of
// documents; each Compile call is independent.
type Compiler struct {
	models      *registry.ModelRegistry
	tools       *registry.ToolRegistry
	breakpoints *breakpoint.Manager
	services    *nodes.Services
	debug       *Dumper
}

// NewCompiler creates a compiler with empty registries and no debug output.
func NewCompiler() *Compiler {
	return &Compiler{
		models: registry.NewModelRegistry(),
		tools:  registry.NewToolRegistry(),
	}
}

// WithModelRegistry sets the model registry used to resolve llm nodes.
func (c *Compiler) WithModelRegistry(models *registry.ModelRegistry) *Compiler {
	c.models = models
	return c
}

// WithToolRegistry sets the tool registry used to resolve tool nodes.
func (c *Compiler) WithToolRegistry(tools *registry.ToolRegistry) *Compiler {
	c.tools = tools
	return c
}

// WithBreakpoints attaches a breakpoint manager consulted by every
// compiled node.
func (c *Compiler) WithBreakpoints(bp *breakpoint.Manager) *Compiler {
	c.breakpoints = bp
	return c
}

// WithServices injects the external collaborators node callables use.
func (c *Compiler) WithServices(s *nodes.Services) *Compiler {
	c.services = s
	return c
}

// WithDebugDumper enables per-stage debug dumps.
func (c *Compiler) WithDebugDumper(d *Dumper) *Compiler {
	c.debug = d
	return c
}

// ModelRegistry returns the model registry used by the compiler.
func (c *Compiler) ModelRegistry() *registry.ModelRegistry { return c.models }

// ToolRegistry returns the tool registry used by the compiler.
func (c *Compiler) ToolRegistry() *registry.ToolRegistry { return c.tools }

// Compile flattens doc and emits it into a runtime builder. The returned
// StateGraph is ready for its own Compile call; the string slice lists the
// emitted node ids with an armed breakpoint.
//
// Compilation is best-effort: unresolved sheet jumps, dangling edges and
// unknown node kinds degrade to warnings, never to a failed compile.
func (c *Compiler) Compile(doc *Document) (*graph.StateGraph, []string, error) {
	if doc == nil || len(doc.Sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: document has no sheets", ErrMalformedDocument)
	}

	skill := doc.SkillName
	if skill == "" {
		skill = "skill"
	}

	// Preprocess each sheet on its own: strip visual groups and lower loop
	// containers while block nesting is still local to the sheet.
	sheets := make([]Sheet, len(doc.Sheets))
	for i, s := range doc.Sheets {
		w := stripGroups(s.Workflow.clone())
		w = lowerLoops(w)
		sheets[i] = Sheet{Name: s.Name, ID: s.ID, Workflow: w}
		c.debug.Dump(skill, fmt.Sprintf("preprocess_%s", s.Name), w)
	}

	// Stitch the sheets into one flat graph.
	flat, redirect, entry := flattenSheets(sheets)
	c.debug.Dump(skill, "after_flatten_sheets", flat)

	// Loop containers can surface again through cross-sheet inlining.
	flat = stripGroups(flat)
	flat = lowerLoops(flat)
	c.debug.Dump(skill, "after_lower_loops", flat)

	secondaryEntries := make(map[string]string)
	for _, s := range sheets[1:] {
		if e := findSheetEntry(s.Workflow); e != "" {
			secondaryEntries[s.Name] = QualifySheet(s.Name, e)
		}
	}
	flat = resolveResidualStructurals(flat, redirect, secondaryEntries)
	flat = bridgeDummies(flat)
	c.debug.Dump(skill, "final", flat)

	sg, emitted, err := c.emit(flat, entry, skill, doc.Owner)
	if err != nil {
		return nil, nil, err
	}

	var armed []string
	for _, id := range c.breakpoints.Armed() {
		if emitted[id] {
			armed = append(armed, id)
		}
	}
	return sg, armed, nil
}

// CompileDocument parses raw JSON and compiles it in one step.
func (c *Compiler) CompileDocument(data []byte) (*graph.StateGraph, []string, error) {
	doc, err := NewParser().Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return c.Compile(doc)
}

// emit registers the flattened workflow with a fresh StateGraph builder.
// end nodes are never added; edges into them become finish points, and
// conditional branches targeting them route to the terminal sentinel.
func (c *Compiler) emit(w Workflow, entry, skill, owner string) (*graph.StateGraph, map[string]bool, error) {
	sg := graph.NewStateGraph(stateSchema())
	nm := NewNamer()

	bctx := &nodes.BuildContext{
		SkillName:   skill,
		Owner:       owner,
		Models:      c.models,
		Tools:       c.tools,
		Breakpoints: c.breakpoints,
		Services:    c.services,
	}

	endIDs := make(map[string]bool)
	emitID := make(map[string]string, len(w.Nodes))
	emitted := make(map[string]bool, len(w.Nodes))
	conditions := make(map[string]Node)

	for _, n := range w.Nodes {
		if n.Kind() == KindEnd {
			endIDs[n.ID] = true
			continue
		}
		emitID[n.ID] = nm.Sanitize(n.ID)
	}

	for _, n := range w.Nodes {
		if endIDs[n.ID] {
			continue
		}
		id := emitID[n.ID]
		fn, err := nodes.Build(n.Kind(), n.Data, id, bctx)
		if err != nil {
			return nil, nil, fmt.Errorf("emit node %s: %w", n.ID, err)
		}
		sg.AddNode(id, fn)
		emitted[id] = true
		if n.Kind() == KindCondition {
			conditions[n.ID] = n
		}
	}

	// Plain edges first; edges leaving condition nodes are collected into
	// the conditional emit below.
	added := make(map[edgeKey]bool)
	for _, e := range w.Edges {
		if _, isCond := conditions[e.SourceNodeID]; isCond && e.SourcePortID != "" {
			continue
		}
		src, okSrc := emitID[e.SourceNodeID]
		if !okSrc {
			log.Warnf("flowgram: dropping edge from unknown node %s", e.SourceNodeID)
			continue
		}
		tgt, okTgt := emitID[e.TargetNodeID]
		if endIDs[e.TargetNodeID] {
			tgt, okTgt = graph.End, true
		}
		if !okTgt {
			log.Warnf("flowgram: dropping edge %s -> %s with unknown target", e.SourceNodeID, e.TargetNodeID)
			continue
		}
		k := edgeKey{src: src, tgt: tgt}
		if added[k] {
			continue
		}
		added[k] = true
		sg.AddEdge(src, tgt)
	}

	for _, n := range w.Nodes {
		cond, ok := conditions[n.ID]
		if !ok {
			continue
		}
		pathMap := make(map[string]string)
		var ports []string
		for _, e := range w.Edges {
			if e.SourceNodeID != cond.ID || e.SourcePortID == "" {
				continue
			}
			target, okTgt := emitID[e.TargetNodeID]
			if endIDs[e.TargetNodeID] {
				target, okTgt = graph.End, true
			}
			if !okTgt {
				log.Warnf("flowgram: dropping conditional edge %s[%s] -> %s with unknown target",
					cond.ID, e.SourcePortID, e.TargetNodeID)
				continue
			}
			if _, dup := pathMap[e.SourcePortID]; dup {
				continue
			}
			pathMap[e.SourcePortID] = target
			ports = append(ports, e.SourcePortID)
		}
		if len(pathMap) == 0 {
			continue
		}
		selector := buildSelector(emitID[cond.ID], parseBranches(cond.Data), ports)
		sg.AddConditionalEdges(emitID[cond.ID], selector, pathMap)
	}

	if entry == "" {
		log.Warnf("flowgram: no entry node identified")
	} else if id, ok := emitID[entry]; ok {
		sg.SetEntryPoint(id)
	} else {
		log.Warnf("flowgram: entry node %s was not emitted", entry)
	}

	return sg, emitted, nil
}

// stateSchema declares the shared state fields workflow nodes read and
// write. Map fields use the merge reducer so node deltas compose instead
// of clobbering each other.
func stateSchema() *graph.StateSchema {
	schema := graph.MessagesStateSchema()
	for _, key := range []string{"attributes", "result", "metadata", "tool_input", graph.StateKeyNodeResponses} {
		schema.AddField(key, graph.StateField{
			Type:    reflect.TypeOf(map[string]any{}),
			Reducer: graph.MergeReducer,
			Default: func() any { return make(map[string]any) },
		})
	}
	schema.AddField("condition", graph.StateField{
		Type:    reflect.TypeOf(false),
		Reducer: graph.DefaultReducer,
	})
	for _, key := range []string{graph.StateKeyLastResponse, graph.StateKeyUserInput} {
		schema.AddField(key, graph.StateField{
			Type:    reflect.TypeOf(""),
			Reducer: graph.DefaultReducer,
		})
	}
	return schema
}
