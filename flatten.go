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
	"regexp"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

// sheetTargetKeys is the priority list of keys under which the editor has
// been observed to store a jump's target sheet. Both camelCase and
// snake_case variants are tried, at the top level of data and nested under
// data.data, before falling back to a recursive scalar scan. The editor
// schema has drifted over versions; robustness wins over precision here.
var sheetTargetKeys = []string{
	"nextSheet", "next_sheet", "sheet",
	"nextSheetId", "next_sheet_id", "sheetId", "sheet_id",
	"targetSheet", "target_sheet", "sheetName", "sheet_name",
}

// structuralIDPattern matches ids that look like residue of structural sheet
// nodes even after qualification (e.g. "sub__sheet-outputs_0").
var structuralIDPattern = regexp.MustCompile(`^(?:.*__)?sheet[-_](?:call|outputs|inputs)`)

// extractNextSheet resolves the target sheet declared by a sheet-call or
// sheet-outputs node. sheetMap is keyed by both sheet name and sheet id.
func extractNextSheet(data map[string]any, sheetMap map[string]Workflow) string {
	if data == nil {
		return ""
	}

	scopes := []map[string]any{data}
	if inner, ok := data["data"].(map[string]any); ok {
		scopes = append(scopes, inner)
	}
	for _, scope := range scopes {
		for _, key := range sheetTargetKeys {
			if v, ok := scope[key]; ok {
				if s := scalarString(v); s != "" {
					if _, known := sheetMap[s]; known {
						return s
					}
				}
			}
		}
	}

	// Recursive scan: any scalar value that names a known sheet wins.
	return scanForSheet(data, sheetMap)
}

func scanForSheet(v any, sheetMap map[string]Workflow) string {
	switch vv := v.(type) {
	case map[string]any:
		for _, child := range vv {
			if res := scanForSheet(child, sheetMap); res != "" {
				return res
			}
		}
	case []any:
		for _, child := range vv {
			if res := scanForSheet(child, sheetMap); res != "" {
				return res
			}
		}
	default:
		if s := scalarString(v); s != "" {
			if _, known := sheetMap[s]; known {
				return s
			}
		}
	}
	return ""
}

func scalarString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	case float64, int, int64, bool:
		return fmt.Sprint(vv)
	default:
		return ""
	}
}

// findSheetEntry returns the entry node of a sheet: the unique successor of
// its sheet-inputs (or, failing that, start) node. A sheet without an
// identifiable entry is treated as empty.
func findSheetEntry(w Workflow) string {
	entryVia := ""
	for _, n := range w.Nodes {
		if n.Kind() == KindSheetInputs {
			entryVia = n.ID
			break
		}
	}
	if entryVia == "" {
		for _, n := range w.Nodes {
			if n.Kind() == KindStart {
				entryVia = n.ID
				break
			}
		}
	}
	if entryVia == "" {
		return ""
	}
	for _, e := range w.Edges {
		if e.SourceNodeID == entryVia {
			return e.TargetNodeID
		}
	}
	return ""
}

// flattenSheets inlines every secondary sheet into the main sheet and
// rewrites cross-sheet jumps to concrete entry nodes. It returns the
// stitched workflow, the redirect map from structural-node ids to entry
// ids, and the main sheet entry (already redirected when the entry itself
// was a structural node).
//
// Ports on rewritten edges are preserved verbatim; this matters for edges
// that leave condition nodes for a sheet-outputs target.
func flattenSheets(sheets []Sheet) (Workflow, map[string]string, string) {
	if len(sheets) == 0 {
		return Workflow{}, nil, ""
	}
	main := sheets[0].Workflow.clone()

	sheetMap := make(map[string]Workflow, len(sheets)*2)
	for _, s := range sheets {
		if s.Name != "" {
			sheetMap[s.Name] = s.Workflow
		}
		if s.ID != "" {
			sheetMap[s.ID] = s.Workflow
		}
	}

	merged := Workflow{
		Nodes: append([]Node(nil), main.Nodes...),
		Edges: append([]Edge(nil), main.Edges...),
	}

	// Copy every non-structural node and every edge between non-structural
	// nodes from the secondary sheets, qualified by sheet name.
	for _, s := range sheets[1:] {
		idx := nodeIndex(s.Workflow)
		for _, n := range s.Workflow.Nodes {
			if n.IsStructural() {
				continue
			}
			nn := n.clone()
			nn.ID = QualifySheet(s.Name, n.ID)
			merged.Nodes = append(merged.Nodes, nn)
		}
		for _, e := range s.Workflow.Edges {
			src, tgt := idx[e.SourceNodeID], idx[e.TargetNodeID]
			if k := src.Kind(); k == KindSheetInputs || k == KindStart {
				continue
			}
			if tgt.Kind() == KindSheetInputs {
				continue
			}
			ee := e
			ee.SourceNodeID = QualifySheet(s.Name, e.SourceNodeID)
			ee.TargetNodeID = QualifySheet(s.Name, e.TargetNodeID)
			merged.Edges = append(merged.Edges, ee)
		}
	}

	// Build the redirect map for every structural node visible now, so that
	// edges created by later passes can still be rewritten.
	redirect := make(map[string]string)
	for _, n := range merged.Nodes {
		switch n.Kind() {
		case KindSheetCall, KindSheetOutput:
			next := extractNextSheet(n.Data, sheetMap)
			if next == "" {
				log.Warnf("flowgram: %s node %q names no known sheet, edges into it will be dropped", n.Kind(), n.ID)
				continue
			}
			entry := findSheetEntry(sheetMap[next])
			if entry == "" {
				log.Warnf("flowgram: sheet %q has no identifiable entry", next)
				continue
			}
			redirect[n.ID] = QualifySheet(next, entry)
		case KindSheetInputs:
			// Edges pointing back at the main sheet's inputs go to the main
			// entry instead.
			if entry := findSheetEntry(main); entry != "" {
				redirect[n.ID] = entry
			}
		}
	}

	// Rewrite edges whose target is a structural node we can resolve.
	rewritten := merged.Edges[:0]
	for _, e := range merged.Edges {
		if to, ok := redirect[e.TargetNodeID]; ok {
			log.Debugf("flowgram: redirect edge %s -> %s to %s", e.SourceNodeID, e.TargetNodeID, to)
			e.TargetNodeID = to
		}
		rewritten = append(rewritten, e)
	}
	merged.Edges = rewritten

	// Resolve the main entry before the structural nodes are dropped.
	entry := findSheetEntry(main)
	if to, ok := redirect[entry]; ok {
		entry = to
	}

	// Drop all structural sheet nodes (and start markers) from the graph.
	kept := merged.Nodes[:0]
	for _, n := range merged.Nodes {
		if n.IsStructural() {
			continue
		}
		kept = append(kept, n)
	}
	merged.Nodes = kept

	return merged, redirect, entry
}

// resolveResidualStructurals applies the redirect map once more (edges
// produced by later passes may target structural ids) and then disposes of
// anything still unresolved: if there is exactly one secondary sheet entry,
// structural-looking targets are redirected there as a last resort;
// otherwise the edge is dropped with a warning.
func resolveResidualStructurals(w Workflow, redirect map[string]string, secondaryEntries map[string]string) Workflow {
	out := w
	out.Edges = make([]Edge, 0, len(w.Edges))

	var onlyEntry string
	if len(secondaryEntries) == 1 {
		for _, v := range secondaryEntries {
			onlyEntry = v
		}
	}

	for _, e := range w.Edges {
		if to, ok := redirect[e.TargetNodeID]; ok {
			e.TargetNodeID = to
			out.Edges = append(out.Edges, e)
			continue
		}
		if structuralIDPattern.MatchString(e.TargetNodeID) {
			if onlyEntry != "" {
				log.Debugf("flowgram: rewiring %s -> %s to sole secondary entry %s", e.SourceNodeID, e.TargetNodeID, onlyEntry)
				e.TargetNodeID = onlyEntry
				out.Edges = append(out.Edges, e)
				continue
			}
			log.Warnf("flowgram: dropping edge %s -> %s with unresolved sheet target", e.SourceNodeID, e.TargetNodeID)
			continue
		}
		out.Edges = append(out.Edges, e)
	}

	// Structural nodes themselves never survive.
	kept := make([]Node, 0, len(w.Nodes))
	valid := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if structuralSheetKinds[n.Kind()] {
			continue
		}
		kept = append(kept, n)
		valid[n.ID] = true
	}
	out.Nodes = kept

	// Dangling-edge sweep: an endpoint that vanished with its structural
	// node takes its edges with it.
	swept := out.Edges[:0]
	for _, e := range out.Edges {
		if !valid[e.SourceNodeID] || !valid[e.TargetNodeID] {
			log.Warnf("flowgram: dropping dangling edge %s -> %s", e.SourceNodeID, e.TargetNodeID)
			continue
		}
		swept = append(swept, e)
	}
	out.Edges = swept
	return out
}
