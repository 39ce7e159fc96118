//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

// bridgeDummies removes placeholder dummy nodes by composing each dummy's
// incoming and outgoing edges into direct bridges. The bridge keeps the
// incoming edge's source port and the outgoing edge's target port, so
// conditional routing that passed through a dummy survives intact.
//
// Dummies are erased one at a time; a bridge ending at another dummy is
// then input to the next round, which resolves chains without special
// casing.
func bridgeDummies(w Workflow) Workflow {
	out := w
	for {
		dummy, ok := firstDummy(out)
		if !ok {
			return out
		}
		out = bridgeOne(out, dummy)
	}
}

func firstDummy(w Workflow) (string, bool) {
	for _, n := range w.Nodes {
		if n.Kind() == KindDummy {
			return n.ID, true
		}
	}
	return "", false
}

func hasDummies(w Workflow) bool {
	_, ok := firstDummy(w)
	return ok
}

func bridgeOne(w Workflow, dummy string) Workflow {
	var in, out []Edge
	res := Workflow{Nodes: make([]Node, 0, len(w.Nodes))}

	for _, n := range w.Nodes {
		if n.ID != dummy {
			res.Nodes = append(res.Nodes, n)
		}
	}

	seen := make(map[edgeKey]bool)
	add := func(e Edge) {
		k := keyOf(e)
		if seen[k] {
			return
		}
		seen[k] = true
		res.Edges = append(res.Edges, e)
	}

	for _, e := range w.Edges {
		switch {
		case e.TargetNodeID == dummy && e.SourceNodeID == dummy:
			// self-loop on a dummy carries no information
		case e.TargetNodeID == dummy:
			in = append(in, e)
		case e.SourceNodeID == dummy:
			out = append(out, e)
		default:
			add(e)
		}
	}

	for _, ein := range in {
		for _, eout := range out {
			add(Edge{
				SourceNodeID: ein.SourceNodeID,
				TargetNodeID: eout.TargetNodeID,
				SourcePortID: ein.SourcePortID,
				TargetPortID: eout.TargetPortID,
			})
		}
	}
	return res
}
