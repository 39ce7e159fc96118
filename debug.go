//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

var fileNamePattern = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Dumper writes per-stage snapshots of the working graph while a compile
// runs: a compact JSON dump plus a mermaid flowchart. A nil
// Dumper is valid and dumps nothing. Dump failures are swallowed; debug
// output must never break a compile.
type Dumper struct {
	dir     string
	session string
}

// NewDumper creates a Dumper rooted at dir. Each Dumper gets a session id
// so dumps from concurrent compiles of the same skill do not collide.
func NewDumper(dir string) *Dumper {
	return &Dumper{
		dir:     dir,
		session: uuid.NewString()[:8],
	}
}

// Dump writes skill_stage.json and skill_stage.diagram under the dump
// directory.
func (d *Dumper) Dump(skill, stage string, w Workflow) {
	if d == nil || d.dir == "" {
		return
	}
	base := sanitizeFileName(skill) + "_" + sanitizeFileName(stage)
	dir := filepath.Join(d.dir, d.session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Debugf("flowgram: debug dump mkdir failed: %v", err)
		return
	}

	payload := map[string]any{"nodes": w.Nodes, "edges": w.Edges}
	if data, err := json.Marshal(payload); err == nil {
		if err := os.WriteFile(filepath.Join(dir, base+".json"), data, 0o644); err != nil {
			log.Debugf("flowgram: debug dump write failed: %v", err)
		}
	} else {
		log.Debugf("flowgram: debug dump marshal failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, base+".diagram"), []byte(diagram(w)), 0o644); err != nil {
		log.Debugf("flowgram: debug diagram write failed: %v", err)
	}
}

func sanitizeFileName(s string) string {
	out := fileNamePattern.ReplaceAllString(s, "_")
	if out == "" {
		return "x"
	}
	return out
}

// diagram renders a workflow as a mermaid flowchart, with conditional edges
// labeled by their port. end nodes collapse into a single END terminal,
// matching what the emit pass will produce.
func diagram(w Workflow) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	endIDs := make(map[string]bool)
	for _, n := range w.Nodes {
		if n.Kind() == KindEnd {
			endIDs[n.ID] = true
			continue
		}
		fmt.Fprintf(&b, "    %s[\"%s (%s)\"]\n", mermaidID(n.ID), n.ID, n.Kind())
	}
	if len(endIDs) > 0 {
		b.WriteString("    END((END))\n")
	}
	for _, e := range w.Edges {
		target := mermaidID(e.TargetNodeID)
		if endIDs[e.TargetNodeID] {
			target = "END"
		}
		if e.SourcePortID != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", mermaidID(e.SourceNodeID), e.SourcePortID, target)
			continue
		}
		fmt.Fprintf(&b, "    %s --> %s\n", mermaidID(e.SourceNodeID), target)
	}
	return b.String()
}

// mermaidID turns an editor node id into a mermaid-safe identifier.
func mermaidID(id string) string {
	return sanitizeFileName(id)
}
