//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"strconv"
	"strings"
)

// Namer produces the two identifier layers the compiler works with.
//
// Logical ids use ":" to join a parent namespace (sheet name, enclosing
// block) with a raw node id and are the keys of the working node map and of
// every debug dump. Emit ids are what the underlying StateGraph accepts:
// only [A-Za-z0-9_], never starting with a digit. Keeping the layers
// separate avoids cascading renames when conditional-edge target lists are
// built late in the pipeline.
type Namer struct {
	used    map[string]bool
	emitIDs map[string]string
}

// NewNamer creates a fresh namer. One namer lives for one compile call.
func NewNamer() *Namer {
	return &Namer{
		used:    make(map[string]bool),
		emitIDs: make(map[string]string),
	}
}

// Qualify joins a parent namespace and a raw id into a logical id. An empty
// namespace leaves the raw id untouched.
func Qualify(parentNS, rawID string) string {
	if parentNS == "" {
		return rawID
	}
	return parentNS + ":" + rawID
}

// QualifySheet prefixes a node id with its source sheet name using the "__"
// separator the editor already understands in cross-sheet references.
func QualifySheet(sheetName, rawID string) string {
	if sheetName == "" {
		return rawID
	}
	return sheetName + "__" + rawID
}

// Sanitize maps a logical id onto the StateGraph id alphabet. The result is
// stable per namer: asking for the same logical id twice returns the same
// emit id, and two distinct logical ids never collide (collisions under
// sanitization get a _1, _2, ... suffix).
func (nm *Namer) Sanitize(logicalID string) string {
	if emit, ok := nm.emitIDs[logicalID]; ok {
		return emit
	}

	s := sanitizeRunes(logicalID)
	base := s
	i := 1
	for nm.used[s] {
		s = base + "_" + strconv.Itoa(i)
		i++
	}
	nm.used[s] = true
	nm.emitIDs[logicalID] = s
	return s
}

// sanitizeRunes rewrites ":" to "__" (the colon appears naturally in logical
// ids), maps every other illegal rune to "_", and prefixes "n_" when the
// result would start with a digit.
func sanitizeRunes(id string) string {
	if id == "" {
		return "n"
	}
	var b strings.Builder
	b.Grow(len(id) + 2)
	for _, r := range id {
		switch {
		case r == ':':
			b.WriteString("__")
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s[0] >= '0' && s[0] <= '9' {
		s = "n_" + s
	}
	return s
}
