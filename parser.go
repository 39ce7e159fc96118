//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parser parses persisted flowgram JSON into Documents. Two top-level shapes
// are accepted:
//
//	{ "workFlow": {nodes, edges}, "skillName": ..., "owner": ... }        (single sheet)
//	{ "bundle": {"sheets": [{name, id?, document: {nodes, edges}}, ...]} } (multi sheet)
//
// The first sheet in a bundle is the main sheet.
type Parser struct {
	// Strict enables strict JSON decoding (disallow unknown fields on the
	// node/edge records). The editor adds UI-only fields freely, so the
	// default is lenient.
	Strict bool
}

// NewParser creates a lenient parser.
func NewParser() *Parser {
	return &Parser{}
}

// rawFlow mirrors the persisted top-level JSON.
type rawFlow struct {
	SkillName string     `json:"skillName"`
	SheetName string     `json:"sheetName"`
	Owner     string     `json:"owner"`
	WorkFlow  *Workflow  `json:"workFlow"`
	Bundle    *rawBundle `json:"bundle"`
}

type rawBundle struct {
	Sheets []rawSheet `json:"sheets"`
}

type rawSheet struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Document *Workflow `json:"document"`
}

// Parse decodes a flowgram document from JSON bytes.
func (p *Parser) Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if p.Strict {
		dec.DisallowUnknownFields()
	}
	var raw rawFlow
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return p.fromRaw(&raw, nil)
}

// ParseWithBundle decodes a flowgram document and, when bundleJSON is
// non-nil, lets it supersede any bundle embedded in the document.
func (p *Parser) ParseWithBundle(data, bundleJSON []byte) (*Document, error) {
	var raw rawFlow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var override *rawBundle
	if len(bundleJSON) > 0 {
		override = &rawBundle{}
		if err := json.Unmarshal(bundleJSON, override); err != nil {
			return nil, fmt.Errorf("%w: bundle: %v", ErrMalformedDocument, err)
		}
	}
	return p.fromRaw(&raw, override)
}

func (p *Parser) fromRaw(raw *rawFlow, bundleOverride *rawBundle) (*Document, error) {
	doc := &Document{
		SkillName: raw.SkillName,
		Owner:     raw.Owner,
	}
	if doc.SkillName == "" {
		doc.SkillName = "skill"
	}

	bundle := raw.Bundle
	if bundleOverride != nil {
		bundle = bundleOverride
	}

	if bundle != nil {
		for _, s := range bundle.Sheets {
			if s.Document == nil {
				continue
			}
			name := s.Name
			if name == "" {
				name = s.ID
			}
			doc.Sheets = append(doc.Sheets, Sheet{
				Name:     name,
				ID:       s.ID,
				Workflow: *s.Document,
			})
		}
	}

	// Single-sheet fallback: wrap the top-level workFlow as the main sheet.
	if len(doc.Sheets) == 0 {
		if raw.WorkFlow == nil {
			return nil, fmt.Errorf("%w: no workFlow and no bundle.sheets", ErrMalformedDocument)
		}
		name := raw.SheetName
		if name == "" {
			name = "main"
		}
		doc.Sheets = append(doc.Sheets, Sheet{Name: name, Workflow: *raw.WorkFlow})
	}

	return doc, nil
}

// ParseDocument is a convenience wrapper around NewParser().Parse.
func ParseDocument(data []byte) (*Document, error) {
	return NewParser().Parse(data)
}
