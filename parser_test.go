//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
package flowgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleSheet(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"skillName": "demo",
		"owner": "alice",
		"workFlow": {
			"nodes": [
				{"id": "start_0", "type": "start"},
				{"id": "code_0", "type": "code", "data": {"title": "Code"}}
			],
			"edges": [
				{"sourceNodeID": "start_0", "targetNodeID": "code_0"}
			]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.SkillName)
	assert.Equal(t, "alice", doc.Owner)
	require.Len(t, doc.Sheets, 1)
	assert.Equal(t, "main", doc.Sheets[0].Name, "single-sheet documents wrap into a main sheet")
	require.Len(t, doc.Sheets[0].Workflow.Nodes, 2)
	assert.Equal(t, "Code", doc.Sheets[0].Workflow.Nodes[1].Data["title"])
	require.Len(t, doc.Sheets[0].Workflow.Edges, 1)
	assert.Equal(t, "start_0", doc.Sheets[0].Workflow.Edges[0].SourceNodeID)
}

func TestParseEmbeddedBundle(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"skillName": "demo",
		"bundle": {
			"sheets": [
				{"name": "main", "document": {"nodes": [{"id": "start_0", "type": "start"}], "edges": []}},
				{"name": "sub", "id": "s2", "document": {"nodes": [{"id": "z", "type": "code"}], "edges": []}}
			]
		}
	}`))
	require.NoError(t, err)

	require.Len(t, doc.Sheets, 2)
	assert.Equal(t, "main", doc.Sheets[0].Name)
	assert.Equal(t, "sub", doc.Sheets[1].Name)
	assert.Equal(t, "s2", doc.Sheets[1].ID)
}

func TestParseBundleOverride(t *testing.T) {
	docJSON := []byte(`{
		"skillName": "demo",
		"workFlow": {"nodes": [{"id": "start_0", "type": "start"}], "edges": []}
	}`)
	bundleJSON := []byte(`{
		"sheets": [
			{"name": "primary", "document": {"nodes": [{"id": "a", "type": "code"}], "edges": []}}
		]
	}`)

	doc, err := NewParser().ParseWithBundle(docJSON, bundleJSON)
	require.NoError(t, err)
	require.Len(t, doc.Sheets, 1)
	assert.Equal(t, "primary", doc.Sheets[0].Name, "external bundle supersedes the embedded workFlow")

	// Without an override the embedded workFlow is used.
	doc, err = NewParser().ParseWithBundle(docJSON, nil)
	require.NoError(t, err)
	require.Len(t, doc.Sheets, 1)
	assert.Equal(t, "main", doc.Sheets[0].Name)
}

func TestParseDefaultsSkillName(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"workFlow": {"nodes": [], "edges": []}}`))
	require.NoError(t, err)
	assert.Equal(t, "skill", doc.SkillName)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `{"workFlow": `},
		{name: "no workflow or bundle", data: `{"skillName": "x"}`},
		{name: "bundle with no usable sheets", data: `{"bundle": {"sheets": [{"name": "a"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestParseBadBundleJSON(t *testing.T) {
	_, err := NewParser().ParseWithBundle(
		[]byte(`{"workFlow": {"nodes": [], "edges": []}}`),
		[]byte(`not json`),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, KindSheetInputs, Node{Type: "sheet_inputs"}.Kind())
	assert.Equal(t, KindBlockStart, Node{Type: "block_start"}.Kind())
	assert.Equal(t, KindHTTPAPI, Node{Type: "http_api"}.Kind())
	assert.Equal(t, "llm", Node{Type: "llm"}.Kind())

	assert.True(t, Node{Type: "sheet-call"}.IsStructural())
	assert.True(t, Node{Type: "start"}.IsStructural())
	assert.False(t, Node{Type: "code"}.IsStructural())
	assert.True(t, Node{Type: "block_end"}.IsPassthrough())
}
