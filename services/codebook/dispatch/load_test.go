// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/codebook/services/codebook/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCodebook = `
entries:
  - id: linting
    preferred: 'ESLint must be enabled.'
  - id: asyncAwait
    preferred: 'Use .then().'
    disallowed: 'No async/await.'
    example: |-
      call().then(r => r);
rules:
  - entry: asyncAwait
    pattern: 'promise|then'
    parts: [disallowed, preferred, example]
  - entry: linting
    pattern: 'lint'
    parts: [preferred]
`

func TestLoad_Minimal(t *testing.T) {
	d, err := Load([]byte(minimalCodebook))
	require.NoError(t, err)

	assert.Equal(t, "No async/await.\nUse .then().\nExample:\ncall().then(r => r);", d.Answer("a promise"))
	assert.Equal(t, "ESLint must be enabled.", d.Answer("lint"))
	assert.Equal(t, FallbackAnswer, d.Answer("other"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		notFound bool
	}{
		{
			name: "empty document",
			yaml: "",
		},
		{
			name: "malformed yaml",
			yaml: "entries: [",
		},
		{
			name: "unknown field",
			yaml: `
entries:
  - id: a
    preferred: x
    priority: 3
rules:
  - entry: a
    pattern: a
    parts: [preferred]
`,
		},
		{
			name: "no rules",
			yaml: `
entries:
  - id: a
    preferred: x
rules: []
`,
		},
		{
			name:     "unknown entry id",
			notFound: true,
			yaml: `
entries:
  - id: a
    preferred: x
rules:
  - entry: missing
    pattern: a
    parts: [preferred]
`,
		},
		{
			name: "bad regex",
			yaml: `
entries:
  - id: a
    preferred: x
rules:
  - entry: a
    pattern: '(unclosed'
    parts: [preferred]
`,
		},
		{
			name: "unknown part",
			yaml: `
entries:
  - id: a
    preferred: x
rules:
  - entry: a
    pattern: a
    parts: [summary]
`,
		},
		{
			name: "duplicate part",
			yaml: `
entries:
  - id: a
    preferred: x
rules:
  - entry: a
    pattern: a
    parts: [preferred, preferred]
`,
		},
		{
			name: "out of order parts",
			yaml: `
entries:
  - id: a
    preferred: x
    disallowed: y
rules:
  - entry: a
    pattern: a
    parts: [preferred, disallowed]
`,
		},
		{
			name: "empty answer",
			yaml: `
entries:
  - id: a
    preferred: x
rules:
  - entry: a
    pattern: a
    parts: [example]
`,
		},
		{
			name: "duplicate entry",
			yaml: `
entries:
  - id: a
    preferred: x
  - id: a
    preferred: y
rules:
  - entry: a
    pattern: a
    parts: [preferred]
`,
		},
		{
			name: "empty preferred",
			yaml: `
entries:
  - id: a
    preferred: ''
rules:
  - entry: a
    pattern: a
    parts: [preferred]
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Load([]byte(tc.yaml))
			assert.Nil(t, d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCodebook), "error should wrap ErrInvalidCodebook: %v", err)
			assert.Equal(t, tc.notFound, errors.Is(err, knowledge.ErrNotFound), "ErrNotFound mismatch: %v", err)
		})
	}
}

func TestNew_NilKnowledgeBase(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCodebook)
}

func TestNew_UnknownEntryIsFatal(t *testing.T) {
	kb, err := knowledge.New([]knowledge.GuidanceEntry{{ID: "performance", Preferred: "Review."}})
	require.NoError(t, err)

	_, err = New(kb, []RuleSpec{
		{Entry: "performance", Pattern: "performance", Parts: []Part{PartPreferred}},
		{Entry: "unitTest", Pattern: "unit test", Parts: []Part{PartPreferred}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, knowledge.ErrNotFound)
	assert.Contains(t, err.Error(), "rule 2")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCodebook), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, d.Rules(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCompose_CanonicalOrderAndOmission(t *testing.T) {
	full := knowledge.GuidanceEntry{ID: "x", Preferred: "P", Disallowed: "D", Example: "E"}
	bare := knowledge.GuidanceEntry{ID: "y", Preferred: "P"}

	tests := []struct {
		name  string
		parts []Part
		entry knowledge.GuidanceEntry
		want  string
	}{
		{"all parts", []Part{PartDisallowed, PartPreferred, PartExample}, full, "D\nP\nExample:\nE"},
		{"order independent", []Part{PartExample, PartPreferred, PartDisallowed}, full, "D\nP\nExample:\nE"},
		{"preferred only", []Part{PartPreferred}, full, "P"},
		{"preferred and example", []Part{PartPreferred, PartExample}, full, "P\nExample:\nE"},
		{"missing parts omitted", []Part{PartDisallowed, PartPreferred, PartExample}, bare, "P"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compose(tc.parts...)(tc.entry))
		})
	}
}

func TestCompileMatcher(t *testing.T) {
	m, err := CompileMatcher(`async/await|promise`)
	require.NoError(t, err)
	assert.True(t, m.Matches("use a promise here"))
	assert.False(t, m.Matches("Promise"))

	_, err = CompileMatcher(`[`)
	assert.Error(t, err)
}
