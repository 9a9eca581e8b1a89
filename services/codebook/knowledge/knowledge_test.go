// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package knowledge

import (
	"errors"
	"testing"
)

func TestNew_ValidEntries(t *testing.T) {
	kb, err := New([]GuidanceEntry{
		{ID: "linting", Preferred: "ESLint must be enabled. Do not disable linting rules."},
		{ID: "safeNavigation", Preferred: "Use `?.`.", Disallowed: "Do not use `&&`.", Example: "a?.b"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if kb.Len() != 2 {
		t.Errorf("Len() = %d, want 2", kb.Len())
	}

	entry, err := kb.Get("safeNavigation")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !entry.HasDisallowed() || !entry.HasExample() {
		t.Errorf("safeNavigation should have disallowed and example parts: %+v", entry)
	}

	lint, _ := kb.Get("linting")
	if lint.HasDisallowed() || lint.HasExample() {
		t.Errorf("linting should carry only a preferred part: %+v", lint)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []GuidanceEntry
		wantErr error
	}{
		{
			name:    "missing id",
			entries: []GuidanceEntry{{Preferred: "something"}},
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "empty preferred",
			entries: []GuidanceEntry{{ID: "performance"}},
			wantErr: ErrInvalidEntry,
		},
		{
			name: "duplicate id",
			entries: []GuidanceEntry{
				{ID: "unitTest", Preferred: "a"},
				{ID: "unitTest", Preferred: "b"},
			},
			wantErr: ErrDuplicateEntry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.entries)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	kb, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	_, err = kb.Get("cypressId")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	entries := []GuidanceEntry{{ID: "codeComments", Preferred: "original"}}
	kb, _ := New(entries)
	entries[0].Preferred = "mutated"

	entry, _ := kb.Get("codeComments")
	if entry.Preferred != "original" {
		t.Errorf("KnowledgeBase was mutated through the input slice: %q", entry.Preferred)
	}
}

func TestIDs_Sorted(t *testing.T) {
	kb, _ := New([]GuidanceEntry{
		{ID: "unitTest", Preferred: "x"},
		{ID: "asyncAwait", Preferred: "x"},
		{ID: "linting", Preferred: "x"},
	})
	got := kb.IDs()
	want := []string{"asyncAwait", "linting", "unitTest"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}
}
