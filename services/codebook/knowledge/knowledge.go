// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge holds the coding-convention guidance entries that the
// dispatcher answers from.
//
// A KnowledgeBase is built once at startup from a list of GuidanceEntry
// records and is read-only afterwards. Lookups are addressed by the entry's
// topic id (e.g. "safeNavigation").
//
// # Thread Safety
//
// KnowledgeBase has no mutating methods, so a single instance can be shared
// by any number of goroutines without locking.
package knowledge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNotFound is returned by Get when no entry has the requested id.
	ErrNotFound = errors.New("guidance entry not found")

	// ErrDuplicateEntry is returned by New when two entries share an id.
	ErrDuplicateEntry = errors.New("duplicate guidance entry id")

	// ErrInvalidEntry is returned by New when an entry fails validation.
	ErrInvalidEntry = errors.New("invalid guidance entry")
)

// entryValidate checks the struct tags on GuidanceEntry.
var entryValidate = validator.New()

// =============================================================================
// Types
// =============================================================================

// GuidanceEntry describes one coding convention.
//
// Preferred is always present. Disallowed and Example are optional; an answer
// built from an entry simply leaves out the parts the entry does not define.
type GuidanceEntry struct {
	// ID is the stable topic identifier, unique within a KnowledgeBase.
	ID string `yaml:"id" json:"id" validate:"required"`

	// Preferred describes the recommended practice.
	Preferred string `yaml:"preferred" json:"preferred" validate:"required"`

	// Disallowed describes the discouraged practice. Empty when the
	// convention has no explicit anti-pattern.
	Disallowed string `yaml:"disallowed,omitempty" json:"disallowed,omitempty"`

	// Example is a code snippet reproduced verbatim after the "Example:"
	// marker line.
	Example string `yaml:"example,omitempty" json:"example,omitempty"`
}

// HasDisallowed reports whether the entry names a discouraged practice.
func (e GuidanceEntry) HasDisallowed() bool { return e.Disallowed != "" }

// HasExample reports whether the entry carries an example block.
func (e GuidanceEntry) HasExample() bool { return e.Example != "" }

// KnowledgeBase is the immutable set of guidance entries keyed by topic id.
type KnowledgeBase struct {
	entries map[string]GuidanceEntry
}

// =============================================================================
// Constructor
// =============================================================================

// New builds a KnowledgeBase from the given entries.
//
// # Description
//
// Every entry is validated (non-empty ID and Preferred) and ids must be
// unique. The entries are copied, so later changes to the input slice do not
// leak into the KnowledgeBase.
//
// # Inputs
//
//   - entries: Guidance entries in any order. May be empty.
//
// # Outputs
//
//   - *KnowledgeBase: Ready for concurrent lookups.
//   - error: Wraps ErrInvalidEntry or ErrDuplicateEntry on bad input.
//
// # Examples
//
//	kb, err := knowledge.New([]knowledge.GuidanceEntry{
//	    {ID: "linting", Preferred: "ESLint must be enabled."},
//	})
//	if err != nil {
//	    return fmt.Errorf("build knowledge base: %w", err)
//	}
//
// # Assumptions
//
//   - Called once at startup; the result is never mutated.
func New(entries []GuidanceEntry) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{entries: make(map[string]GuidanceEntry, len(entries))}
	for i, entry := range entries {
		if err := entryValidate.Struct(entry); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %v", ErrInvalidEntry, i, entry.ID, err)
		}
		if _, exists := kb.entries[entry.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntry, entry.ID)
		}
		kb.entries[entry.ID] = entry
	}
	return kb, nil
}

// =============================================================================
// Lookups
// =============================================================================

// Get returns the entry with the given id.
//
// The dispatcher only calls Get while loading the rule table, so a missing id
// surfaces as a startup error rather than a per-request failure.
func (kb *KnowledgeBase) Get(id string) (GuidanceEntry, error) {
	entry, ok := kb.entries[id]
	if !ok {
		return GuidanceEntry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return entry, nil
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	return len(kb.entries)
}

// IDs returns all topic ids in lexical order.
func (kb *KnowledgeBase) IDs() []string {
	ids := make([]string, 0, len(kb.entries))
	for id := range kb.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
