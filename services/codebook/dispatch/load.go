// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/codebook/services/codebook/enforcement"
	"github.com/AleutianAI/codebook/services/codebook/knowledge"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCodebook is returned when a codebook cannot be turned into a
// Dispatcher. Unknown entry references additionally wrap knowledge.ErrNotFound.
var ErrInvalidCodebook = errors.New("invalid codebook")

var codebookValidate = validator.New()

// Default builds a Dispatcher from the codebook embedded in the binary.
func Default() (*Dispatcher, error) {
	return Load(enforcement.Codebook)
}

// LoadFile reads a codebook from path and builds a Dispatcher from it.
func LoadFile(path string) (*Dispatcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read codebook %s: %w", path, err)
	}
	d, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("codebook %s: %w", path, err)
	}
	return d, nil
}

// Load parses a YAML codebook and builds a Dispatcher from it.
//
// # Description
//
// Load performs every startup check in one place:
//  1. Decodes the YAML, rejecting unknown fields.
//  2. Validates the file structure (non-empty entries and rules, legal parts).
//  3. Builds the KnowledgeBase (unique ids, non-empty preferred text).
//  4. Resolves and compiles each rule in declared order via New.
//
// # Outputs
//
//   - *Dispatcher: Immutable and safe for concurrent use.
//   - error: Wraps ErrInvalidCodebook. Fatal for the caller.
func Load(data []byte) (*Dispatcher, error) {
	var file CodebookFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidCodebook)
		}
		return nil, fmt.Errorf("%w: failed to unmarshal: %v", ErrInvalidCodebook, err)
	}

	if err := codebookValidate.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCodebook, err)
	}

	kb, err := knowledge.New(file.Entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCodebook, err)
	}

	return New(kb, file.Rules)
}

// New builds a Dispatcher from a KnowledgeBase and rule specs in priority
// order.
//
// # Description
//
// Every rule's entry id must exist in kb; this is the only place the lookup
// can fail, so a bad reference aborts startup instead of a request. Patterns
// are compiled once here. Parts must be listed in canonical order
// (disallowed, preferred, example) so the file reads the way answers render,
// and each rule must produce a non-empty answer.
//
// # Inputs
//
//   - kb: The knowledge base rules refer to. Must not be nil.
//   - specs: Rule declarations. Slice order is rule priority.
//
// # Outputs
//
//   - *Dispatcher: Immutable rule table bound to kb.
//   - error: Wraps ErrInvalidCodebook, and knowledge.ErrNotFound for
//     unknown entry ids.
func New(kb *knowledge.KnowledgeBase, specs []RuleSpec) (*Dispatcher, error) {
	if kb == nil {
		return nil, fmt.Errorf("%w: nil knowledge base", ErrInvalidCodebook)
	}

	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		order := i + 1

		entry, err := kb.Get(spec.Entry)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidCodebook, order, err)
		}

		matcher, err := CompileMatcher(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): bad pattern %q: %v",
				ErrInvalidCodebook, order, spec.Entry, spec.Pattern, err)
		}

		if err := checkPartOrder(spec.Parts); err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): %v", ErrInvalidCodebook, order, spec.Entry, err)
		}

		rule := Rule{
			Order:   order,
			Topic:   spec.Entry,
			Pattern: spec.Pattern,
			Parts:   append([]Part(nil), spec.Parts...),
			matcher: matcher,
			entry:   entry,
			build:   Compose(spec.Parts...),
		}
		if rule.Answer() == "" {
			return nil, fmt.Errorf("%w: rule %d (%s): parts %v produce an empty answer",
				ErrInvalidCodebook, order, spec.Entry, spec.Parts)
		}
		rules = append(rules, rule)
	}

	return &Dispatcher{kb: kb, rules: rules}, nil
}

// checkPartOrder rejects unknown, repeated or out-of-order parts.
func checkPartOrder(parts []Part) error {
	if len(parts) == 0 {
		return errors.New("no parts selected")
	}
	last := -1
	for _, p := range parts {
		r := p.rank()
		if r < 0 {
			return fmt.Errorf("unknown part %q", p)
		}
		if r <= last {
			return fmt.Errorf("parts must be unique and ordered disallowed, preferred, example: %v", parts)
		}
		last = r
	}
	return nil
}
