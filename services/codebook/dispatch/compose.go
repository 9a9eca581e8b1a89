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
	"strings"

	"github.com/AleutianAI/codebook/services/codebook/knowledge"
)

// ExampleMarker is the literal line that introduces an example block.
const ExampleMarker = "Example:"

// AnswerBuilder turns a guidance entry into answer text.
type AnswerBuilder func(entry knowledge.GuidanceEntry) string

// Compose returns an AnswerBuilder that emits the selected parts.
//
// # Description
//
// Parts are always written in canonical order (disallowed, preferred,
// example) regardless of the order they are passed in, and joined with "\n".
// A selected part the entry does not define is skipped entirely: no blank
// line and no dangling "Example:" marker.
//
// # Examples
//
//	build := Compose(PartPreferred)
//	build(entry) // "Use descriptive names ..."
//
//	build = Compose(PartDisallowed, PartPreferred, PartExample)
//	build(entry) // "Do not ...\nUse ...\nExample:\n<example>"
func Compose(parts ...Part) AnswerBuilder {
	var selected [3]bool
	for _, p := range parts {
		if r := p.rank(); r >= 0 {
			selected[r] = true
		}
	}

	return func(entry knowledge.GuidanceEntry) string {
		lines := make([]string, 0, 4)
		if selected[PartDisallowed.rank()] && entry.HasDisallowed() {
			lines = append(lines, entry.Disallowed)
		}
		if selected[PartPreferred.rank()] {
			lines = append(lines, entry.Preferred)
		}
		if selected[PartExample.rank()] && entry.HasExample() {
			lines = append(lines, ExampleMarker, entry.Example)
		}
		return strings.Join(lines, "\n")
	}
}
