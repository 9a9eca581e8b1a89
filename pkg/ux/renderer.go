// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/codebook/services/codebook/dispatch"
)

// Renderer writes answers and rule listings, styled or plain.
//
// # Description
//
// In plain mode every method writes exactly the text it is given, one
// trailing newline, no escape codes. Plain mode is what scripts and pipes
// should see; styled mode is for an interactive terminal.
//
// # Thread Safety
//
// Not safe for concurrent use; the underlying writer is shared.
type Renderer struct {
	out   io.Writer
	plain bool
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, plain bool) *Renderer {
	return &Renderer{out: out, plain: plain}
}

// Plain reports whether the renderer emits unstyled text.
func (r *Renderer) Plain() bool {
	return r.plain
}

// Answer writes a composed answer.
//
// # Description
//
// Styled output prefixes each guidance line with an arrow, highlights the
// dispatch.ExampleMarker line and frames the example that follows it in a box.
// Unmatched answers (the fallback) get a warning icon and muted text.
//
// # Inputs
//
//   - text: The answer as returned by the dispatcher.
//   - matched: False when text is the fallback answer.
func (r *Renderer) Answer(text string, matched bool) {
	if r.plain {
		fmt.Fprintln(r.out, text)
		return
	}
	if !matched {
		fmt.Fprintf(r.out, "%s %s\n", IconWarning.Render(), Styles.Muted.Render(text))
		return
	}

	guidance, example, hasExample := splitExample(text)
	for _, line := range guidance {
		fmt.Fprintf(r.out, "%s %s\n", IconArrow.Render(), line)
	}
	if hasExample {
		fmt.Fprintln(r.out, Styles.Highlight.Render(dispatch.ExampleMarker))
		fmt.Fprintln(r.out, Styles.Box.Render(example))
	}
}

// RuleRow is one line of a rule table listing.
type RuleRow struct {
	Order   int
	Topic   string
	Pattern string
	Parts   []string
}

// Rules writes the rule table in evaluation order.
func (r *Renderer) Rules(rows []RuleRow) {
	if r.plain {
		for _, row := range rows {
			fmt.Fprintf(r.out, "%d\t%s\t%s\t%s\n", row.Order, row.Topic, row.Pattern, strings.Join(row.Parts, ","))
		}
		return
	}

	topicWidth := 0
	for _, row := range rows {
		topicWidth = max(topicWidth, len(row.Topic))
	}
	fmt.Fprintln(r.out, Styles.Title.Render(fmt.Sprintf("Rule table (%d rules, first match wins)", len(rows))))
	for _, row := range rows {
		fmt.Fprintf(r.out, "%s %s %s  %s  %s\n",
			IconBullet.Render(),
			Styles.Muted.Render(fmt.Sprintf("%2d", row.Order)),
			Styles.Bold.Render(fmt.Sprintf("%-*s", topicWidth, row.Topic)),
			row.Pattern,
			Styles.Muted.Render("["+strings.Join(row.Parts, ", ")+"]"),
		)
	}
}

// Error writes an error message.
func (r *Renderer) Error(err error) {
	if r.plain {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", IconError.Render(), Styles.Error.Render(err.Error()))
}

// splitExample separates guidance lines from the example block that follows
// the dispatch.ExampleMarker line.
func splitExample(text string) (guidance []string, example string, ok bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == dispatch.ExampleMarker {
			return lines[:i], strings.Join(lines[i+1:], "\n"), true
		}
	}
	return lines, "", false
}
