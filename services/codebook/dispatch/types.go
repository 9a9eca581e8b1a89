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
	"regexp"

	"github.com/AleutianAI/codebook/services/codebook/knowledge"
)

// =============================================================================
// Codebook File
// =============================================================================

// CodebookFile is the on-disk shape of a codebook: the guidance entries and
// the ordered rule table that refers to them.
type CodebookFile struct {
	Entries []knowledge.GuidanceEntry `yaml:"entries" validate:"required,min=1"`
	Rules   []RuleSpec                `yaml:"rules" validate:"required,min=1,dive"`
}

// RuleSpec declares one rule as written in the codebook file. Its position in
// CodebookFile.Rules is its priority.
type RuleSpec struct {
	// Entry is the topic id of the guidance entry this rule answers with.
	Entry string `yaml:"entry" validate:"required"`

	// Pattern is an RE2 expression tested against the raw question.
	// Matching is case-sensitive and unanchored.
	Pattern string `yaml:"pattern" validate:"required"`

	// Parts selects which parts of the entry make up the answer.
	Parts []Part `yaml:"parts" validate:"required,min=1,unique,dive,oneof=disallowed preferred example"`
}

// =============================================================================
// Answer Parts
// =============================================================================

// Part names one logical piece of a composed answer.
type Part string

const (
	// PartDisallowed is the discouraged-practice line.
	PartDisallowed Part = "disallowed"

	// PartPreferred is the recommended-practice line.
	PartPreferred Part = "preferred"

	// PartExample is the "Example:" marker line followed by the example block.
	PartExample Part = "example"
)

// canonicalParts is the fixed order in which parts appear in an answer.
var canonicalParts = []Part{PartDisallowed, PartPreferred, PartExample}

// rank returns the position of p in canonicalParts, or -1.
func (p Part) rank() int {
	for i, c := range canonicalParts {
		if c == p {
			return i
		}
	}
	return -1
}

// =============================================================================
// Matching
// =============================================================================

// Matcher decides whether a question triggers a rule.
type Matcher interface {
	Matches(text string) bool
}

// regexpMatcher is a Matcher backed by a compiled RE2 expression.
type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) Matches(text string) bool {
	return m.re.MatchString(text)
}

// CompileMatcher compiles pattern into a case-sensitive, unanchored Matcher.
func CompileMatcher(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return regexpMatcher{re: re}, nil
}

// =============================================================================
// Rules and Results
// =============================================================================

// Rule is a loaded, immutable entry of the rule table.
type Rule struct {
	// Order is the 1-based position in the table. Lower wins.
	Order int

	// Topic is the id of the guidance entry the rule answers with.
	Topic string

	// Pattern is the source expression of the rule's matcher.
	Pattern string

	// Parts lists the answer parts in canonical order.
	Parts []Part

	matcher Matcher
	entry   knowledge.GuidanceEntry
	build   AnswerBuilder
}

// Matches reports whether the rule's pattern matches text.
func (r Rule) Matches(text string) bool {
	return r.matcher.Matches(text)
}

// Answer composes the rule's answer from its guidance entry.
func (r Rule) Answer() string {
	return r.build(r.entry)
}

// FallbackTopic labels answers produced when no rule matched.
const FallbackTopic = "fallback"

// Result is the outcome of resolving one question.
type Result struct {
	// Answer is the composed answer text, or FallbackAnswer.
	Answer string

	// Matched is false when no rule matched.
	Matched bool

	// Topic is the matched entry id. Empty when Matched is false.
	Topic string

	// Order is the matched rule's 1-based position. Zero when Matched is false.
	Order int
}

// TopicLabel returns Topic, or FallbackTopic for unmatched questions.
func (r Result) TopicLabel() string {
	if !r.Matched {
		return FallbackTopic
	}
	return r.Topic
}
