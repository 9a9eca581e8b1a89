// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dispatch answers coding-convention questions from an ordered rule
// table.
//
// Each rule pairs a pattern with an answer builder bound to a guidance entry.
// A question is tested against the rules top to bottom and the first match
// wins; there is no scoring and no second candidate. When nothing matches the
// fixed FallbackAnswer is returned.
//
//	question ──► rule 1 ──► rule 2 ──► ... ──► rule N ──► FallbackAnswer
//	               │          │                  │
//	               ▼          ▼                  ▼
//	            answer     answer             answer
//
// Rule order is part of the contract. A broad pattern placed early shadows
// every later rule that matches the same text.
//
// # Thread Safety
//
// A Dispatcher is immutable once Load or New returns. Resolve and Answer do
// no I/O and take no locks, so they can be called from any number of
// goroutines.
package dispatch

import (
	"github.com/AleutianAI/codebook/services/codebook/knowledge"
)

// FallbackAnswer is returned when no rule matches.
const FallbackAnswer = "Sorry, I couldn't find an answer in the coding conventions."

// =============================================================================
// Dispatcher
// =============================================================================

// Dispatcher evaluates the rule table against questions.
type Dispatcher struct {
	kb    *knowledge.KnowledgeBase
	rules []Rule
}

// Resolve classifies a question and composes its answer.
//
// # Description
//
// Rules are tested in declared order against the raw, case-sensitive
// question text. Evaluation stops at the first match. The empty string is a
// valid question; it matches nothing in the reference table and resolves to
// the fallback.
//
// # Outputs
//
//   - Result: Always populated. Matched is false for the fallback.
func (d *Dispatcher) Resolve(question string) Result {
	for _, rule := range d.rules {
		if rule.Matches(question) {
			return Result{
				Answer:  rule.Answer(),
				Matched: true,
				Topic:   rule.Topic,
				Order:   rule.Order,
			}
		}
	}
	return Result{Answer: FallbackAnswer}
}

// Answer returns the answer text for question.
func (d *Dispatcher) Answer(question string) string {
	return d.Resolve(question).Answer
}

// AnswerValue answers a question of unknown type, as decoded from a request.
// See NormalizeQuestion.
func (d *Dispatcher) AnswerValue(v any) string {
	return d.Answer(NormalizeQuestion(v))
}

// NormalizeQuestion converts a decoded question value to the probe string
// the rules are tested against.
//
// Strings pass through unchanged and a non-nil *string is dereferenced.
// Everything else (nil, numbers, booleans, objects, arrays) becomes the empty
// string, so an absent or mistyped question falls through to the fallback
// answer instead of failing.
func NormalizeQuestion(v any) string {
	switch q := v.(type) {
	case string:
		return q
	case *string:
		if q == nil {
			return ""
		}
		return *q
	default:
		return ""
	}
}

// Rules returns a copy of the rule table in priority order.
func (d *Dispatcher) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	for i, r := range d.rules {
		r.Parts = append([]Part(nil), r.Parts...)
		out[i] = r
	}
	return out
}

// KnowledgeBase returns the knowledge base the rules are bound to.
func (d *Dispatcher) KnowledgeBase() *knowledge.KnowledgeBase {
	return d.kb
}
