// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// AskRequest is the body of POST /api/ask.
//
// Question is deliberately untyped: clients may omit it, send null, or send
// a non-string value, and all of those must still produce an answer.
// dispatch.NormalizeQuestion turns it into the probe string.
type AskRequest struct {
	Question any `json:"question"`
}

// AskResponse is the body returned by POST /api/ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is returned for transport-level failures (bad JSON, body too
// large, rate limited).
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
