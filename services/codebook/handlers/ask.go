// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/codebook/services/codebook/datatypes"
	"github.com/AleutianAI/codebook/services/codebook/dispatch"
	"github.com/AleutianAI/codebook/services/codebook/observability"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HandleAsk answers a coding-convention question.
//
// # Description
//
// Reads {"question": ...} and responds 200 {"answer": "..."}. An empty body,
// a JSON null, a missing question and a non-string question all resolve
// through the fallback path. Only transport problems are errors:
//   - malformed JSON (including trailing data) or a non-object body: 400
//   - body over the BodyLimit cap: 413
//
// The matched topic and rule order are recorded on the active span and in
// metrics; the question text itself is never logged.
//
// # Inputs
//
//   - d: Dispatcher. Must not be nil.
//   - metrics: May be nil to disable recording.
//   - logger: Receives a Debug line per answer.
func HandleAsk(d *dispatch.Dispatcher, metrics *observability.Metrics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusRequestEntityTooLarge, datatypes.ErrorResponse{Error: "request body too large"})
				return
			}
			logger.Warn("Failed to read ask request body", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
			return
		}

		var req datatypes.AskRequest
		if len(bytes.TrimSpace(raw)) > 0 {
			// BindBody stops after the first JSON value; trailing data must fail.
			if !json.Valid(raw) {
				logger.Warn("Rejected ask request with invalid JSON body")
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
				return
			}
			if err := binding.JSON.BindBody(raw, &req); err != nil {
				logger.Warn("Failed to parse ask request", "error", err)
				c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "invalid request body"})
				return
			}
		}

		question := dispatch.NormalizeQuestion(req.Question)

		start := time.Now()
		res := d.Resolve(question)
		elapsed := time.Since(start)

		if metrics != nil {
			metrics.RecordAnswer(res.TopicLabel(), elapsed)
		}

		span := trace.SpanFromContext(c.Request.Context())
		span.SetAttributes(
			attribute.String("codebook.topic", res.TopicLabel()),
			attribute.Int("codebook.rule_order", res.Order),
			attribute.Bool("codebook.matched", res.Matched),
		)

		logger.Debug("Answered question",
			"topic", res.TopicLabel(),
			"rule_order", res.Order,
			"matched", res.Matched,
			"question_length", len(question),
		)

		c.JSON(http.StatusOK, datatypes.AskResponse{Answer: res.Answer})
	}
}
