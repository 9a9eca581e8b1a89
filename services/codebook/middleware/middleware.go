// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the codebook service.
//
// The chain installed by routes.SetupRoutes is:
//
//	Request
//	   │
//	   ▼
//	RequestID ──► AccessLog ──► CORS ──► RateLimit ──► BodyLimit ──► Handler
//
// RequestID runs first so every later stage (and the access log line) can
// see the id. CORS runs before RateLimit so preflight requests are answered
// without consuming tokens.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/codebook/services/codebook/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =============================================================================
// Request ID
// =============================================================================

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request id.
const requestIDKey = "codebook_request_id"

// RequestID assigns every request an id.
//
// # Description
//
// A caller-supplied X-Request-ID that parses as a UUID is kept, anything else
// is replaced with a fresh UUIDv4. The id is echoed in the response header and
// stored in the gin context (see GetRequestID).
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// =============================================================================
// Access Log
// =============================================================================

// AccessLog writes one structured log line per request and feeds the request
// counter. metrics may be nil.
func AccessLog(logger *slog.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if metrics != nil {
			metrics.RecordRequest(route, status)
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", GetRequestID(c)),
		)
	}
}

// =============================================================================
// Body Limit
// =============================================================================

// BodyLimit caps the request body at maxBytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers translate to 413. A non-positive
// maxBytes disables the cap.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
