// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"log/slog"

	"github.com/AleutianAI/codebook/services/codebook/dispatch"
	"github.com/AleutianAI/codebook/services/codebook/handlers"
	"github.com/AleutianAI/codebook/services/codebook/middleware"
	"github.com/AleutianAI/codebook/services/codebook/observability"
	"github.com/gin-gonic/gin"
)

// Options carries the middleware settings SetupRoutes applies.
type Options struct {
	// AllowedOrigins for CORS. Empty allows every origin.
	AllowedOrigins []string

	// RateLimit in requests per second for /api. Zero disables limiting.
	RateLimit float64

	// RateBurst is the token bucket size for RateLimit.
	RateBurst int

	// MaxBodyBytes caps /api request bodies. Zero disables the cap.
	MaxBodyBytes int64
}

// SetupRoutes registers every route and the shared middleware chain.
//
//	GET  /          plaintext liveness
//	GET  /health    JSON liveness
//	GET  /metrics   Prometheus exposition
//	POST /api/ask   question answering
func SetupRoutes(router *gin.Engine, d *dispatch.Dispatcher, metrics *observability.Metrics,
	logger *slog.Logger, opts Options) {

	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger, metrics),
		middleware.CORS(opts.AllowedOrigins),
	)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.Use(
		middleware.RateLimit(opts.RateLimit, opts.RateBurst),
		middleware.BodyLimit(opts.MaxBodyBytes),
	)
	{
		api.POST("/ask", handlers.HandleAsk(d, metrics, logger))
	}
}
