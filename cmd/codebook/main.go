// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command codebook answers questions about the team's coding conventions.
//
// It runs the HTTP service used by the form UI, or answers a single question
// in the terminal.
//
// # Environment Variables
//
//   - CODEBOOK_PORT: HTTP server port (default: 3001)
//   - CODEBOOK_FILE: Codebook YAML file (default: embedded codebook)
//   - GIN_MODE: Gin mode - debug, release, test (default: release)
//   - CODEBOOK_CORS_ORIGINS: Comma-separated allowed origins (default: all)
//   - CODEBOOK_RATE_LIMIT: /api requests per second, 0 disables (default: 0)
//   - CODEBOOK_RATE_BURST: Rate limiter burst (default: 20)
//   - OTEL_TRACES_EXPORTER: none, stdout, otlp (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: localhost:4317)
//   - CODEBOOK_LOG_LEVEL: debug, info, warn, error (default: info)
//   - CODEBOOK_LOG_JSON: JSON log output (default: false)
//   - CODEBOOK_LOG_DIR: Also write daily JSON log files here (default: disabled)
//
// # Usage
//
//	# Build
//	go build -o codebook ./cmd/codebook
//
//	# Serve the form backend
//	./codebook serve
//
//	# Ask from the terminal
//	./codebook ask "Should I use async/await?"
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/codebook/pkg/ux"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ux.NewRenderer(os.Stderr, !ux.IsTerminal(os.Stderr)).Error(err)
		os.Exit(1)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
