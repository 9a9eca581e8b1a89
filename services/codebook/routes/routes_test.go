// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/codebook/services/codebook/dispatch"
	"github.com/AleutianAI/codebook/services/codebook/observability"
	"github.com/gin-gonic/gin"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	d, err := dispatch.Default()
	if err != nil {
		t.Fatalf("dispatch.Default() error = %v", err)
	}
	router := gin.New()
	SetupRoutes(router, d, observability.NewMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	return router
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersRoutes(t *testing.T) {
	router := newRouter(t, Options{})

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/"},
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/api/ask"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", want.method, want.path)
		}
	}

	if len(routes) != len(expected) {
		t.Errorf("Route count = %d, want %d", len(routes), len(expected))
	}
}

func TestSetupRoutes_AskEndToEnd(t *testing.T) {
	router := newRouter(t, Options{MaxBodyBytes: 64 * 1024})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask", strings.NewReader(`{"question":"Should I use a switch statement?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:4200")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/ask returned %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Avoid repetitive if/else; use switch/case or object mapping.") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing on /api/ask")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestSetupRoutes_Preflight(t *testing.T) {
	router := newRouter(t, Options{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Preflight returned %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := newRouter(t, Options{})

	ask := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ask", strings.NewReader(`{"question":"nothing relevant"}`))
	router.ServeHTTP(ask, req)

	w := httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Metrics endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `codebook_answers_total{topic="fallback"} 1`) {
		t.Errorf("fallback answer not counted:\n%s", body)
	}
	if !strings.Contains(body, `codebook_http_requests_total{route="/api/ask",status="200"} 1`) {
		t.Errorf("ask request not counted:\n%s", body)
	}
}

func TestSetupRoutes_RateLimitOnlyOnAPI(t *testing.T) {
	router := newRouter(t, Options{RateLimit: 0.001, RateBurst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/ask", strings.NewReader(`{}`))
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("ask status codes = %v, want [200 429]", codes)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/health should not be rate limited, got %d", w.Code)
	}
}
