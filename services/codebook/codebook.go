// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package codebook provides the coding-conventions question answering service.
//
// This package wires the rule dispatcher to an HTTP server: gin routing,
// CORS for the form UI, Prometheus metrics and OpenTelemetry tracing.
//
// # Usage
//
//	svc, err := codebook.New(codebook.Config{Port: 3001}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Startup Invariants
//
// The codebook (embedded, or CodebookPath) is loaded and validated inside
// New. Any rule naming an unknown guidance entry makes New fail, so a
// misconfigured table never serves traffic.
package codebook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/codebook/services/codebook/dispatch"
	"github.com/AleutianAI/codebook/services/codebook/observability"
	"github.com/AleutianAI/codebook/services/codebook/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

// serviceName identifies the service in traces.
const serviceName = "codebook-service"

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the codebook service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until ctx is cancelled or the
	// server fails.
	//
	// # Description
	//
	// On cancellation the server stops accepting connections and waits up
	// to Config.ShutdownTimeout for in-flight requests. Tracing is flushed
	// before Run returns.
	//
	// # Outputs
	//
	//   - error: nil after a clean shutdown, otherwise the listen or
	//     shutdown error.
	Run(ctx context.Context) error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine

	// Dispatcher returns the loaded rule table.
	Dispatcher() *dispatch.Dispatcher
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds service configuration options.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom codebook and tracing
//	cfg := Config{
//	    Port:          8080,
//	    CodebookPath:  "/etc/codebook/conventions.yaml",
//	    TraceExporter: "otlp",
//	    OTelEndpoint:  "otel-collector:4317",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 3001
	Port int

	// Host is the listen address. Default: "" (all interfaces)
	Host string

	// CodebookPath points at an alternative codebook YAML file.
	// Default: "" (use the embedded codebook)
	CodebookPath string

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	// Default: "release"
	GinMode string

	// AllowedOrigins restricts CORS. Default: empty (allow all)
	AllowedOrigins []string

	// RateLimit is the /api request rate in requests per second.
	// Default: 0 (unlimited)
	RateLimit float64

	// RateBurst is the rate limiter bucket size. Default: 20
	RateBurst int

	// MaxBodyBytes caps /api request bodies. Default: 64 KiB
	MaxBodyBytes int64

	// TraceExporter is "none", "stdout" or "otlp". Default: "none"
	TraceExporter string

	// OTelEndpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	OTelEndpoint string

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New returns.
type service struct {
	config        Config
	logger        *slog.Logger
	router        *gin.Engine
	dispatcher    *dispatch.Dispatcher
	metrics       *observability.Metrics
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a codebook Service.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Loads and validates the codebook (fatal on any error)
//  3. Initializes OpenTelemetry tracing
//  4. Initializes Prometheus metrics
//  5. Sets up HTTP routes and middleware
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - logger: Structured logger. nil uses slog.Default().
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if the codebook or tracer cannot be initialized
func New(cfg Config, logger *slog.Logger) (Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &service{
		config: applyConfigDefaults(cfg),
		logger: logger,
	}

	var err error
	if s.config.CodebookPath != "" {
		s.dispatcher, err = dispatch.LoadFile(s.config.CodebookPath)
	} else {
		s.dispatcher, err = dispatch.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load codebook: %w", err)
	}
	logger.Info("Loaded codebook",
		"source", codebookSource(s.config.CodebookPath),
		"rules", len(s.dispatcher.Rules()),
		"entries", s.dispatcher.KnowledgeBase().Len(),
	)

	s.tracerCleanup, err = observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName:  serviceName,
		Exporter:     s.config.TraceExporter,
		OTLPEndpoint: s.config.OTelEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	s.metrics = observability.NewMetrics()
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until ctx is done or the server fails.
func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	srv := &http.Server{
		Addr:              net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting codebook server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down codebook server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Dispatcher returns the loaded rule table.
func (s *service) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 3001
	}
	if cfg.GinMode == "" {
		cfg.GinMode = gin.ReleaseMode
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 20
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 64 * 1024
	}
	if cfg.TraceExporter == "" {
		cfg.TraceExporter = observability.ExporterNone
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "localhost:4317"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg
}

// initRouter creates the Gin engine, applies middleware and registers routes.
func (s *service) initRouter() {
	gin.SetMode(s.config.GinMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(serviceName))

	routes.SetupRoutes(s.router, s.dispatcher, s.metrics, s.logger, routes.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		RateLimit:      s.config.RateLimit,
		RateBurst:      s.config.RateBurst,
		MaxBodyBytes:   s.config.MaxBodyBytes,
	})
}

// cleanup flushes tracing. Called when Run exits.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

func codebookSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
