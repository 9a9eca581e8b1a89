// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Trace exporter names accepted by TracerConfig.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ErrUnknownExporter is returned by InitTracer for unsupported exporter names.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// TracerConfig selects and configures the trace exporter.
type TracerConfig struct {
	// ServiceName is recorded as service.name on every span.
	ServiceName string

	// Exporter is "none", "stdout" or "otlp". Default: "none"
	Exporter string

	// OTLPEndpoint is the collector's gRPC address (host:port), used by "otlp".
	OTLPEndpoint string

	// Writer receives stdout exporter output. Default: os.Stdout
	Writer io.Writer
}

// InitTracer installs a global TracerProvider and propagator.
//
// # Description
//
// With Exporter "none" no provider is installed and the global no-op
// provider stays in place; otelgin middleware then costs next to nothing.
// "stdout" pretty-prints spans, "otlp" batches them to a collector over an
// insecure gRPC connection (appropriate for sidecar/internal networks).
//
// # Outputs
//
//   - func(context.Context): Flushes and shuts the provider down. Never nil.
//   - error: Non-nil for unknown exporters or exporter construction failure.
//
// # Examples
//
//	shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
//	    ServiceName: "codebook",
//	    Exporter:    "otlp",
//	    OTLPEndpoint: "localhost:4317",
//	})
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
func InitTracer(ctx context.Context, cfg TracerConfig) (func(context.Context), error) {
	noop := func(context.Context) {}

	var (
		exporter sdktrace.SpanExporter
		conn     *grpc.ClientConn
		err      error
	)
	switch cfg.Exporter {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		exporter, conn, err = newOTLPExporter(ctx, cfg.OTLPEndpoint)
	default:
		return noop, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", cfg.ServiceName),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return tracerShutdown(provider, conn), nil
}

// newOTLPExporter dials the collector lazily and wraps the connection in an
// OTLP exporter. The connection is closed if the exporter cannot be built.
func newOTLPExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return exporter, conn, nil
}

// tracerShutdown flushes provider, then closes conn when it is non-nil.
// otlptracegrpc does not close connections passed in with WithGRPCConn.
func tracerShutdown(provider *sdktrace.TracerProvider, conn *grpc.ClientConn) func(context.Context) {
	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			otel.Handle(err)
		}
		if conn != nil {
			if err := conn.Close(); err != nil {
				otel.Handle(err)
			}
		}
	}
}
