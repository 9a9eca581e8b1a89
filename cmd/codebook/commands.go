// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"time"

	"github.com/AleutianAI/codebook/pkg/logging"
	"github.com/spf13/cobra"
)

// cliOptions holds flag values shared by the commands of one root command.
type cliOptions struct {
	// --- Global ---
	codebookPath string
	logLevel     string
	logJSON      bool
	logDir       string

	// --- ask / rules ---
	plain bool

	// --- serve ---
	host            string
	port            int
	ginMode         string
	corsOrigins     []string
	rateLimit       float64
	rateBurst       int
	maxBodyBytes    int64
	traceExporter   string
	otlpEndpoint    string
	shutdownTimeout time.Duration

	logger *logging.Logger
}

// newRootCmd builds the command tree. Flag defaults are read from the
// environment at construction time.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "codebook",
		Short: "Answer questions about the team's coding conventions",
		Long: `codebook matches a free-text question against an ordered rule table and
answers with the guidance of the first matching rule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initLogger(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.codebookPath, "codebook", getEnvString("CODEBOOK_FILE", ""),
		"Codebook YAML file (default: embedded codebook)")
	pf.StringVar(&opts.logLevel, "log-level", getEnvString("CODEBOOK_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error")
	pf.BoolVar(&opts.logJSON, "log-json", getEnvBool("CODEBOOK_LOG_JSON", false),
		"Write logs as JSON")
	pf.StringVar(&opts.logDir, "log-dir", getEnvString("CODEBOOK_LOG_DIR", ""),
		"Also write daily JSON log files to this directory")

	// --- Serve ---
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service for the conventions form",
		Args:  cobra.NoArgs,
		RunE:  opts.withLogger(opts.runServe),
	}
	sf := serveCmd.Flags()
	sf.StringVar(&opts.host, "host", getEnvString("CODEBOOK_HOST", ""), "Listen address")
	sf.IntVar(&opts.port, "port", getEnvInt("CODEBOOK_PORT", 3001), "HTTP server port")
	sf.StringVar(&opts.ginMode, "gin-mode", getEnvString("GIN_MODE", "release"), "Gin mode: debug, release, test")
	sf.StringSliceVar(&opts.corsOrigins, "cors-origins", getEnvList("CODEBOOK_CORS_ORIGINS"),
		"Allowed CORS origins (default: all)")
	sf.Float64Var(&opts.rateLimit, "rate-limit", getEnvFloat("CODEBOOK_RATE_LIMIT", 0),
		"Requests per second allowed on /api (0 disables)")
	sf.IntVar(&opts.rateBurst, "rate-burst", getEnvInt("CODEBOOK_RATE_BURST", 20), "Rate limiter burst")
	sf.Int64Var(&opts.maxBodyBytes, "max-body-bytes", 64*1024, "Maximum /api request body size")
	sf.StringVar(&opts.traceExporter, "trace-exporter", getEnvString("OTEL_TRACES_EXPORTER", "none"),
		"Trace exporter: none, stdout, otlp")
	sf.StringVar(&opts.otlpEndpoint, "otlp-endpoint", getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		"OTLP gRPC collector address")
	sf.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	// --- Ask ---
	askCmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer one question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE:  opts.withLogger(opts.runAsk),
	}
	askCmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable styling")

	// --- Rules ---
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule table in evaluation order",
		Args:  cobra.NoArgs,
		RunE:  opts.withLogger(opts.runRules),
	}
	rulesCmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable styling")

	rootCmd.AddCommand(serveCmd, askCmd, rulesCmd)
	return rootCmd
}
