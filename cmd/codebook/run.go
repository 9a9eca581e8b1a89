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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AleutianAI/codebook/pkg/logging"
	"github.com/AleutianAI/codebook/pkg/ux"
	"github.com/AleutianAI/codebook/services/codebook"
	"github.com/AleutianAI/codebook/services/codebook/dispatch"
	"github.com/spf13/cobra"
)

// initLogger builds the process logger from the global flags.
func (o *cliOptions) initLogger(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.logger = logging.New(logging.Config{
		Level:   level,
		Service: "codebook",
		JSON:    o.logJSON,
		Output:  cmd.ErrOrStderr(),
		LogDir:  o.logDir,
	})
	slog.SetDefault(o.logger.Slog())
	return nil
}

// withLogger closes the logger when run returns, whether or not it failed.
// cobra skips PersistentPostRun after an error, so closing happens here.
func (o *cliOptions) withLogger(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer o.closeLogger()
		return run(cmd, args)
	}
}

// closeLogger releases the log file, if any. Safe to call more than once.
func (o *cliOptions) closeLogger() {
	if o.logger == nil {
		return
	}
	_ = o.logger.Close()
	o.logger = nil
}

// loadDispatcher loads the --codebook file, or the embedded codebook.
func (o *cliOptions) loadDispatcher() (*dispatch.Dispatcher, error) {
	if o.codebookPath != "" {
		return dispatch.LoadFile(o.codebookPath)
	}
	return dispatch.Default()
}

// renderer picks plain output for --plain and for non-terminal writers.
func (o *cliOptions) renderer(out io.Writer) *ux.Renderer {
	plain := o.plain
	if f, ok := out.(*os.File); !ok || !ux.IsTerminal(f) {
		plain = true
	}
	return ux.NewRenderer(out, plain)
}

// runServe starts the HTTP service and blocks until SIGINT or SIGTERM.
func (o *cliOptions) runServe(cmd *cobra.Command, args []string) error {
	cfg := codebook.Config{
		Host:            o.host,
		Port:            o.port,
		CodebookPath:    o.codebookPath,
		GinMode:         o.ginMode,
		AllowedOrigins:  o.corsOrigins,
		RateLimit:       o.rateLimit,
		RateBurst:       o.rateBurst,
		MaxBodyBytes:    o.maxBodyBytes,
		TraceExporter:   o.traceExporter,
		OTelEndpoint:    o.otlpEndpoint,
		ShutdownTimeout: o.shutdownTimeout,
	}

	logger := o.logger.Slog()
	logger.Info("Starting codebook",
		"port", cfg.Port,
		"codebook", cfg.CodebookPath,
		"trace_exporter", cfg.TraceExporter,
		"rate_limit", cfg.RateLimit,
	)

	svc, err := codebook.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create codebook service: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx)
}

// runAsk answers the question formed by joining args with spaces.
func (o *cliOptions) runAsk(cmd *cobra.Command, args []string) error {
	out := o.renderer(cmd.OutOrStdout())

	d, err := o.loadDispatcher()
	if err != nil {
		return err
	}

	result := d.Resolve(strings.Join(args, " "))
	o.logger.Debug("Resolved question",
		"topic", result.TopicLabel(),
		"order", result.Order,
		"matched", result.Matched,
	)
	out.Answer(result.Answer, result.Matched)
	return nil
}

// runRules prints the rule table in evaluation order.
func (o *cliOptions) runRules(cmd *cobra.Command, args []string) error {
	out := o.renderer(cmd.OutOrStdout())

	d, err := o.loadDispatcher()
	if err != nil {
		return err
	}

	rules := d.Rules()
	rows := make([]ux.RuleRow, 0, len(rules))
	for _, r := range rules {
		parts := make([]string, len(r.Parts))
		for i, p := range r.Parts {
			parts[i] = string(p)
		}
		rows = append(rows, ux.RuleRow{
			Order:   r.Order,
			Topic:   r.Topic,
			Pattern: r.Pattern,
			Parts:   parts,
		})
	}
	out.Rules(rows)
	return nil
}
