// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// astTracerName is the OTel tracer name for the parser adapter.
const astTracerName = "docuflow.ast"

var (
	// parseDuration measures tree-sitter parse plus conversion time.
	//
	// Labels:
	//   - grammar: "tsx", "typescript", "javascript"
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuflow",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of source parsing in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"grammar", "status"},
	)

	// filesParsedTotal counts parse attempts.
	filesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "ast",
			Name:      "files_parsed_total",
			Help:      "Total number of parsed source files.",
		},
		[]string{"grammar", "status"},
	)
)

// startParseSpan opens a span for one Parse call.
func startParseSpan(ctx context.Context, grammar, filePath string, size int) (context.Context, trace.Span) {
	return otel.Tracer(astTracerName).Start(ctx, "ast.Parser.Parse",
		trace.WithAttributes(
			attribute.String("parse.grammar", grammar),
			attribute.String("parse.file", filePath),
			attribute.Int("parse.size_bytes", size),
		),
	)
}

// setParseSpanResult records the statement count on a successful span.
func setParseSpanResult(span trace.Span, statements int) {
	span.SetAttributes(attribute.Int("parse.statements", statements))
}

// setParseSpanError marks the span as failed by a syntax error.
func setParseSpanError(span trace.Span, filePath string) {
	span.SetStatus(codes.Error, "syntax error in "+filePath)
}

// recordParseMetrics records one parse outcome.
func recordParseMetrics(grammar string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	parseDuration.WithLabelValues(grammar, status).Observe(duration.Seconds())
	filesParsedTotal.WithLabelValues(grammar, status).Inc()
}
