// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package docs

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

const docsTracerName = "docuflow.docs"

var (
	generateRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "docs",
			Name:      "generate_runs_total",
			Help:      "Total number of documentation runs by status.",
		},
		[]string{"status"},
	)

	generateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docuflow",
			Subsystem: "docs",
			Name:      "generate_duration_seconds",
			Help:      "Duration of documentation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	watchTriggersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "docs",
			Name:      "watch_triggers_total",
			Help:      "Total number of regenerations started by file changes.",
		},
	)
)

func startGenerateSpan(ctx context.Context, runID, root string) (context.Context, trace.Span) {
	return otel.Tracer(docsTracerName).Start(ctx, "docs.Service.Generate",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.root", root),
		),
	)
}

func setGenerateSpanResult(span trace.Span, packages, files, skipped int) {
	span.SetAttributes(
		attribute.Int("run.packages", packages),
		attribute.Int("run.files", files),
		attribute.Int("run.skipped_packages", skipped),
	)
}

func setGenerateSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func recordGenerate(success bool, d time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	generateRunsTotal.WithLabelValues(status).Inc()
	generateDuration.Observe(d.Seconds())
}
