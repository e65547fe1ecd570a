// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

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

const graphTracerName = "docuflow.graph"

// Resolution outcome label values.
const (
	outcomeResolved   = "resolved"
	outcomeUnresolved = "unresolved"
	outcomeExternal   = "external"
	outcomeCircular   = "circular"
)

var (
	filesBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "graph",
			Name:      "files_built_total",
			Help:      "Total number of symbol tables built, by status.",
		},
		[]string{"status"},
	)

	fileBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docuflow",
			Subsystem: "graph",
			Name:      "file_build_duration_seconds",
			Help:      "Time to read, parse and partition one file.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// resolutionsTotal counts resolver outcomes.
	//
	// Labels:
	//   - namespace: "value" or "type"
	//   - outcome: resolved, unresolved, external, circular
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "graph",
			Name:      "resolutions_total",
			Help:      "Total number of symbol resolutions by namespace and outcome.",
		},
		[]string{"namespace", "outcome"},
	)
)

func startBuildSpan(ctx context.Context, entry string) (context.Context, trace.Span) {
	return otel.Tracer(graphTracerName).Start(ctx, "graph.Builder.Build",
		trace.WithAttributes(attribute.String("build.entry", entry)),
	)
}

func setBuildSpanResult(span trace.Span, built, cacheSize int) {
	span.SetAttributes(
		attribute.Int("build.files_built", built),
		attribute.Int("build.cache_size", cacheSize),
	)
}

func setBuildSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func recordBuild(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	filesBuiltTotal.WithLabelValues(status).Inc()
	fileBuildDuration.Observe(duration.Seconds())
}

func recordResolution(namespace, outcome string) {
	resolutionsTotal.WithLabelValues(namespace, outcome).Inc()
}
