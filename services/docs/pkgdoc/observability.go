// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pkgdoc

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pkgdocTracerName = "docuflow.pkgdoc"

var (
	packagesAssembledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "pkgdoc",
			Name:      "packages_assembled_total",
			Help:      "Total number of package assemblies by status.",
		},
		[]string{"status"},
	)

	declarationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuflow",
			Subsystem: "pkgdoc",
			Name:      "declarations_total",
			Help:      "Total number of exported names processed, resolved or skipped.",
		},
		[]string{"result"},
	)
)

func startAssembleSpan(ctx context.Context, pkg, entry string) (context.Context, trace.Span) {
	return otel.Tracer(pkgdocTracerName).Start(ctx, "pkgdoc.Assembler.Assemble",
		trace.WithAttributes(
			attribute.String("package.name", pkg),
			attribute.String("package.entry", entry),
		),
	)
}

func setAssembleSpanResult(span trace.Span, resolved, skipped, files int) {
	span.SetAttributes(
		attribute.Int("assemble.resolved", resolved),
		attribute.Int("assemble.skipped", skipped),
		attribute.Int("assemble.files", files),
	)
}

func setAssembleSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func recordAssembly(success bool, resolved, skipped int) {
	if !success {
		packagesAssembledTotal.WithLabelValues("error").Inc()
		return
	}
	packagesAssembledTotal.WithLabelValues("success").Inc()
	declarationsTotal.WithLabelValues("resolved").Add(float64(resolved))
	declarationsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
