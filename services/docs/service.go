// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package docs runs documentation generation for a monorepo: it discovers
// packages, builds one shared module graph, assembles a record per package
// and writes the resulting document.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/config"
	"github.com/Khan/docuflow/services/docs/discovery"
	"github.com/Khan/docuflow/services/docs/graph"
	"github.com/Khan/docuflow/services/docs/pkgdoc"
	"github.com/Khan/docuflow/services/docs/store"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDocumentStore sets where documents are written.
func WithDocumentStore(ds *store.DocumentStore) ServiceOption {
	return func(s *Service) {
		if ds != nil {
			s.documents = ds
		}
	}
}

// WithMirror also saves every generated document into a BadgerDB store.
func WithMirror(bs *store.BadgerStore) ServiceOption {
	return func(s *Service) {
		s.mirror = bs
	}
}

// Service generates documentation documents.
//
// Description:
//
//	Each Generate call is an independent run with its own module graph.
//	A run either writes a complete document or nothing: parse and read
//	failures abort it before the output is touched.
//
// Thread Safety: Generate may be called concurrently; runs share no state
// besides the stores.
type Service struct {
	cfg       config.Config
	parser    *ast.Parser
	documents *store.DocumentStore
	mirror    *store.BadgerStore
	logger    *slog.Logger
}

// RunResult summarizes one generation run.
type RunResult struct {
	RunID     string
	Document  pkgdoc.Document
	Files     int
	Failures  []discovery.Failure
	Duration  time.Duration
	OutputURL string
}

// NewService creates a service for cfg.
//
// Outputs:
//
//	*Service - The service.
//	error    - Non-nil if cfg fails validation.
func NewService(cfg config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:       cfg,
		documents: store.NewDocumentStore(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = ast.NewParser(ast.WithLogger(s.logger))
	return s, nil
}

// Generate runs documentation generation once.
//
// Description:
//
//	Discovers the packages under the configured root and assembles each
//	against one module graph, so a file shared by several packages is
//	parsed once. A package with an invalid manifest is skipped and
//	reported in RunResult.Failures. The document is written to the
//	configured output and mirrored when a mirror is set.
//
// Outputs:
//
//	*RunResult - The document and run statistics.
//	error      - Non-nil on discovery, parse, read or write failure. No
//	             output is written when the error comes from assembly.
func (s *Service) Generate(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))

	ctx, span := startGenerateSpan(ctx, runID, s.cfg.Root)
	defer span.End()

	res, err := s.generate(ctx, runID, logger)
	duration := time.Since(start)
	recordGenerate(err == nil, duration)
	if err != nil {
		setGenerateSpanError(span, err)
		logger.Error("documentation run failed", slog.String("error", err.Error()))
		return nil, err
	}
	res.Duration = duration
	setGenerateSpanResult(span, len(res.Document), res.Files, len(res.Failures))

	logger.Info("documentation run complete",
		slog.Int("packages", len(res.Document)),
		slog.Int("files", res.Files),
		slog.Int("skipped_packages", len(res.Failures)),
		slog.String("output", res.OutputURL),
		slog.Duration("duration", duration),
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, runID string, logger *slog.Logger) (*RunResult, error) {
	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", s.cfg.Root, err)
	}

	found, err := discovery.Discover(ctx, root, s.cfg.Packages, discovery.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string, len(found.Manifests))
	for _, m := range found.Manifests {
		entries[m.Name] = m.Entry
	}

	cache := graph.NewCache()
	builder, err := graph.NewBuilder(cache, s.parser,
		graph.WithRoots(root),
		graph.WithPackages(entries),
		graph.WithBuilderLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	resolver := graph.NewResolver(cache,
		graph.WithMaxHops(s.cfg.MaxHops),
		graph.WithResolverLogger(logger),
	)
	assembler, err := pkgdoc.NewAssembler(builder, resolver, pkgdoc.WithAssemblerLogger(logger))
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		RunID:     runID,
		Document:  make(pkgdoc.Document, len(found.Manifests)),
		Failures:  found.Failures,
		OutputURL: s.cfg.Output,
	}
	for _, m := range found.Manifests {
		rec, err := assembler.Assemble(ctx, m)
		if errors.Is(err, pkgdoc.ErrInvalidManifest) {
			logger.Warn("skipping package", slog.String("package", m.Name), slog.String("error", err.Error()))
			res.Failures = append(res.Failures, discovery.Failure{Path: filepath.Join(m.Dir, "package.json"), Err: err})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("documenting %s: %w", m.Name, err)
		}
		res.Document[m.Name] = rec
	}
	res.Files = cache.Len()

	if err := s.documents.Write(ctx, s.cfg.Output, res.Document); err != nil {
		return nil, err
	}
	if s.mirror != nil {
		if _, err := s.mirror.Save(ctx, res.Document, runID); err != nil {
			return nil, fmt.Errorf("mirroring document: %w", err)
		}
	}
	return res, nil
}
