// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists documentation documents: as a single JSON object at
// any afs URL, and as a BadgerDB mirror queried one package at a time.
package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

// DocumentStore reads and writes whole documents by URL.
//
// Description:
//
//	URLs may be local paths, file:// or mem:// locations, or any scheme
//	registered with afs. Relative local paths are made absolute against
//	the working directory.
//
// Thread Safety: Safe for concurrent use.
type DocumentStore struct {
	fs afs.Service
}

// NewDocumentStore creates a store over fs. A nil fs uses afs.New().
func NewDocumentStore(fs afs.Service) *DocumentStore {
	if fs == nil {
		fs = afs.New()
	}
	return &DocumentStore{fs: fs}
}

// Write serializes doc and uploads it to URL, replacing any previous object.
func (s *DocumentStore) Write(ctx context.Context, URL string, doc pkgdoc.Document) error {
	location, err := normalize(URL)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing document to %s: %w", location, err)
	}
	return nil
}

// Read downloads and decodes the document at URL.
func (s *DocumentStore) Read(ctx context.Context, URL string) (pkgdoc.Document, error) {
	location, err := normalize(URL)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("reading document from %s: %w", location, err)
	}
	return pkgdoc.UnmarshalDocument(data)
}

func normalize(URL string) (string, error) {
	if URL == "" {
		return "", fmt.Errorf("document URL must not be empty")
	}
	if strings.Contains(URL, "://") {
		return URL, nil
	}
	abs, err := filepath.Abs(URL)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", URL, err)
	}
	return abs, nil
}
