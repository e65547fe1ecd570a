// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
	"github.com/Khan/docuflow/services/docs/symbols"
)

const (
	keyPrefixDocs    = "docs:"
	keyPrefixPackage = "docs:pkg:"
	keyPrefixFile    = "docs:file:"
	keyMeta          = "docs:meta"
)

// SaveMetadata describes the document last saved to a BadgerStore.
type SaveMetadata struct {
	// RunID identifies the run that produced the document.
	RunID string `json:"run_id,omitempty"`

	PackageCount int `json:"package_count"`

	FileCount int `json:"file_count"`

	// CompressedSize is the total size of the stored package records.
	CompressedSize int64 `json:"compressed_size"`

	SavedAtMilli int64 `json:"saved_at_milli"`
}

// BadgerStore mirrors a document into BadgerDB.
//
// Description:
//
//	Each package record is stored gzip-compressed JSON under its own key,
//	so readers decode one package per lookup. A file index maps every file
//	path to the first package, in name order, that contains it. Save
//	replaces the whole previous document.
//
// Thread Safety: Safe for concurrent use. BadgerDB handles its own
// transaction isolation.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ pkgdoc.Reader = (*BadgerStore)(nil)

// NewBadgerStore creates a store over an open database.
//
// Inputs:
//
//	db     - Open BadgerDB instance. Must not be nil.
//	logger - Logger for store operations. Must not be nil.
//
// Outputs:
//
//	*BadgerStore - The store.
//	error        - Non-nil if an argument is nil.
func NewBadgerStore(db *badger.DB, logger *slog.Logger) (*BadgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

// Save replaces the stored document with doc.
//
// Inputs:
//
//	ctx   - Checked before writing. Must not be nil.
//	doc   - The document to store.
//	runID - Recorded in the metadata. May be empty.
//
// Outputs:
//
//	*SaveMetadata - Summary of what was written.
//	error         - Non-nil on encoding or storage failure.
func (s *BadgerStore) Save(ctx context.Context, doc pkgdoc.Document, runID string) (*SaveMetadata, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, _ := doc.PackageNames(ctx)
	meta := &SaveMetadata{RunID: runID, PackageCount: len(names), SavedAtMilli: time.Now().UnixMilli()}

	stale, err := s.keys(keyPrefixDocs)
	if err != nil {
		return nil, fmt.Errorf("listing previous document: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	written := map[string]struct{}{keyMeta: {}}
	indexed := make(map[string]struct{})
	for _, name := range names {
		rec := doc[name]
		if rec == nil {
			continue
		}
		written[keyPrefixPackage+name] = struct{}{}
		compressed, err := compress(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding package %s: %w", name, err)
		}
		if err := wb.Set([]byte(keyPrefixPackage+name), compressed); err != nil {
			return nil, fmt.Errorf("storing package %s: %w", name, err)
		}
		meta.CompressedSize += int64(len(compressed))

		for path := range rec.Files {
			if _, ok := indexed[path]; ok {
				continue
			}
			indexed[path] = struct{}{}
			written[keyPrefixFile+path] = struct{}{}
			if err := wb.Set([]byte(keyPrefixFile+path), []byte(name)); err != nil {
				return nil, fmt.Errorf("indexing file %s: %w", path, err)
			}
		}
	}
	meta.FileCount = len(indexed)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := wb.Set([]byte(keyMeta), metaJSON); err != nil {
		return nil, fmt.Errorf("storing metadata: %w", err)
	}
	for _, key := range stale {
		if _, ok := written[key]; ok {
			continue
		}
		if err := wb.Delete([]byte(key)); err != nil {
			return nil, fmt.Errorf("removing stale key %s: %w", key, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return nil, fmt.Errorf("writing document to badger: %w", err)
	}

	s.logger.Info("document mirrored",
		slog.String("run_id", runID),
		slog.Int("packages", meta.PackageCount),
		slog.Int("files", meta.FileCount),
		slog.Int64("compressed_size", meta.CompressedSize),
	)
	return meta, nil
}

// Metadata returns the summary of the last save.
func (s *BadgerStore) Metadata(ctx context.Context) (*SaveMetadata, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	var meta SaveMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return &meta, nil
}

// GetPackage implements pkgdoc.Reader.
func (s *BadgerStore) GetPackage(ctx context.Context, name string) (*pkgdoc.PackageRecord, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	var rec *pkgdoc.PackageRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixPackage + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data, err := decompress(val)
			if err != nil {
				return err
			}
			rec, err = pkgdoc.UnmarshalRecord(name, data)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", pkgdoc.ErrPackageNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading package %s: %w", name, err)
	}
	return rec, nil
}

// GetFile implements pkgdoc.Reader.
func (s *BadgerStore) GetFile(ctx context.Context, path string) (*symbols.Table, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	var name string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixFile + path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", pkgdoc.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up file %s: %w", path, err)
	}

	rec, err := s.GetPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	t, ok := rec.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s: index points at %s", pkgdoc.ErrFileNotFound, path, name)
	}
	return t, nil
}

// PackageNames implements pkgdoc.Reader.
func (s *BadgerStore) PackageNames(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	keys, err := s.keys(keyPrefixPackage)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key[len(keyPrefixPackage):])
	}
	return names, nil
}

// keys returns the stored keys under prefix in byte order.
func (s *BadgerStore) keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})
	return keys, err
}

// Document loads every stored package into memory.
func (s *BadgerStore) Document(ctx context.Context) (pkgdoc.Document, error) {
	names, err := s.PackageNames(ctx)
	if err != nil {
		return nil, err
	}
	doc := make(pkgdoc.Document, len(names))
	for _, name := range names {
		rec, err := s.GetPackage(ctx, name)
		if err != nil {
			return nil, err
		}
		doc[name] = rec
	}
	return doc, nil
}

func compress(rec *pkgdoc.PackageRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("compressing record: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(val []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(val))
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gr.Close()
	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("decompressing record: %w", err)
	}
	return data, nil
}
