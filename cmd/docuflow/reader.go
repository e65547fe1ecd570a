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
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
	"github.com/Khan/docuflow/services/docs/store"
)

// docReader is a pkgdoc.Reader with the resource behind it.
type docReader struct {
	pkgdoc.Reader
	close func() error
}

func (r docReader) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// inputFlags registers --input and --badger on cmd.
func inputFlags(cmd *cobra.Command, input, badgerDir *string) {
	cmd.Flags().StringVar(input, "input", "", "Document URL to read (default: the configured output)")
	cmd.Flags().StringVar(badgerDir, "badger", "", "Read from this BadgerDB mirror instead of a document")
}

// openReader opens the document named by the input flags: a BadgerDB mirror
// when badgerDir is set, otherwise the JSON document at input.
func openReader(ctx context.Context, a *app, input, badgerDir string) (docReader, error) {
	if badgerDir != "" {
		db, err := badger.Open(badger.DefaultOptions(badgerDir).WithLogger(nil))
		if err != nil {
			return docReader{}, fmt.Errorf("opening badger at %s: %w", badgerDir, err)
		}
		bs, err := store.NewBadgerStore(db, a.logger)
		if err != nil {
			db.Close()
			return docReader{}, err
		}
		return docReader{Reader: bs, close: db.Close}, nil
	}
	if input == "" {
		input = a.cfg.Output
	}
	doc, err := store.NewDocumentStore(nil).Read(ctx, input)
	if err != nil {
		return docReader{}, err
	}
	return docReader{Reader: doc, close: func() error { return nil }}, nil
}
