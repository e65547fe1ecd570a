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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

const (
	// DefaultDebounce is how long Watch waits for a burst of changes to end.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultMinInterval is the minimum time between two watch runs.
	DefaultMinInterval = 2 * time.Second
)

// skippedDirs are never watched.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"dist":         {},
}

// WatchOptions tunes Watch.
type WatchOptions struct {
	Debounce    time.Duration
	MinInterval time.Duration

	// OnRun is called after every run with its result or error.
	OnRun func(*RunResult, error)
}

// Watch runs Generate once, then again whenever a source file or manifest
// under the root changes, until ctx is canceled.
//
// Description:
//
//	Changes are debounced and runs are rate limited. A failed run is logged
//	and reported to OnRun; watching continues. Directories created while
//	watching are added.
//
// Outputs:
//
//	error - Non-nil if the watcher cannot start. Returns nil when ctx is
//	        canceled.
func (s *Service) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", s.cfg.Root, err)
	}
	if err := addTree(watcher, root); err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	run := func() {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		res, err := s.Generate(ctx)
		if opts.OnRun != nil {
			opts.OnRun(res, err)
		}
	}

	run()

	debounce := time.NewTimer(opts.Debounce)
	debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						s.logger.Warn("watching new directory failed",
							slog.String("dir", ev.Name), slog.String("error", err.Error()))
					}
				}
			}
			if !relevant(ev.Name) {
				continue
			}
			s.logger.Debug("change detected", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			debounce.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-debounce.C:
			watchTriggersTotal.Inc()
			run()
		}
	}
}

// relevant reports whether a change to path can alter the document.
func relevant(path string) bool {
	if filepath.Base(path) == "package.json" {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs":
		return true
	}
	return false
}

func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := skippedDirs[d.Name()]; skip && path != dir {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
