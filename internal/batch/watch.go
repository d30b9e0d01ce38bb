// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits after the last change before
// re-running.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc processes a manifest. Its error is logged and watching continues.
type RunFunc func(ctx context.Context, m *Manifest) error

// Watch runs fn on the manifest at path, then again every time the manifest
// or one of its inputs changes, until ctx is done. Bursts of changes within
// debounce collapse into one run.
func Watch(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, fn RunFunc) error {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve manifest path")
	}
	m, err := LoadManifest(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer w.Close()

	ws := &watchSet{w: w, dirs: map[string]bool{}, log: log}
	ws.update(path, m)

	run := func() {
		if err := fn(ctx, m); err != nil {
			log.Error("batch run failed", zap.Error(err))
		}
	}
	run()

	// Editors often replace files instead of writing them, so directories
	// are watched and events filtered by name.
	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !ws.files[filepath.Clean(ev.Name)] {
				continue
			}
			log.Debug("change detected", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-trigger:
			next, err := LoadManifest(path)
			if err != nil {
				log.Error("manifest reload failed", zap.Error(err))
				continue
			}
			m = next
			ws.update(path, m)
			run()
		}
	}
}

type watchSet struct {
	w     *fsnotify.Watcher
	dirs  map[string]bool
	files map[string]bool
	log   *zap.Logger
}

// update watches the directories of the manifest and every input. Directories
// that are no longer needed stay watched; their events are filtered out.
func (s *watchSet) update(manifest string, m *Manifest) {
	s.files = map[string]bool{filepath.Clean(manifest): true}
	for _, in := range m.Inputs() {
		if abs, err := filepath.Abs(in); err == nil {
			s.files[abs] = true
		}
	}
	for f := range s.files {
		dir := filepath.Dir(f)
		if s.dirs[dir] {
			continue
		}
		if err := s.w.Add(dir); err != nil {
			s.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		s.dirs[dir] = true
	}
}
