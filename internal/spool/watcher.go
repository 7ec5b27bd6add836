package spool

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/halverson/dispatch/internal/task"
)

const doneSuffix = ".done"

// EnqueueFunc receives attempts parsed from a manifest.
type EnqueueFunc func(*task.Instance) error

// Watcher watches a spool directory for task manifests and feeds their
// attempts to an enqueue function.
type Watcher struct {
	dir     string
	enqueue EnqueueFunc
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a Watcher over dir. The directory is created if it
// does not exist.
func NewWatcher(dir string, enqueue EnqueueFunc, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		enqueue: enqueue,
		logger:  logger,
		watcher: fw,
	}, nil
}

// Run ingests manifests already present in the directory, then blocks
// processing filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	// Pick up manifests that arrived while no coordinator was running.
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.ingest(filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.ingest(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("spool watch error", "error", err)
		}
	}
}

// ingest parses one manifest file and enqueues its attempts. Bad
// manifests are logged and left in place for inspection; processed ones
// are renamed with a ".done" suffix.
func (w *Watcher) ingest(path string) {
	name := filepath.Base(path)
	if strings.HasSuffix(name, doneSuffix) || strings.HasPrefix(name, ".") {
		return
	}
	ext := filepath.Ext(name)
	if ext != ".yaml" && ext != ".yml" {
		return
	}

	instances, err := ParseManifest(path)
	if err != nil {
		w.logger.Warn("ignoring bad manifest", "path", path, "error", err)
		return
	}

	accepted := 0
	for _, ins := range instances {
		if err := w.enqueue(ins); err != nil {
			w.logger.Warn("enqueue from manifest failed", "key", ins.Key.String(), "error", err)
			continue
		}
		accepted++
	}
	w.logger.Info("manifest ingested", "path", path, "attempts", accepted)

	if err := os.Rename(path, path+doneSuffix); err != nil {
		w.logger.Warn("could not mark manifest done", "path", path, "error", err)
	}
}
