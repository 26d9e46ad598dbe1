package pbls

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// rootWatcher recursively watches a workspace's search roots with fsnotify
// and evicts stale File entries on disk changes, so the next load_all
// (workspace/symbol, references) or import load on open/edit reads the
// file from disk again. Until then, requests naming an evicted URI fail
// as unknown-file. This is purely an optimization (see SPEC_FULL.md's Workspace
// supplement): correctness never depends on it running.
type rootWatcher struct {
	fs *fsnotify.Watcher
}

func newRootWatcher(roots []string, logger *zap.Logger) (*rootWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if addErr := fsw.Add(path); addErr != nil {
				logger.Warn("watch: failed to add directory", zap.String("path", path), zap.Error(addErr))
			}
			return nil
		})
	}
	return &rootWatcher{fs: fsw}, nil
}

func (r *rootWatcher) Close() error {
	return r.fs.Close()
}

// run drains fsnotify events until ctx is cancelled, evicting the File
// keyed by each written, removed or renamed path's URI. New directories are watched as they appear, mirroring how an
// editor's own file tree grows while proto files are added.
func (r *rootWatcher) run(ctx context.Context, w *Workspace) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.fs.Events:
			if !ok {
				return
			}
			r.handle(ev, w)
		case _, ok := <-r.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (r *rootWatcher) handle(ev fsnotify.Event, w *Workspace) {
	if info, err := filepath.Abs(ev.Name); err == nil {
		if ev.Op&(fsnotify.Create) != 0 {
			if st, statErr := statIsDir(info); statErr == nil && st {
				_ = r.fs.Add(info)
				return
			}
		}
	}

	uri := fileURIForPath(ev.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.files, uri)
	}
}

// WatchRoots starts watching the workspace's configured search roots in
// the background, evicting stale entries as files change on disk. It is a
// no-op unless Config.WatchRoots is set. The returned error only reflects
// setup failure; watching itself runs until ctx is cancelled or Close is
// called.
func (w *Workspace) WatchRoots(ctx context.Context) error {
	if !w.config.WatchRoots {
		return nil
	}
	rw, err := newRootWatcher(w.config.Roots, w.logger)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.watch = rw
	w.mu.Unlock()
	go rw.run(ctx, w)
	return nil
}

// Close releases the workspace's file watcher, if one is running.
func (w *Workspace) Close() error {
	w.mu.Lock()
	rw := w.watch
	w.watch = nil
	w.mu.Unlock()
	if rw == nil {
		return nil
	}
	return rw.Close()
}

func statIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
