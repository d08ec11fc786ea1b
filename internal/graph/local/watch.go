package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	storagefs "blockgallery/internal/storage/fs"
)

// Watcher re-imports notes as they change on disk.
type Watcher struct {
	store   *Store
	root    string
	watcher *fsnotify.Watcher
	locks   *storagefs.Locker
	// Applied, when set, is called after every handled event.
	Applied func(relPath string, removed bool)
}

func NewWatcher(store *Store, root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	fw := &Watcher{store: store, root: root, watcher: w, locks: storagefs.NewLocker()}
	if err := fw.addDirs(root); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return fw, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	slog.Info("watching notes", "root", w.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("notes watcher", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if strings.Contains(filepath.ToSlash(event.Name), "/.") {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirs(event.Name); err != nil {
				slog.Warn("watch new dir", "path", event.Name, "err", err)
			}
			return
		}
	}
	if !isNoteFile(event.Name) {
		return
	}
	rel, err := relNotePath(w.root, event.Name)
	if err != nil {
		return
	}

	unlock := w.locks.Lock(rel)
	defer unlock()

	removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !removed {
		err = w.reimport(ctx, rel, event.Name)
		if errors.Is(err, os.ErrNotExist) {
			removed = true
		}
	}
	if removed {
		err = w.store.RemoveNote(ctx, rel)
	}
	if err != nil {
		slog.Warn("apply note change", "path", rel, "op", event.Op.String(), "err", err)
		return
	}
	slog.Debug("note change applied", "path", rel, "op", event.Op.String(), "removed", removed)
	if w.Applied != nil {
		w.Applied(rel, removed)
	}
}

func (w *Watcher) reimport(ctx context.Context, rel, abs string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	return w.store.ImportNote(ctx, rel, content, info.ModTime(), info.Size())
}
