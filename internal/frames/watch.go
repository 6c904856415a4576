package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// debounce collapses the write bursts a single file save produces.
const debounce = 20 * time.Millisecond

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Watcher loads image files dropped into a directory into a Store.
type Watcher struct {
	dir   string
	store *Store
	log   *zap.Logger
}

// NewWatcher creates a watcher feeding store from dir.
func NewWatcher(dir string, store *Store, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{dir: dir, store: store, log: log}
}

// Run watches until ctx is done. The newest image already in the
// directory is loaded first.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create frame watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	if newest := newestImage(w.dir); newest != "" {
		w.load(newest)
	}

	timer := time.NewTimer(0)
	<-timer.C // drain initial timer

	var pending string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, ok := contentTypeFor(event.Name); !ok {
				continue
			}
			pending = event.Name
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("frame watcher error", zap.Error(err))

		case <-timer.C:
			if pending != "" {
				w.load(pending)
				pending = ""
			}
		}
	}
}

func (w *Watcher) load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read frame", zap.String("path", path), zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}
	ct := sniff(path, data)
	w.store.Set(data, ct)
	w.log.Debug("frame loaded", zap.String("path", path), zap.String("type", ct), zap.Int("bytes", len(data)))
}

// sniff trusts the file contents over the extension when they are a
// recognised image.
func sniff(path string, data []byte) string {
	detected := mimetype.Detect(data)
	for _, ct := range contentTypes {
		if detected.Is(ct) {
			return ct
		}
	}
	ct, _ := contentTypeFor(path)
	return ct
}

func contentTypeFor(path string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	return ct, ok
}

func newestImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := contentTypeFor(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}
