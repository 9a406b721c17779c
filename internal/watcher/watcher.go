// Package watcher reloads the config file when it changes on disk.
package watcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

const defaultDebounce = 250 * time.Millisecond

// ReloadFunc receives every successfully parsed new config.
type ReloadFunc func(cfg *config.Config)

// Watcher watches one config file. The parent directory is watched so
// editors that replace the file on save are still seen.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

// New creates a watcher for path.
func New(path string, onReload ReloadFunc) *Watcher {
	w := &Watcher{path: filepath.Clean(path), onReload: onReload, debounce: defaultDebounce}
	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = sha256.Sum256(data)
	}
	return w
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	log.Debugf("watching config file %s", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warnf("config reload skipped: %v", err)
		return
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	unchanged := bytes.Equal(sum[:], w.lastHash[:])
	w.lastHash = sum
	w.mu.Unlock()
	if unchanged {
		return
	}

	cfg, err := config.LoadConfigOptional(w.path, false)
	if err != nil {
		log.Errorf("config reload failed, keeping previous config: %v", err)
		return
	}
	log.Infof("config reloaded from %s", w.path)
	w.onReload(cfg)
}
