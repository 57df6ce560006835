// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package briefing

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoPath is returned by Watch when the briefing has no file.
var ErrNoPath = errors.New("briefing has no file to watch")

type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// Watch re-renders the briefing whenever its file changes and then calls
// onChange. The parent directory is watched so editors that replace the
// file are seen.
func (b *Briefing) Watch(onChange func()) error {
	if b.opts.Path == "" {
		return ErrNoPath
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	target := filepath.Clean(b.opts.Path)
	if err := fs.Add(filepath.Dir(target)); err != nil {
		fs.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	w := &watcher{fs: fs, done: make(chan struct{})}

	b.mu.Lock()
	old := b.watcher
	b.watcher = w
	b.mu.Unlock()
	if old != nil {
		old.close()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fs.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				w.schedule(func() {
					if _, err := b.Render(); err != nil {
						log.Printf("BRIEFING_RELOAD | error=%v", err)
					} else {
						log.Printf("BRIEFING_RELOAD | path=%s", target)
					}
					if onChange != nil {
						onChange()
					}
				})
			case err, ok := <-fs.Errors:
				if !ok {
					return
				}
				log.Printf("BRIEFING_WATCH_ERROR | error=%v", err)
			}
		}
	}()
	return nil
}

func (w *watcher) schedule(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(DefaultDebounce, fn)
}

func (w *watcher) close() error {
	w.mu.Lock()
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// Close stops watching. It is safe to call without Watch.
func (b *Briefing) Close() error {
	b.mu.Lock()
	w := b.watcher
	b.watcher = nil
	b.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.close()
}
