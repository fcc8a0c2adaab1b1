// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/confplane/expconf/internal/document"
	xlog "github.com/confplane/expconf/internal/log"
	"github.com/confplane/expconf/internal/metrics"
)

// Holder holds the current resolved document with atomic reloading.
// Reload is all-or-nothing: if the new file fails to load or validate, the
// previous document stays in place.
type Holder struct {
	mu      sync.RWMutex
	current *document.Document
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- *document.Document
}

// NewHolder creates a holder seeded with an initial document.
func NewHolder(initial *document.Document, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  xlog.WithComponent("config"),
	}
}

// Get returns the current document.
func (h *Holder) Get() *document.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload reloads the file and swaps the document atomically.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newDoc, err := h.loader.Load()
	if err != nil {
		metrics.ReloadTotal.WithLabelValues("error").Inc()
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Str("kind", ErrorKind(err)).
			Msg("failed to load new configuration, keeping previous one")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldDoc := h.current
	h.current = newDoc
	h.mu.Unlock()

	h.notifyListeners(newDoc)
	h.logChanges(oldDoc, newDoc)

	metrics.ReloadTotal.WithLabelValues("ok").Inc()
	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
	return nil
}

// StartWatcher watches the config file and reloads on write/create events,
// debounced so editors that write in bursts trigger a single reload.
func (h *Holder) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(h.loader.Path()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.loader.Path()).
		Msg("watching config file for changes")

	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				metrics.WatcherEventsTotal.Inc()
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop closes the watcher (if running).
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel that receives the new document after
// every successful reload. Delivery is non-blocking; a full channel is
// skipped. The caller owns the channel.
func (h *Holder) RegisterListener(ch chan<- *document.Document) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(newDoc *document.Document) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- newDoc:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(old, newDoc *document.Document) {
	if old == nil {
		return
	}
	changed := Diff(old, newDoc)
	if len(changed) == 0 {
		h.logger.Info().Str("event", "config.reload_unchanged").Msg("configuration content unchanged")
		return
	}
	h.logger.Info().
		Str("event", "config.changed").
		Strs("paths", changed).
		Msg("configuration changed")
}
