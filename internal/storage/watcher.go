package storage

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeyHandler is called with the key of a blob that changed on disk.
type KeyHandler func(key string)

// Watcher reports FileStore keys whose files were written by anyone,
// including other processes sharing the directory.
type Watcher struct {
	dir           string
	debounceDelay time.Duration
	handler       KeyHandler
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	stopChan      chan struct{}
	doneChan      chan struct{}
	stopOnce      sync.Once

	mu            sync.Mutex
	pendingTimers map[string]*time.Timer
}

// WatcherConfig holds configuration for the blob watcher
type WatcherConfig struct {
	Dir           string
	DebounceDelay time.Duration // quiet period after the last event for a key
	Logger        *slog.Logger
}

// NewWatcher creates a watcher for the blob directory.
func NewWatcher(cfg WatcherConfig, handler KeyHandler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		dir:           cfg.Dir,
		debounceDelay: cfg.DebounceDelay,
		handler:       handler,
		watcher:       fsWatcher,
		logger:        cfg.Logger.With("component", "storage-watcher"),
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
		pendingTimers: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. The directory is created if it does not exist yet.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to add directory to watch: %w", err)
	}

	go w.processEvents()

	w.logger.Debug("blob watcher started",
		"dir", w.dir,
		"debounce_ms", w.debounceDelay.Milliseconds(),
	)
	return nil
}

// Stop stops watching and cancels pending notifications.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		<-w.doneChan

		w.mu.Lock()
		for key, timer := range w.pendingTimers {
			timer.Stop()
			delete(w.pendingTimers, key)
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer close(w.doneChan)

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// writes land through a rename, which shows up as Create
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	key, ok := keyForPath(w.dir, event.Name)
	if !ok {
		return
	}
	w.logger.Debug("blob event detected", "event", event.Op.String(), "key", key)
	w.schedule(key)
}

// schedule delivers key once no further events arrive for debounceDelay.
func (w *Watcher) schedule(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}

	if timer, exists := w.pendingTimers[key]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		if w.pendingTimers[key] == timer {
			delete(w.pendingTimers, key)
		}
		w.mu.Unlock()

		w.handler(key)
	})
	w.pendingTimers[key] = timer
}
