package settings

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/treesitter-ls/errors"
	"github.com/teranos/treesitter-ls/logger"
)

// ReloadCallback is invoked with the newly-loaded Settings after a
// watched file changes. A returned error is logged but does not stop
// the watcher or block other callbacks.
type ReloadCallback func(*Settings) error

// Watcher debounces filesystem change events on the user and project
// settings files and triggers Manager.Load, notifying registered
// callbacks (in practice: the server façade's
// workspace/semanticTokens/refresh broadcast).
//
// Grounded directly on teranos-QNTX's am.ConfigWatcher: same
// fsnotify.Watcher + debounce-timer shape (without own-write suppression),
// generalized from a single fixed config path to the user+project pair
// this server watches, and from TOML-only backup-file names to this
// server's own settings filename.
type Watcher struct {
	manager  *Manager
	workDir  string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer
}

// NewWatcher creates a Watcher over manager's user and project config
// files (whichever exist at construction time; a file created later is
// not watched, since directories are not watched for creation).
func NewWatcher(manager *Manager, workDir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create settings watcher")
	}

	w := &Watcher{
		manager:  manager,
		workDir:  workDir,
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
	}

	if manager.userPath != "" {
		_ = fsw.Add(manager.userPath)
	}
	if projPath := FindProjectConfig(workDir); projPath != "" {
		_ = fsw.Add(projPath)
	}

	return w, nil
}

// OnReload registers a callback invoked after every successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins the watch loop in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	log := logger.ComponentLogger("settings")
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debugw("settings file changed", logger.FieldFile, event.Name, "op", event.Op.String())
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("settings watcher error", logger.FieldError, err.Error())
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	log := logger.ComponentLogger("settings")

	s, err := w.manager.Load(w.workDir, nil)
	if err != nil {
		log.Warnw("settings reload failed", logger.FieldError, err.Error())
		return
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(s); err != nil {
			log.Warnw("settings reload callback error", logger.FieldError, err.Error())
		}
	}
}
