package fixture

import (
	"fmt"
	"time"

	"github.com/conduit-lang/mockls/internal/mock"
	"github.com/conduit-lang/mockls/internal/watch"
	"go.uber.org/zap"
)

// Watcher reapplies a fixture file to a service whenever the file changes.
type Watcher struct {
	path     string
	service  *mock.DocumentService
	logger   *zap.Logger
	onReload func(error)
	files    *watch.FileWatcher
}

// WatcherConfig tunes a Watcher.
type WatcherConfig struct {
	// Delay debounces bursts of writes. Zero uses watch.DefaultDelay.
	Delay time.Duration

	// OnReload, when set, is called after every reload attempt.
	OnReload func(error)
}

// NewWatcher creates a watcher for the fixture at path.
func NewWatcher(path string, svc *mock.DocumentService, logger *zap.Logger, cfg WatcherConfig) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		path:     path,
		service:  svc,
		logger:   logger,
		onReload: cfg.OnReload,
	}

	files, err := watch.NewFileWatcher([]string{path}, cfg.Delay, w.changed, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to watch fixture: %w", err)
	}
	w.files = files
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.logger.Info("watching fixture", zap.String("path", w.path))
	return w.files.Start()
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	return w.files.Stop()
}

func (w *Watcher) changed([]string) error {
	err := w.Reload()
	if w.onReload != nil {
		w.onReload(err)
	}
	return err
}

// Reload resets the service results and applies the fixture again. Client
// proxies are left alone. A fixture that fails to load leaves the service
// as it was.
func (w *Watcher) Reload() error {
	f, err := Load(w.path)
	if err != nil {
		return err
	}

	w.service.ResetResults()

	if err := Apply(w.service, f); err != nil {
		return err
	}
	w.logger.Info("fixture reloaded", zap.String("path", w.path))
	return nil
}
