package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/utils"
)

const watchDebounce = 250 * time.Millisecond

// A Watcher rereads a config file whenever it changes and publishes each valid version.
// Invalid versions are logged and skipped.
type Watcher struct {
	path    string
	logger  logging.Logger
	watcher *fsnotify.Watcher
	configs chan *Config
	workers *utils.StoppableWorkers
}

// NewWatcher watches filePath. The directory is watched rather than the file so that editors
// that replace the file on save are followed.
func NewWatcher(filePath string, logger logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating config watcher")
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "watching %s", filePath), fsWatcher.Close())
	}
	w := &Watcher{
		path:    abs,
		logger:  logger,
		watcher: fsWatcher,
		configs: make(chan *Config, 1),
	}
	w.workers = utils.NewStoppableWorkers(w.run)
	return w, nil
}

// Config delivers each new valid config. Only the newest unread config is kept.
func (w *Watcher) Config() <-chan *Config {
	return w.configs
}

func (w *Watcher) run(ctx context.Context) {
	debounced := debounce.New(watchDebounce)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			debounced(func() { w.reload(ctx) })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cfg, err := Read(ctx, w.path, w.logger)
	if err != nil {
		w.logger.Errorw("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	w.logger.Infow("config changed", "path", w.path)
	for {
		select {
		case w.configs <- cfg:
			return
		default:
		}
		// drop the unread older config
		select {
		case <-w.configs:
		default:
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.workers.Stop()
	return w.watcher.Close()
}
