package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"agentcore/agenterr"
)

// Watcher hot-reloads error-pattern overrides when the config file changes.
// On every change the registry is reset to the built-in tables and the
// current file's overrides are re-applied, so deleting an override from the
// file takes effect without a restart.
//
// Reloads only touch the pattern registry. Agent launch commands are read at
// session start, so a changed command applies to the next session naturally.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	reg    *agenterr.Registry
	path   string
	done   chan struct{}
}

// Watch starts watching path and applying pattern overrides into reg.
func Watch(path string, reg *agenterr.Registry, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		logger: logger,
		reg:    reg,
		path:   path,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous tables", "path", w.path, "err", err)
		return
	}

	w.reg.Clear()
	agenterr.RegisterBuiltins(w.reg)
	if err := cfg.ApplyPatterns(w.reg); err != nil {
		w.logger.Warn("pattern overrides rejected, keeping built-ins", "path", w.path, "err", err)
		return
	}
	w.logger.Info("error pattern tables reloaded", "path", w.path)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
