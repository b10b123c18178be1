package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/stagecraft/core"
)

// DebouncePeriod coalesces bursts of editor writes into one reload
var DebouncePeriod = 200 * time.Millisecond

// ReloadFunc receives every reloaded config, or the error that prevented loading it
type ReloadFunc func(cfg *Config, err error)

// Watch reloads path whenever it is written or re-created and calls fn from a watcher goroutine
// The directory is watched so editors that replace the file are followed. Returns once the
// watcher is set up; watching stops when ctx is done
func Watch(ctx context.Context, path string, log logrus.FieldLogger, fn ReloadFunc) error {
	if _, err := FormatOf(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	target := filepath.Clean(path)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	// Runs on the timer's goroutine, outside core.Go
	reload := func() {
		defer func() {
			if r := recover(); r != nil {
				core.HandleCrash(r)
			}
		}()

		cfg, err := Load(target)
		if err != nil {
			log.WithError(err).Warn("config reload failed")
		} else {
			log.WithField("path", target).Info("config reloaded")
		}
		fn(cfg, err)
	}

	core.Go(func() {
		defer watcher.Close()
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				log.WithField("event", event.String()).Debug("config file event")

				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(DebouncePeriod, reload)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			}
		}
	})

	return nil
}
