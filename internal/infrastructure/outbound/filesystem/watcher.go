package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

// Watcher watches the data directory for reference table and rule file
// changes and triggers a reload callback.
type Watcher struct {
	rootDir  string
	debounce time.Duration
	logger   ports.Logger
	watcher  *fsnotify.Watcher
	ignore   map[string]struct{}
	onReload func()
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a file watcher for the given directory. Files named in
// ignore (base names) never trigger a reload, which keeps appends to the
// test log from reloading the reference data.
func NewWatcher(rootDir string, debounce time.Duration, logger ports.Logger, ignore []string, onReload func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		rootDir:  rootDir,
		debounce: debounce,
		logger:   logger,
		watcher:  fsWatcher,
		ignore:   make(map[string]struct{}, len(ignore)),
		onReload: onReload,
		done:     make(chan struct{}),
	}
	for _, name := range ignore {
		w.ignore[name] = struct{}{}
	}

	if err := w.addRecursive(rootDir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching for file changes in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.relevant(event.Name) {
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addRecursive(event.Name)
					}
				}
				continue
			}

			w.logger.Debug("data file change detected", "file", event.Name, "op", event.Op.String())

			// Debounce: editors often write a file in several steps.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerC:
			w.logger.Info("reloading reference data due to file changes")
			w.onReload()
			timerC = nil
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	if _, skip := w.ignore[filepath.Base(name)]; skip {
		return false
	}
	return isDataFile(name)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func isDataFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".yaml", ".yml", ".j2", ".tmpl":
		return true
	}
	return false
}
