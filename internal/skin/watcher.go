package skin

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads a skin directory whenever a file in it changes and
// publishes the new Store. Consumers drain Updates on their own goroutine;
// only the most recent store is kept if nobody is reading.
type Watcher struct {
	dir      string
	debounce time.Duration
	log      *zap.Logger

	fsw     *fsnotify.Watcher
	updates chan *Store
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch starts watching dir. Close must be called to release the watcher.
func Watch(dir string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		log:      log,
		fsw:      fsw,
		updates:  make(chan *Store, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Updates delivers a freshly loaded store after each change burst.
func (w *Watcher) Updates() <-chan *Store {
	return w.updates
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !IsSkinFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("skin file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("skin watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	store, err := Load(os.DirFS(w.dir), ".")
	if err != nil {
		w.log.Warn("skin reload reported problems", zap.String("dir", w.dir), zap.Error(err))
	}
	if store == nil || store.Len() == 0 {
		return
	}
	w.log.Info("skins reloaded", zap.String("dir", w.dir), zap.Int("count", store.Len()))

	// Replace any store the consumer has not picked up yet.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- store:
	default:
	}
}
